package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/oakmund/taskdeck-api/internal/domain"
)

// SortOrder is the direction of a sort.
type SortOrder string

// Sort directions.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Default pagination values, matching the API defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// TaskFilter describes the optional filter dimensions for listing tasks.
// Dimensions combine with AND; values within Statuses/Priorities combine
// with OR. The zero value matches all of a user's tasks.
type TaskFilter struct {
	// Statuses restricts results to tasks in any of these statuses.
	Statuses []domain.TaskStatus

	// Priorities restricts results to tasks with any of these priorities.
	Priorities []domain.TaskPriority

	// CategoryID restricts results to tasks referencing the category.
	CategoryID *uuid.UUID

	// Search is a free-text query matched against title and description.
	Search string

	// DueAfter keeps tasks whose due date is at or after this time (gte).
	DueAfter *time.Time

	// DueBefore keeps tasks whose due date is at or before this time (lte).
	DueBefore *time.Time
}

// ListOptions carries pagination and sorting for task listing.
type ListOptions struct {
	Page      int // 1-based
	Limit     int
	SortBy    string // a task column; defaults to created_at
	SortOrder SortOrder
}

// Normalize clamps pagination values into range and fills defaults.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.SortBy == "" {
		o.SortBy = "created_at"
	}
	if o.SortOrder != SortAsc {
		o.SortOrder = SortDesc
	}
	return o
}

// Offset returns the row offset implied by Page and Limit.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// StatusCounts is the per-status breakdown of a user's tasks.
// It always covers all of the user's tasks, regardless of any active filters.
type StatusCounts struct {
	Todo       int `json:"todo"`
	InProgress int `json:"in-progress"`
	Completed  int `json:"completed"`
	Archived   int `json:"archived"`
}

// TaskPage is one page of task listing results.
type TaskPage struct {
	Tasks []*domain.Task
	Total int // total rows matching the filter, across all pages
	Page  int
	Limit int
}

// TaskStore defines the interface for task data persistence.
// All read and write operations are scoped to the owning user; a task that
// exists but belongs to another user behaves as if it did not exist.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task owned by userID.
	// Returns ErrTaskNotFound if no such task exists for that user.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// List returns one page of the user's tasks matching the filter,
	// along with the total match count.
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter, opts ListOptions) (*TaskPage, error)

	// Update overwrites an existing task's mutable fields.
	// Returns ErrTaskNotFound if the task does not exist for its owner.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task owned by userID.
	// Returns ErrTaskNotFound if no such task exists for that user.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// CountByStatus returns the per-status breakdown over all of the
	// user's tasks.
	CountByStatus(ctx context.Context, userID uuid.UUID) (StatusCounts, error)

	// ClearCategory sets category to none on every task referencing
	// categoryID, in a single bulk update. Returns the number of tasks
	// affected.
	ClearCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// WithTx returns a TaskStore that runs its operations on the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
