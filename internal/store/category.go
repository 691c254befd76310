package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/oakmund/taskdeck-api/internal/domain"
)

// CategoryStore defines the interface for category data persistence,
// including the denormalized task counter. All counter mutations go through
// IncrementTaskCount/DecrementTaskCount so no other code path touches the
// field directly.
type CategoryStore interface {
	// Create saves a new category to the store.
	// Returns ErrCategoryNameExists if the user already has a category
	// with the same name.
	// Returns validation errors from the domain Category if data is invalid.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category owned by userID.
	// Returns ErrCategoryNotFound if no such category exists for that user.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error)

	// ListByUser returns all categories owned by userID, sorted by name
	// ascending.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)

	// Delete removes a category owned by userID.
	// Returns ErrCategoryNotFound if no such category exists for that user.
	// Callers are responsible for clearing task references first
	// (TaskStore.ClearCategory).
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// IncrementTaskCount atomically adds one to the category's task count.
	// Returns ErrCategoryNotFound if the category does not exist.
	IncrementTaskCount(ctx context.Context, id uuid.UUID) error

	// DecrementTaskCount atomically subtracts one from the category's task
	// count, clamped so the count never goes below zero.
	// Returns ErrCategoryNotFound if the category does not exist.
	DecrementTaskCount(ctx context.Context, id uuid.UUID) error

	// ReconcileTaskCounts recomputes every category's task count from the
	// tasks table, repairing any drift left behind by the non-atomic
	// two-step counter adjustments. Returns the number of categories whose
	// count changed.
	ReconcileTaskCounts(ctx context.Context) (int64, error)

	// WithTx returns a CategoryStore that runs its operations on the
	// provided transaction. The transaction is created and managed by the
	// caller.
	WithTx(tx *sql.Tx) CategoryStore
}
