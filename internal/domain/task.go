package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	ErrTaskIDEmpty          = errors.New("task ID cannot be empty")
	ErrTaskUserIDEmpty      = errors.New("task user ID cannot be empty")
	ErrTaskTitleEmpty       = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong     = errors.New("task title cannot exceed 200 characters")
	ErrTaskDescTooLong      = errors.New("task description cannot exceed 1000 characters")
	ErrTaskTagTooLong       = errors.New("task tag cannot exceed 30 characters")
	ErrTaskDueDateNotFuture = errors.New("due date must be in the future")
	ErrTaskHoursOutOfRange  = errors.New("estimated hours must be between 0 and 1000")
	ErrTaskHoursNegative    = errors.New("actual hours cannot be negative")
)

// Field length limits for tasks.
const (
	MaxTaskTitleLength       = 200
	MaxTaskDescriptionLength = 1000
	MaxTaskTagLength         = 30
	MaxTaskEstimatedHours    = 1000
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Valid task statuses.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusArchived   TaskStatus = "archived"
)

// AllTaskStatuses lists every valid status, in lifecycle order.
var AllTaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusArchived,
}

// IsValid reports whether the status is one of the recognized values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusArchived:
		return true
	}
	return false
}

// validTransitions is the task status state machine. A status maps to the set
// of statuses it may move to; anything absent (including the status itself) is
// rejected. Archived is terminal.
var validTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusTodo:       {TaskStatusInProgress, TaskStatusArchived},
	TaskStatusInProgress: {TaskStatusTodo, TaskStatusCompleted, TaskStatusArchived},
	TaskStatusCompleted:  {TaskStatusInProgress, TaskStatusArchived},
	TaskStatusArchived:   {},
}

// CanTransitionTo reports whether the state machine permits moving from s to next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TaskPriority represents the urgency of a task.
type TaskPriority string

// Valid task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid reports whether the priority is one of the recognized values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task represents a unit of work owned by a user. A task may reference one of
// the owner's categories; the category's denormalized task count tracks how
// many tasks currently point at it.
type Task struct {
	ID             uuid.UUID    `json:"id"`
	UserID         uuid.UUID    `json:"user_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	CategoryID     *uuid.UUID   `json:"category_id,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	EstimatedHours *float64     `json:"estimated_hours,omitempty"`
	ActualHours    float64      `json:"actual_hours"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewTask creates a new Task owned by userID with status todo and priority
// medium unless a priority is supplied. It generates a new UUID and sets the
// creation/update timestamps. A supplied due date must be strictly in the
// future. Returns an error if validation fails.
func NewTask(userID uuid.UUID, title string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     strings.TrimSpace(title),
		Status:    TaskStatusTodo,
		Priority:  TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}
	if len(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}
	if len(t.Description) > MaxTaskDescriptionLength {
		return ErrTaskDescTooLong
	}

	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}

	for _, tag := range t.Tags {
		if len(tag) > MaxTaskTagLength {
			return ErrTaskTagTooLong
		}
	}

	if t.EstimatedHours != nil && (*t.EstimatedHours < 0 || *t.EstimatedHours > MaxTaskEstimatedHours) {
		return ErrTaskHoursOutOfRange
	}
	if t.ActualHours < 0 {
		return ErrTaskHoursNegative
	}

	return nil
}

// ValidateDueDate checks that a due date supplied on create or update is
// strictly in the future. Stored tasks whose due dates have since passed are
// not re-validated against this rule.
func ValidateDueDate(dueDate time.Time, now time.Time) error {
	if !dueDate.After(now) {
		return ErrTaskDueDateNotFuture
	}
	return nil
}

// TransitionTo moves the task to newStatus, enforcing the state machine.
// On entering completed it stamps CompletedAt (if not already set); on leaving
// completed it clears CompletedAt. CompletedAt is never touched by any other
// code path, so completedAt != nil holds exactly when the task last
// transitioned into completed.
// Returns ErrInvalidStatusTransition if the move is not permitted.
func (t *Task) TransitionTo(newStatus TaskStatus, now time.Time) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	if !t.Status.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: cannot transition from %s to %s",
			ErrInvalidStatusTransition, t.Status, newStatus)
	}

	if newStatus == TaskStatusCompleted {
		if t.CompletedAt == nil {
			completed := now.UTC()
			t.CompletedAt = &completed
		}
	} else if t.Status == TaskStatusCompleted {
		t.CompletedAt = nil
	}

	t.Status = newStatus
	t.UpdatedAt = now.UTC()
	return nil
}
