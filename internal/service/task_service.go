package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/platform/logger"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// CreateTaskInput carries the fields for creating a task. Title is required;
// everything else is optional.
type CreateTaskInput struct {
	Title          string
	Description    string
	Priority       *domain.TaskPriority
	DueDate        *time.Time
	CategoryID     *uuid.UUID
	Tags           []string
	EstimatedHours *float64
}

// UpdateTaskInput carries a partial update. Nil pointer fields are left
// untouched. The category reference is tri-state: SetCategory false leaves it
// alone, SetCategory true with a nil CategoryID clears it, and SetCategory
// true with a non-nil CategoryID repoints it.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Priority       *domain.TaskPriority
	DueDate        *time.Time
	SetCategory    bool
	CategoryID     *uuid.UUID
	Tags           []string
	TagsSet        bool
	EstimatedHours *float64
	ActualHours    *float64
}

// TaskList is the result of listing tasks: one page of matches plus the
// user-wide status breakdown.
type TaskList struct {
	Tasks []*domain.Task
	Total int
	Page  int
	Limit int
	Stats store.StatusCounts
}

// TaskService implements the task lifecycle operations, including the
// category-count side effects that task mutations trigger.
type TaskService interface {
	// CreateTask creates a task owned by userID with status todo.
	// A supplied category must belong to userID or ErrInvalidCategory is
	// returned. On success with a category, the category's task count is
	// incremented by one.
	CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error)

	// ListTasks returns one page of the user's tasks matching the filter,
	// plus the total match count and the status breakdown over all of the
	// user's tasks (ignoring the active filters).
	ListTasks(ctx context.Context, userID uuid.UUID, filter store.TaskFilter, opts store.ListOptions) (*TaskList, error)

	// GetTask retrieves one task owned by userID.
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// UpdateTask applies a partial update. If the category reference
	// changes, the old category's count is decremented and the new one's
	// incremented, after the task is persisted, as two independent writes.
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*domain.Task, error)

	// DeleteTask removes a task, decrementing its category's count if it
	// had one.
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error

	// TransitionStatus moves a task through the status state machine,
	// maintaining completedAt. Returns domain.ErrInvalidStatusTransition
	// for disallowed moves, with the task left untouched.
	TransitionStatus(ctx context.Context, userID, taskID uuid.UUID, newStatus domain.TaskStatus) (*domain.Task, error)

	// UpdatePriority overwrites the task's priority. No transition rules.
	UpdatePriority(ctx context.Context, userID, taskID uuid.UUID, priority domain.TaskPriority) (*domain.Task, error)
}

// taskService is the production TaskService backed by the task and category
// stores.
type taskService struct {
	tasks      store.TaskStore
	categories store.CategoryStore
	logger     *slog.Logger
	timeFunc   func() time.Time // Injectable for testing
}

// NewTaskService creates a TaskService over the given stores.
// If logger is nil, the process default is used.
func NewTaskService(tasks store.TaskStore, categories store.CategoryStore, logger *slog.Logger) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &taskService{
		tasks:      tasks,
		categories: categories,
		logger:     logger.With(slog.String("component", "task_service")),
		timeFunc:   time.Now,
	}
}

// CreateTask implements TaskService.CreateTask
func (s *taskService) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	input CreateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	// All domain-rule checks happen before anything is persisted.
	if input.CategoryID != nil {
		if err := s.checkCategoryOwnership(ctx, userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}
	if input.DueDate != nil {
		if err := domain.ValidateDueDate(*input.DueDate, now); err != nil {
			return nil, err
		}
	}

	task, err := domain.NewTask(userID, input.Title)
	if err != nil {
		return nil, err
	}
	task.Description = strings.TrimSpace(input.Description)
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	task.DueDate = input.DueDate
	task.CategoryID = input.CategoryID
	task.Tags = trimTags(input.Tags)
	task.EstimatedHours = input.EstimatedHours

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	// Counter side effect after the primary write. Non-atomic with it: a
	// failure here leaves the count stale, which the reconciler repairs.
	if task.CategoryID != nil {
		s.adjustCategoryCount(ctx, log, *task.CategoryID, task.ID, +1)
	}

	return task, nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskService) ListTasks(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	opts store.ListOptions,
) (*TaskList, error) {
	page, err := s.tasks.List(ctx, userID, filter, opts)
	if err != nil {
		return nil, err
	}

	// The breakdown is always global for the user, not filtered.
	stats, err := s.tasks.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &TaskList{
		Tasks: page.Tasks,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Stats: stats,
	}, nil
}

// GetTask implements TaskService.GetTask
func (s *taskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, userID, taskID)
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskService) UpdateTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	input UpdateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	// Domain-rule checks first so a rejected update leaves no partial state.
	if input.SetCategory && input.CategoryID != nil {
		if err := s.checkCategoryOwnership(ctx, userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}
	if input.DueDate != nil {
		if err := domain.ValidateDueDate(*input.DueDate, now); err != nil {
			return nil, err
		}
	}

	oldCategory := task.CategoryID

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.SetCategory {
		task.CategoryID = input.CategoryID
	}
	if input.TagsSet {
		task.Tags = trimTags(input.Tags)
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = input.EstimatedHours
	}
	if input.ActualHours != nil {
		task.ActualHours = *input.ActualHours
	}
	task.UpdatedAt = now

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	// Counter side effects after the primary write, as two independent
	// operations. Either may fail after the task is already persisted; the
	// drift is logged distinctly and repaired out of band.
	if input.SetCategory && !sameCategory(oldCategory, task.CategoryID) {
		if oldCategory != nil {
			s.adjustCategoryCount(ctx, log, *oldCategory, task.ID, -1)
		}
		if task.CategoryID != nil {
			s.adjustCategoryCount(ctx, log, *task.CategoryID, task.ID, +1)
		}
	}

	return task, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, userID, taskID); err != nil {
		return err
	}

	if task.CategoryID != nil {
		s.adjustCategoryCount(ctx, log, *task.CategoryID, task.ID, -1)
	}

	return nil
}

// TransitionStatus implements TaskService.TransitionStatus
func (s *taskService) TransitionStatus(
	ctx context.Context,
	userID, taskID uuid.UUID,
	newStatus domain.TaskStatus,
) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if err := task.TransitionTo(newStatus, s.timeFunc()); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// UpdatePriority implements TaskService.UpdatePriority
func (s *taskService) UpdatePriority(
	ctx context.Context,
	userID, taskID uuid.UUID,
	priority domain.TaskPriority,
) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task.Priority = priority
	task.UpdatedAt = s.timeFunc().UTC()

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// checkCategoryOwnership verifies that the category exists and belongs to
// userID. Returns ErrInvalidCategory otherwise.
func (s *taskService) checkCategoryOwnership(ctx context.Context, userID, categoryID uuid.UUID) error {
	_, err := s.categories.GetByID(ctx, userID, categoryID)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return ErrInvalidCategory
		}
		return err
	}
	return nil
}

// adjustCategoryCount applies a single counter increment or decrement. The
// primary task write has already succeeded by the time this runs, so a
// failure here is counter drift, not a request failure: it is logged with a
// distinct message and left for the reconciler.
func (s *taskService) adjustCategoryCount(
	ctx context.Context,
	log *slog.Logger,
	categoryID, taskID uuid.UUID,
	delta int,
) {
	var err error
	if delta > 0 {
		err = s.categories.IncrementTaskCount(ctx, categoryID)
	} else {
		err = s.categories.DecrementTaskCount(ctx, categoryID)
	}

	if err != nil {
		log.Warn("category task count drift: counter adjustment failed after task write",
			slog.String("category_id", categoryID.String()),
			slog.String("task_id", taskID.String()),
			slog.Int("delta", delta),
			slog.String("error", err.Error()))
	}
}

// sameCategory reports whether two category references point at the same
// category (or are both unset).
func sameCategory(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// trimTags trims whitespace from each tag, preserving order.
func trimTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	trimmed := make([]string, len(tags))
	for i, tag := range tags {
		trimmed[i] = strings.TrimSpace(tag)
	}
	return trimmed
}
