package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/platform/logger"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// CategoryService implements the category ledger operations.
type CategoryService interface {
	// ListCategories returns all of the user's categories, sorted by name
	// ascending.
	ListCategories(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)

	// CreateCategory creates a category with a task count of zero.
	// Returns store.ErrCategoryNameExists if the user already has a
	// category with the same trimmed name.
	CreateCategory(ctx context.Context, userID uuid.UUID, name, color string) (*domain.Category, error)

	// DeleteCategory removes a category after clearing the category
	// reference on every task that points at it (one bulk update, not
	// per-task transitions).
	DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error

	// ReconcileTaskCounts recomputes every category's task count from the
	// tasks table, repairing drift from failed counter adjustments.
	// Returns the number of categories repaired.
	ReconcileTaskCounts(ctx context.Context) (int64, error)
}

// txFn runs store operations that must commit or roll back together. The
// runner supplies transaction-scoped stores; callers must not fall back to
// the service's base stores inside fn.
type txFn func(ctx context.Context, categories store.CategoryStore, tasks store.TaskStore) error

// categoryService is the production CategoryService backed by the category
// and task stores.
type categoryService struct {
	categories store.CategoryStore
	tasks      store.TaskStore
	logger     *slog.Logger
	runTx      func(ctx context.Context, fn txFn) error
}

// NewCategoryService creates a CategoryService over the given stores. When db
// is non-nil, operations spanning both stores (category delete plus its bulk
// task clear) run in a single transaction; with a nil db they run
// sequentially, which store implementations without transaction support
// (in-memory test doubles) rely on. If logger is nil, the process default is
// used.
func NewCategoryService(
	categories store.CategoryStore,
	tasks store.TaskStore,
	db *sql.DB,
	logger *slog.Logger,
) CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &categoryService{
		categories: categories,
		tasks:      tasks,
		logger:     logger.With(slog.String("component", "category_service")),
	}
	if db != nil {
		s.runTx = func(ctx context.Context, fn txFn) error {
			return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
				return fn(ctx, categories.WithTx(tx), tasks.WithTx(tx))
			})
		}
	} else {
		s.runTx = func(ctx context.Context, fn txFn) error {
			return fn(ctx, categories, tasks)
		}
	}
	return s
}

// ListCategories implements CategoryService.ListCategories
func (s *categoryService) ListCategories(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

// CreateCategory implements CategoryService.CreateCategory
func (s *categoryService) CreateCategory(
	ctx context.Context,
	userID uuid.UUID,
	name, color string,
) (*domain.Category, error) {
	category, err := domain.NewCategory(userID, name, color)
	if err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// DeleteCategory implements CategoryService.DeleteCategory
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Ownership check up front; a category belonging to another user is
	// indistinguishable from a missing one.
	if _, err := s.categories.GetByID(ctx, userID, categoryID); err != nil {
		return err
	}

	// The bulk clear and the delete commit or roll back together, so a
	// failed delete never strands tasks as uncategorized orphans of a
	// still-existing category.
	var cleared int64
	err := s.runTx(ctx, func(ctx context.Context, categories store.CategoryStore, tasks store.TaskStore) error {
		var clearErr error
		cleared, clearErr = tasks.ClearCategory(ctx, categoryID)
		if clearErr != nil {
			return clearErr
		}
		return categories.Delete(ctx, userID, categoryID)
	})
	if err != nil {
		log.Error("category delete failed",
			slog.String("category_id", categoryID.String()),
			slog.String("error", err.Error()))
		return err
	}

	log.Info("category deleted",
		slog.String("category_id", categoryID.String()),
		slog.String("user_id", userID.String()),
		slog.Int64("tasks_cleared", cleared))
	return nil
}

// ReconcileTaskCounts implements CategoryService.ReconcileTaskCounts
func (s *categoryService) ReconcileTaskCounts(ctx context.Context) (int64, error) {
	return s.categories.ReconcileTaskCounts(ctx)
}
