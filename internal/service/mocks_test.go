package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// Mock store implementations for testing. Behavior is injected per test via
// the func fields; unset funcs fall back to benign defaults. Counter
// adjustments are recorded so tests can assert on the exact sequence of
// increments and decrements.

type mockTaskStore struct {
	createFunc        func(ctx context.Context, task *domain.Task) error
	getByIDFunc       func(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)
	listFunc          func(ctx context.Context, userID uuid.UUID, filter store.TaskFilter, opts store.ListOptions) (*store.TaskPage, error)
	updateFunc        func(ctx context.Context, task *domain.Task) error
	deleteFunc        func(ctx context.Context, userID, id uuid.UUID) error
	countByStatusFunc func(ctx context.Context, userID uuid.UUID) (store.StatusCounts, error)
	clearCategoryFunc func(ctx context.Context, categoryID uuid.UUID) (int64, error)

	createdTasks []*domain.Task
	updatedTasks []*domain.Task
	deletedIDs   []uuid.UUID
}

func (m *mockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, task); err != nil {
			return err
		}
	}
	m.createdTasks = append(m.createdTasks, task)
	return nil
}

func (m *mockTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, userID, id)
	}
	return nil, store.ErrTaskNotFound
}

func (m *mockTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	opts store.ListOptions,
) (*store.TaskPage, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, filter, opts)
	}
	opts = opts.Normalize()
	return &store.TaskPage{Page: opts.Page, Limit: opts.Limit}, nil
}

func (m *mockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.updateFunc != nil {
		if err := m.updateFunc(ctx, task); err != nil {
			return err
		}
	}
	m.updatedTasks = append(m.updatedTasks, task)
	return nil
}

func (m *mockTaskStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.deleteFunc != nil {
		if err := m.deleteFunc(ctx, userID, id); err != nil {
			return err
		}
	}
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockTaskStore) CountByStatus(ctx context.Context, userID uuid.UUID) (store.StatusCounts, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(ctx, userID)
	}
	return store.StatusCounts{}, nil
}

func (m *mockTaskStore) ClearCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	if m.clearCategoryFunc != nil {
		return m.clearCategoryFunc(ctx, categoryID)
	}
	return 0, nil
}

func (m *mockTaskStore) WithTx(*sql.Tx) store.TaskStore { return m }

type mockCategoryStore struct {
	createFunc     func(ctx context.Context, category *domain.Category) error
	getByIDFunc    func(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error)
	listByUserFunc func(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)
	deleteFunc     func(ctx context.Context, userID, id uuid.UUID) error
	reconcileFunc  func(ctx context.Context) (int64, error)

	incrementErr error
	decrementErr error

	incremented []uuid.UUID
	decremented []uuid.UUID
	deletedIDs  []uuid.UUID
}

func (m *mockCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, category)
	}
	return nil
}

func (m *mockCategoryStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, userID, id)
	}
	return nil, store.ErrCategoryNotFound
}

func (m *mockCategoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCategoryStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.deleteFunc != nil {
		if err := m.deleteFunc(ctx, userID, id); err != nil {
			return err
		}
	}
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockCategoryStore) IncrementTaskCount(ctx context.Context, id uuid.UUID) error {
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.incremented = append(m.incremented, id)
	return nil
}

func (m *mockCategoryStore) DecrementTaskCount(ctx context.Context, id uuid.UUID) error {
	if m.decrementErr != nil {
		return m.decrementErr
	}
	m.decremented = append(m.decremented, id)
	return nil
}

func (m *mockCategoryStore) ReconcileTaskCounts(ctx context.Context) (int64, error) {
	if m.reconcileFunc != nil {
		return m.reconcileFunc(ctx)
	}
	return 0, nil
}

func (m *mockCategoryStore) WithTx(*sql.Tx) store.CategoryStore { return m }

// ownedCategory builds a GetByID func that recognizes exactly the given
// category IDs as belonging to userID.
func ownedCategory(userID uuid.UUID, ids ...uuid.UUID) func(context.Context, uuid.UUID, uuid.UUID) (*domain.Category, error) {
	return func(_ context.Context, reqUserID, id uuid.UUID) (*domain.Category, error) {
		if reqUserID != userID {
			return nil, store.ErrCategoryNotFound
		}
		for _, known := range ids {
			if id == known {
				return &domain.Category{ID: id, UserID: userID, Name: "Work", Color: "#FF5733"}, nil
			}
		}
		return nil, store.ErrCategoryNotFound
	}
}
