package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/service"
	"github.com/oakmund/taskdeck-api/internal/service/auth"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// Mock services for handler tests. Behavior is injected per test through the
// func fields; unset funcs return not-found so misrouted calls fail loudly.

type mockTaskService struct {
	createTaskFunc       func(ctx context.Context, userID uuid.UUID, input service.CreateTaskInput) (*domain.Task, error)
	listTasksFunc        func(ctx context.Context, userID uuid.UUID, filter store.TaskFilter, opts store.ListOptions) (*service.TaskList, error)
	getTaskFunc          func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	updateTaskFunc       func(ctx context.Context, userID, taskID uuid.UUID, input service.UpdateTaskInput) (*domain.Task, error)
	deleteTaskFunc       func(ctx context.Context, userID, taskID uuid.UUID) error
	transitionFunc       func(ctx context.Context, userID, taskID uuid.UUID, newStatus domain.TaskStatus) (*domain.Task, error)
	updatePriorityFunc   func(ctx context.Context, userID, taskID uuid.UUID, priority domain.TaskPriority) (*domain.Task, error)
	lastCreateInput      service.CreateTaskInput
	lastUpdateInput      service.UpdateTaskInput
	lastFilter           store.TaskFilter
	lastListOptions      store.ListOptions
	lastTransitionStatus domain.TaskStatus
}

var _ service.TaskService = (*mockTaskService)(nil)

func (m *mockTaskService) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	input service.CreateTaskInput,
) (*domain.Task, error) {
	m.lastCreateInput = input
	if m.createTaskFunc != nil {
		return m.createTaskFunc(ctx, userID, input)
	}
	return nil, store.ErrTaskNotFound
}

func (m *mockTaskService) ListTasks(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	opts store.ListOptions,
) (*service.TaskList, error) {
	m.lastFilter = filter
	m.lastListOptions = opts
	if m.listTasksFunc != nil {
		return m.listTasksFunc(ctx, userID, filter, opts)
	}
	return &service.TaskList{Page: 1, Limit: 10}, nil
}

func (m *mockTaskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.getTaskFunc != nil {
		return m.getTaskFunc(ctx, userID, taskID)
	}
	return nil, store.ErrTaskNotFound
}

func (m *mockTaskService) UpdateTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	input service.UpdateTaskInput,
) (*domain.Task, error) {
	m.lastUpdateInput = input
	if m.updateTaskFunc != nil {
		return m.updateTaskFunc(ctx, userID, taskID, input)
	}
	return nil, store.ErrTaskNotFound
}

func (m *mockTaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if m.deleteTaskFunc != nil {
		return m.deleteTaskFunc(ctx, userID, taskID)
	}
	return store.ErrTaskNotFound
}

func (m *mockTaskService) TransitionStatus(
	ctx context.Context,
	userID, taskID uuid.UUID,
	newStatus domain.TaskStatus,
) (*domain.Task, error) {
	m.lastTransitionStatus = newStatus
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, userID, taskID, newStatus)
	}
	return nil, store.ErrTaskNotFound
}

func (m *mockTaskService) UpdatePriority(
	ctx context.Context,
	userID, taskID uuid.UUID,
	priority domain.TaskPriority,
) (*domain.Task, error) {
	if m.updatePriorityFunc != nil {
		return m.updatePriorityFunc(ctx, userID, taskID, priority)
	}
	return nil, store.ErrTaskNotFound
}

type mockCategoryService struct {
	listFunc      func(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)
	createFunc    func(ctx context.Context, userID uuid.UUID, name, color string) (*domain.Category, error)
	deleteFunc    func(ctx context.Context, userID, categoryID uuid.UUID) error
	reconcileFunc func(ctx context.Context) (int64, error)
}

var _ service.CategoryService = (*mockCategoryService)(nil)

func (m *mockCategoryService) ListCategories(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCategoryService) CreateCategory(
	ctx context.Context,
	userID uuid.UUID,
	name, color string,
) (*domain.Category, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, name, color)
	}
	return nil, store.ErrCategoryNotFound
}

func (m *mockCategoryService) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, categoryID)
	}
	return store.ErrCategoryNotFound
}

func (m *mockCategoryService) ReconcileTaskCounts(ctx context.Context) (int64, error) {
	if m.reconcileFunc != nil {
		return m.reconcileFunc(ctx)
	}
	return 0, nil
}

type mockUserStore struct {
	createFunc     func(ctx context.Context, user *domain.User) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
}

var _ store.UserStore = (*mockUserStore)(nil)

func (m *mockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, store.ErrUserNotFound
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, store.ErrUserNotFound
}

type mockJWTService struct {
	generateTokenFunc        func(ctx context.Context, userID uuid.UUID) (string, error)
	generateRefreshFunc      func(ctx context.Context, userID uuid.UUID) (string, error)
	validateTokenFunc        func(ctx context.Context, tokenString string) (*auth.Claims, error)
	validateRefreshTokenFunc func(ctx context.Context, tokenString string) (*auth.Claims, error)
}

var _ auth.JWTService = (*mockJWTService)(nil)

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateTokenFunc != nil {
		return m.generateTokenFunc(ctx, userID)
	}
	return "access-token", nil
}

func (m *mockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateRefreshFunc != nil {
		return m.generateRefreshFunc(ctx, userID)
	}
	return "refresh-token", nil
}

func (m *mockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, tokenString)
	}
	return nil, auth.ErrInvalidToken
}

func (m *mockJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.validateRefreshTokenFunc != nil {
		return m.validateRefreshTokenFunc(ctx, tokenString)
	}
	return nil, auth.ErrInvalidRefreshToken
}

type mockPasswordVerifier struct {
	compareErr error
}

var _ auth.PasswordVerifier = (*mockPasswordVerifier)(nil)

func (m *mockPasswordVerifier) Compare(hashedPassword, password string) error {
	return m.compareErr
}
