package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/platform/logger"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// taskColumns is the canonical select list for task rows.
const taskColumns = `id, user_id, title, description, status, priority, due_date,
	category_id, tags, estimated_hours, actual_hours, completed_at, created_at, updated_at`

// sortableTaskColumns whitelists the columns a listing may be sorted by.
// Anything else falls back to created_at.
var sortableTaskColumns = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"due_date":        true,
	"completed_at":    true,
	"title":           true,
	"status":          true,
	"priority":        true,
	"estimated_hours": true,
	"actual_hours":    true,
}

// TaskStore implements the store.TaskStore interface using a PostgreSQL
// database as the storage backend.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a new PostgreSQL implementation of the TaskStore
// interface. If logger is nil, the process default is used.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// WithTx implements store.TaskStore.WithTx
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, err := marshalTags(task.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, status, priority, due_date,
			category_id, tags, estimated_hours, actual_hours, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CategoryID,
		tags,
		task.EstimatedHours,
		task.ActualHours,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if no task with that ID is owned by userID.
func (s *TaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1 AND user_id = $2`, taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found",
				slog.String("task_id", id.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// List implements store.TaskStore.List
// The filter dimensions combine with AND; multi-valued dimensions with OR.
func (s *TaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	opts store.ListOptions,
) (*store.TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	opts = opts.Normalize()

	where, args := buildTaskFilter(userID, filter)

	countQuery := "SELECT COUNT(*) FROM tasks WHERE " + where
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	sortBy := opts.SortBy
	if !sortableTaskColumns[sortBy] {
		sortBy = "created_at"
	}
	direction := "DESC"
	if opts.SortOrder == store.SortAsc {
		direction = "ASC"
	}

	listQuery := fmt.Sprintf(
		"SELECT %s FROM tasks WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		taskColumns, where, sortBy, direction, len(args)+1, len(args)+2,
	)
	args = append(args, opts.Limit, opts.Offset())

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return &store.TaskPage{
		Tasks: tasks,
		Total: total,
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// Update implements store.TaskStore.Update
// Returns store.ErrTaskNotFound if the task does not exist for its owner.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, err := marshalTags(task.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, due_date = $5,
			category_id = $6, tags = $7, estimated_hours = $8, actual_hours = $9,
			completed_at = $10, updated_at = $11
		WHERE id = $12 AND user_id = $13
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CategoryID,
		tags,
		task.EstimatedHours,
		task.ActualHours,
		task.CompletedAt,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
// Returns store.ErrTaskNotFound if no task with that ID is owned by userID.
func (s *TaskStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted successfully",
		slog.String("task_id", id.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// CountByStatus implements store.TaskStore.CountByStatus
// The breakdown always covers all of the user's tasks, ignoring any filters
// active on the listing that requested it.
func (s *TaskStore) CountByStatus(ctx context.Context, userID uuid.UUID) (store.StatusCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to count tasks by status",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return store.StatusCounts{}, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var counts store.StatusCounts
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return store.StatusCounts{}, err
		}
		switch domain.TaskStatus(status) {
		case domain.TaskStatusTodo:
			counts.Todo = count
		case domain.TaskStatusInProgress:
			counts.InProgress = count
		case domain.TaskStatusCompleted:
			counts.Completed = count
		case domain.TaskStatusArchived:
			counts.Archived = count
		}
	}
	if err := rows.Err(); err != nil {
		return store.StatusCounts{}, err
	}

	return counts, nil
}

// ClearCategory implements store.TaskStore.ClearCategory
// It is a single bulk update; it deliberately bypasses the per-task
// counter-adjustment path because the category itself is being removed.
func (s *TaskStore) ClearCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE tasks SET category_id = NULL, updated_at = NOW() WHERE category_id = $1`

	result, err := s.db.ExecContext(ctx, query, categoryID)
	if err != nil {
		log.Error("failed to clear category from tasks",
			slog.String("error", err.Error()),
			slog.String("category_id", categoryID.String()))
		return 0, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("cleared category from tasks",
		slog.String("category_id", categoryID.String()),
		slog.Int64("tasks_affected", affected))
	return affected, nil
}

// buildTaskFilter translates a TaskFilter into a WHERE clause and its
// arguments. The user scope is always the first condition.
func buildTaskFilter(userID uuid.UUID, filter store.TaskFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	placeholder := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		marks := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			marks[i] = placeholder(string(status))
		}
		conds = append(conds, "status IN ("+strings.Join(marks, ", ")+")")
	}

	if len(filter.Priorities) > 0 {
		marks := make([]string, len(filter.Priorities))
		for i, priority := range filter.Priorities {
			marks[i] = placeholder(string(priority))
		}
		conds = append(conds, "priority IN ("+strings.Join(marks, ", ")+")")
	}

	if filter.CategoryID != nil {
		conds = append(conds, "category_id = "+placeholder(*filter.CategoryID))
	}

	if filter.Search != "" {
		conds = append(conds,
			"to_tsvector('english', title || ' ' || description) @@ plainto_tsquery('english', "+
				placeholder(filter.Search)+")")
	}

	if filter.DueAfter != nil {
		conds = append(conds, "due_date >= "+placeholder(*filter.DueAfter))
	}
	if filter.DueBefore != nil {
		conds = append(conds, "due_date <= "+placeholder(*filter.DueBefore))
	}

	return strings.Join(conds, " AND "), args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row, decoding the jsonb tags column.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status, priority string
	var tags []byte

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.DueDate,
		&task.CategoryID,
		&tags,
		&task.EstimatedHours,
		&task.ActualHours,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &task.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode task tags: %w", err)
		}
	}

	return &task, nil
}

// marshalTags encodes the tag list for the jsonb column. A nil slice is
// stored as an empty array so reads never see SQL NULL.
func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task tags: %w", err)
	}
	return encoded, nil
}
