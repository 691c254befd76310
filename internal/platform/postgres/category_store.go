package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/platform/logger"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// categoriesUserNameConstraint is the unique index over (user_id, name) from
// the categories table migration.
const categoriesUserNameConstraint = "categories_user_id_name_key"

// CategoryStore implements the store.CategoryStore interface using a
// PostgreSQL database as the storage backend. It owns every mutation of the
// denormalized task_count column.
type CategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCategoryStore creates a new PostgreSQL implementation of the
// CategoryStore interface. If logger is nil, the process default is used.
func NewCategoryStore(db store.DBTX, logger *slog.Logger) *CategoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CategoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "category_store")),
	}
}

// WithTx implements store.CategoryStore.WithTx
func (s *CategoryStore) WithTx(tx *sql.Tx) store.CategoryStore {
	return &CategoryStore{
		db:     tx,
		logger: s.logger,
	}
}

// Ensure CategoryStore implements store.CategoryStore interface
var _ store.CategoryStore = (*CategoryStore)(nil)

// Create implements store.CategoryStore.Create
// Returns store.ErrCategoryNameExists if the user already has a category with
// the same name.
func (s *CategoryStore) Create(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		log.Warn("category validation failed during create",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return err
	}

	query := `
		INSERT INTO categories (id, user_id, name, color, task_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.UserID,
		category.Name,
		category.Color,
		category.TaskCount,
		category.CreatedAt,
		category.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err, categoriesUserNameConstraint) {
			log.Debug("duplicate category name",
				slog.String("user_id", category.UserID.String()))
			return store.ErrCategoryNameExists
		}
		log.Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()),
			slog.String("user_id", category.UserID.String()))
		return MapError(err)
	}

	log.Info("category created successfully",
		slog.String("category_id", category.ID.String()),
		slog.String("user_id", category.UserID.String()))
	return nil
}

// GetByID implements store.CategoryStore.GetByID
// Returns store.ErrCategoryNotFound if no category with that ID is owned by
// userID.
func (s *CategoryStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, color, task_count, created_at, updated_at
		FROM categories
		WHERE id = $1 AND user_id = $2
	`

	var category domain.Category
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&category.ID,
		&category.UserID,
		&category.Name,
		&category.Color,
		&category.TaskCount,
		&category.CreatedAt,
		&category.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("category not found",
				slog.String("category_id", id.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrCategoryNotFound
		}
		log.Error("failed to get category by ID",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return nil, MapError(err)
	}

	return &category, nil
}

// ListByUser implements store.CategoryStore.ListByUser
// Results are sorted by name ascending.
func (s *CategoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, color, task_count, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list categories",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	categories := []*domain.Category{}
	for rows.Next() {
		var category domain.Category
		err := rows.Scan(
			&category.ID,
			&category.UserID,
			&category.Name,
			&category.Color,
			&category.TaskCount,
			&category.CreatedAt,
			&category.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan category row",
				slog.String("error", err.Error()))
			return nil, err
		}
		categories = append(categories, &category)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return categories, nil
}

// Delete implements store.CategoryStore.Delete
// Returns store.ErrCategoryNotFound if no category with that ID is owned by
// userID.
func (s *CategoryStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM categories WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Error("failed to delete category",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrCategoryNotFound); err != nil {
		return err
	}

	log.Info("category deleted successfully",
		slog.String("category_id", id.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// IncrementTaskCount implements store.CategoryStore.IncrementTaskCount
func (s *CategoryStore) IncrementTaskCount(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE categories
		SET task_count = task_count + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to increment category task count",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrCategoryNotFound)
}

// DecrementTaskCount implements store.CategoryStore.DecrementTaskCount
// The count is clamped at zero regardless of operation ordering.
func (s *CategoryStore) DecrementTaskCount(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE categories
		SET task_count = GREATEST(task_count - 1, 0), updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to decrement category task count",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrCategoryNotFound)
}

// ReconcileTaskCounts implements store.CategoryStore.ReconcileTaskCounts
// One statement recomputes every count from the tasks table; only rows whose
// stored count drifted are touched.
func (s *CategoryStore) ReconcileTaskCounts(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE categories c
		SET task_count = counted.n, updated_at = NOW()
		FROM (
			SELECT c2.id, COUNT(t.id) AS n
			FROM categories c2
			LEFT JOIN tasks t ON t.category_id = c2.id
			GROUP BY c2.id
		) AS counted
		WHERE counted.id = c.id AND c.task_count <> counted.n
	`

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		log.Error("failed to reconcile category task counts",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	repaired, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if repaired > 0 {
		log.Warn("repaired drifted category task counts",
			slog.Int64("categories_repaired", repaired))
	}
	return repaired, nil
}
