package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category-specific validation errors
var (
	ErrCategoryIDEmpty       = errors.New("category ID cannot be empty")
	ErrCategoryUserIDEmpty   = errors.New("category user ID cannot be empty")
	ErrCategoryNameEmpty     = errors.New("category name cannot be empty")
	ErrCategoryNameTooLong   = errors.New("category name cannot exceed 50 characters")
	ErrCategoryColorInvalid  = errors.New("category color must be a hex color such as #F53 or #FF5733")
	ErrCategoryCountNegative = errors.New("category task count cannot be negative")
)

// MaxCategoryNameLength is the upper bound on category names.
const MaxCategoryNameLength = 50

var hexColorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// Category groups a user's tasks. TaskCount is a denormalized count of the
// non-deleted tasks currently referencing the category; it is maintained
// incrementally by the category store, never recomputed on read.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	TaskCount int       `json:"task_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCategory creates a new Category owned by userID with a task count of
// zero. The name is trimmed before validation; uniqueness per user is
// enforced by the store. Returns an error if validation fails.
func NewCategory(userID uuid.UUID, name, color string) (*Category, error) {
	now := time.Now().UTC()
	category := &Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks if the Category has valid data.
// Returns an error if any field fails validation.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCategoryIDEmpty
	}
	if c.UserID == uuid.Nil {
		return ErrCategoryUserIDEmpty
	}

	if c.Name == "" {
		return ErrCategoryNameEmpty
	}
	if len(c.Name) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}

	if !hexColorPattern.MatchString(c.Color) {
		return ErrCategoryColorInvalid
	}

	if c.TaskCount < 0 {
		return ErrCategoryCountNegative
	}

	return nil
}
