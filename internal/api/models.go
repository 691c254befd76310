package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// Common request/response structures. Request payloads carry validate tags
// for structural checks; domain entities enforce the business rules.

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair carries a freshly issued access/refresh token pair.
type TokenPair struct {
	// AccessToken is the JWT token used for API authorization.
	AccessToken string `json:"accessToken"`

	// RefreshToken is the JWT token used to obtain new access tokens.
	RefreshToken string `json:"refreshToken"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires.
	ExpiresAt string `json:"expiresAt"`
}

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthData is the data payload for register/login responses.
type AuthData struct {
	User   UserResponse `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// OptionalUUID distinguishes an absent JSON field from an explicit null.
// Absent leaves Set false; null sets Set with a nil Value; a UUID string
// sets both. Used for clearing nullable references in partial updates.
type OptionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected UUID string or null", domain.ErrInvalidID)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %q is not a valid UUID", domain.ErrInvalidID, s)
	}
	o.Value = &id
	return nil
}

// CreateTaskRequest defines the payload for task creation.
type CreateTaskRequest struct {
	Title          string     `json:"title"          validate:"required,max=200"`
	Description    string     `json:"description"    validate:"max=1000"`
	Priority       string     `json:"priority"       validate:"omitempty,oneof=low medium high"`
	DueDate        *time.Time `json:"dueDate"`
	Category       *uuid.UUID `json:"category"`
	Tags           []string   `json:"tags"           validate:"omitempty,dive,max=30"`
	EstimatedHours *float64   `json:"estimatedHours" validate:"omitempty,gte=0,lte=1000"`
}

// UpdateTaskRequest defines the payload for partial task updates. Nil
// pointers mean the field was absent and is left unchanged.
type UpdateTaskRequest struct {
	Title          *string      `json:"title"          validate:"omitempty,max=200"`
	Description    *string      `json:"description"    validate:"omitempty,max=1000"`
	Priority       *string      `json:"priority"       validate:"omitempty,oneof=low medium high"`
	DueDate        *time.Time   `json:"dueDate"`
	Category       OptionalUUID `json:"category"`
	Tags           *[]string    `json:"tags"           validate:"omitempty,dive,max=30"`
	EstimatedHours *float64     `json:"estimatedHours" validate:"omitempty,gte=0,lte=1000"`
	ActualHours    *float64     `json:"actualHours"    validate:"omitempty,gte=0"`
}

// UpdateTaskStatusRequest defines the payload for the status transition endpoint.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in-progress completed archived"`
}

// UpdateTaskPriorityRequest defines the payload for the priority endpoint.
type UpdateTaskPriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=low medium high"`
}

// CreateCategoryRequest defines the payload for category creation.
type CreateCategoryRequest struct {
	Name  string `json:"name"  validate:"required,max=50"`
	Color string `json:"color" validate:"required,max=7"`
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"dueDate"`
	Category       *uuid.UUID `json:"category"`
	Tags           []string   `json:"tags"`
	EstimatedHours *float64   `json:"estimatedHours"`
	ActualHours    float64    `json:"actualHours"`
	CompletedAt    *time.Time `json:"completedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func toTaskResponse(t *domain.Task) TaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return TaskResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		DueDate:        t.DueDate,
		Category:       t.CategoryID,
		Tags:           tags,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		CompletedAt:    t.CompletedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// PaginationResponse describes the page window of a list response.
type PaginationResponse struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// TaskListData is the data payload for the task list endpoint. Stats always
// reflects the user's full task set, not the filtered page.
type TaskListData struct {
	Tasks      []TaskResponse     `json:"tasks"`
	Pagination PaginationResponse `json:"pagination"`
	Stats      store.StatusCounts `json:"stats"`
}

// CategoryResponse is the public view of a category.
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	TaskCount int       `json:"taskCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		TaskCount: c.TaskCount,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
