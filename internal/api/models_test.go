package api

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmund/taskdeck-api/internal/domain"
)

func TestOptionalUUIDUnmarshal(t *testing.T) {
	type payload struct {
		Category OptionalUUID `json:"category"`
	}

	t.Run("absent field stays unset", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{}`), &p))
		assert.False(t, p.Category.Set)
		assert.Nil(t, p.Category.Value)
	})

	t.Run("explicit null sets with nil value", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"category":null}`), &p))
		assert.True(t, p.Category.Set)
		assert.Nil(t, p.Category.Value)
	})

	t.Run("uuid string sets the value", func(t *testing.T) {
		id := uuid.New()
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"category":"`+id.String()+`"}`), &p))
		assert.True(t, p.Category.Set)
		require.NotNil(t, p.Category.Value)
		assert.Equal(t, id, *p.Category.Value)
	})

	t.Run("malformed values are invalid IDs", func(t *testing.T) {
		for _, raw := range []string{`{"category":"not-a-uuid"}`, `{"category":42}`, `{"category":{}}`} {
			var p payload
			err := json.Unmarshal([]byte(raw), &p)
			require.Error(t, err, raw)
			assert.True(t, errors.Is(err, domain.ErrInvalidID), raw)
		}
	})
}

func TestToTaskResponse(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	categoryID := uuid.New()

	t.Run("nil tags render as an empty array", func(t *testing.T) {
		resp := toTaskResponse(&domain.Task{
			ID:        uuid.New(),
			Title:     "Untagged",
			Status:    domain.TaskStatusTodo,
			Priority:  domain.TaskPriorityLow,
			CreatedAt: now,
			UpdatedAt: now,
		})
		require.NotNil(t, resp.Tags)
		assert.Empty(t, resp.Tags)

		encoded, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.Contains(t, string(encoded), `"tags":[]`)
	})

	t.Run("all fields carried over", func(t *testing.T) {
		due := now.Add(48 * time.Hour)
		hours := 2.5
		task := &domain.Task{
			ID:             uuid.New(),
			Title:          "Full",
			Description:    "everything set",
			Status:         domain.TaskStatusInProgress,
			Priority:       domain.TaskPriorityHigh,
			DueDate:        &due,
			CategoryID:     &categoryID,
			Tags:           []string{"a"},
			EstimatedHours: &hours,
			ActualHours:    1.25,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		resp := toTaskResponse(task)
		assert.Equal(t, task.ID, resp.ID)
		assert.Equal(t, "in-progress", resp.Status)
		assert.Equal(t, "high", resp.Priority)
		require.NotNil(t, resp.Category)
		assert.Equal(t, categoryID, *resp.Category)
		require.NotNil(t, resp.DueDate)
		assert.True(t, resp.DueDate.Equal(due))
		require.NotNil(t, resp.EstimatedHours)
		assert.Equal(t, 2.5, *resp.EstimatedHours)
		assert.Equal(t, 1.25, resp.ActualHours)
		assert.Nil(t, resp.CompletedAt)
	})
}
