package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	userID := uuid.New()

	task, err := NewTask(userID, "Write report")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if task.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, task.UserID)
	}
	if task.Status != TaskStatusTodo {
		t.Errorf("Expected status %s, got %s", TaskStatusTodo, task.Status)
	}
	if task.Priority != TaskPriorityMedium {
		t.Errorf("Expected priority %s, got %s", TaskPriorityMedium, task.Priority)
	}
	if task.CompletedAt != nil {
		t.Error("Expected nil CompletedAt on a new task")
	}
	if task.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Title is trimmed before validation
	task, err = NewTask(userID, "  padded title  ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.Title != "padded title" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}

	// Missing required fields
	if _, err = NewTask(userID, ""); !errors.Is(err, ErrTaskTitleEmpty) {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleEmpty, err)
	}
	if _, err = NewTask(userID, "   "); !errors.Is(err, ErrTaskTitleEmpty) {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleEmpty, err)
	}
	if _, err = NewTask(uuid.Nil, "Write report"); !errors.Is(err, ErrTaskUserIDEmpty) {
		t.Errorf("Expected error %v, got %v", ErrTaskUserIDEmpty, err)
	}
}

func TestTaskValidate(t *testing.T) {
	validTask := func() *Task {
		return &Task{
			ID:       uuid.New(),
			UserID:   uuid.New(),
			Title:    "Write report",
			Status:   TaskStatusTodo,
			Priority: TaskPriorityMedium,
		}
	}

	if err := validTask().Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	task := validTask()
	task.Title = strings.Repeat("a", MaxTaskTitleLength+1)
	if err := task.Validate(); !errors.Is(err, ErrTaskTitleTooLong) {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleTooLong, err)
	}

	task = validTask()
	task.Title = strings.Repeat("a", MaxTaskTitleLength)
	if err := task.Validate(); err != nil {
		t.Errorf("Expected title at the limit to pass, got %v", err)
	}

	task = validTask()
	task.Description = strings.Repeat("d", MaxTaskDescriptionLength+1)
	if err := task.Validate(); !errors.Is(err, ErrTaskDescTooLong) {
		t.Errorf("Expected error %v, got %v", ErrTaskDescTooLong, err)
	}

	task = validTask()
	task.Status = TaskStatus("paused")
	if err := task.Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected error %v, got %v", ErrInvalidStatus, err)
	}

	task = validTask()
	task.Priority = TaskPriority("urgent")
	if err := task.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("Expected error %v, got %v", ErrInvalidPriority, err)
	}

	task = validTask()
	task.Tags = []string{"ok", strings.Repeat("t", MaxTaskTagLength+1)}
	if err := task.Validate(); !errors.Is(err, ErrTaskTagTooLong) {
		t.Errorf("Expected error %v, got %v", ErrTaskTagTooLong, err)
	}

	task = validTask()
	tooMany := float64(MaxTaskEstimatedHours + 1)
	task.EstimatedHours = &tooMany
	if err := task.Validate(); !errors.Is(err, ErrTaskHoursOutOfRange) {
		t.Errorf("Expected error %v, got %v", ErrTaskHoursOutOfRange, err)
	}

	task = validTask()
	negative := -1.0
	task.EstimatedHours = &negative
	if err := task.Validate(); !errors.Is(err, ErrTaskHoursOutOfRange) {
		t.Errorf("Expected error %v, got %v", ErrTaskHoursOutOfRange, err)
	}

	task = validTask()
	task.ActualHours = -0.5
	if err := task.Validate(); !errors.Is(err, ErrTaskHoursNegative) {
		t.Errorf("Expected error %v, got %v", ErrTaskHoursNegative, err)
	}
}

func TestValidateDueDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := ValidateDueDate(now.Add(time.Minute), now); err != nil {
		t.Errorf("Expected future due date to pass, got %v", err)
	}
	if err := ValidateDueDate(now, now); !errors.Is(err, ErrTaskDueDateNotFuture) {
		t.Errorf("Expected error for due date equal to now, got %v", err)
	}
	if err := ValidateDueDate(now.Add(-time.Minute), now); !errors.Is(err, ErrTaskDueDateNotFuture) {
		t.Errorf("Expected error for past due date, got %v", err)
	}
}

// TestStatusTransitionTable exercises every ordered pair of statuses against
// the state machine, including self-transitions, which are always rejected.
func TestStatusTransitionTable(t *testing.T) {
	allowed := map[TaskStatus]map[TaskStatus]bool{
		TaskStatusTodo:       {TaskStatusInProgress: true, TaskStatusArchived: true},
		TaskStatusInProgress: {TaskStatusTodo: true, TaskStatusCompleted: true, TaskStatusArchived: true},
		TaskStatusCompleted:  {TaskStatusInProgress: true, TaskStatusArchived: true},
		TaskStatusArchived:   {},
	}

	for _, from := range AllTaskStatuses {
		for _, to := range AllTaskStatuses {
			got := from.CanTransitionTo(to)
			want := allowed[from][to]
			if got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransitionTo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	newTask := func(status TaskStatus) *Task {
		return &Task{
			ID:       uuid.New(),
			UserID:   uuid.New(),
			Title:    "Write report",
			Status:   status,
			Priority: TaskPriorityMedium,
		}
	}

	// Entering completed stamps CompletedAt
	task := newTask(TaskStatusInProgress)
	if err := task.TransitionTo(TaskStatusCompleted, now); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.Status != TaskStatusCompleted {
		t.Errorf("Expected status %s, got %s", TaskStatusCompleted, task.Status)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("Expected CompletedAt %v, got %v", now, task.CompletedAt)
	}

	// Leaving completed clears CompletedAt
	if err := task.TransitionTo(TaskStatusInProgress, now.Add(time.Hour)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.CompletedAt != nil {
		t.Errorf("Expected CompletedAt cleared, got %v", task.CompletedAt)
	}

	// Archiving a completed task preserves CompletedAt
	task = newTask(TaskStatusCompleted)
	stamped := now.Add(-time.Hour)
	task.CompletedAt = &stamped
	if err := task.TransitionTo(TaskStatusArchived, now); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(stamped) {
		t.Errorf("Expected CompletedAt preserved at %v, got %v", stamped, task.CompletedAt)
	}

	// Archived is terminal
	for _, to := range AllTaskStatuses {
		task = newTask(TaskStatusArchived)
		if err := task.TransitionTo(to, now); !errors.Is(err, ErrInvalidStatusTransition) {
			t.Errorf("Expected archived -> %s to fail with %v, got %v", to, ErrInvalidStatusTransition, err)
		}
	}

	// Self-transitions are rejected and leave the task untouched
	for _, status := range AllTaskStatuses {
		task = newTask(status)
		err := task.TransitionTo(status, now)
		if !errors.Is(err, ErrInvalidStatusTransition) {
			t.Errorf("Expected self-transition on %s to fail with %v, got %v",
				status, ErrInvalidStatusTransition, err)
		}
		if task.Status != status {
			t.Errorf("Expected status unchanged after rejected transition, got %s", task.Status)
		}
	}

	// todo cannot jump straight to completed
	task = newTask(TaskStatusTodo)
	if err := task.TransitionTo(TaskStatusCompleted, now); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("Expected todo -> completed to fail with %v, got %v", ErrInvalidStatusTransition, err)
	}
	if task.CompletedAt != nil {
		t.Error("Expected CompletedAt untouched after rejected transition")
	}

	// Unknown target status
	task = newTask(TaskStatusTodo)
	if err := task.TransitionTo(TaskStatus("paused"), now); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected error %v, got %v", ErrInvalidStatus, err)
	}
}

// TestTransitionToReentersCompleted covers re-completing a task: the original
// CompletedAt was cleared on the way out, so a fresh timestamp is stamped.
func TestTransitionToReentersCompleted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := &Task{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Title:    "Write report",
		Status:   TaskStatusInProgress,
		Priority: TaskPriorityLow,
	}

	if err := task.TransitionTo(TaskStatusCompleted, now); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	first := *task.CompletedAt

	if err := task.TransitionTo(TaskStatusInProgress, now.Add(time.Hour)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	later := now.Add(2 * time.Hour)
	if err := task.TransitionTo(TaskStatusCompleted, later); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(later) {
		t.Errorf("Expected fresh CompletedAt %v, got %v", later, task.CompletedAt)
	}
	if task.CompletedAt.Equal(first) {
		t.Error("Expected CompletedAt to be restamped, not reused")
	}
}
