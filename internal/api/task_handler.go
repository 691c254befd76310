package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/oakmund/taskdeck-api/internal/api/shared"
	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/service"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// sortFieldColumns maps API sort field names to task store columns.
var sortFieldColumns = map[string]string{
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
	"dueDate":        "due_date",
	"completedAt":    "completed_at",
	"title":          "title",
	"status":         "status",
	"priority":       "priority",
	"estimatedHours": "estimated_hours",
	"actualHours":    "actual_hours",
}

// TaskHandler handles task-related API requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(
			w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, "Validation error: "+err.Error())
		return
	}

	input := service.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		DueDate:        req.DueDate,
		CategoryID:     req.Category,
		Tags:           req.Tags,
		EstimatedHours: req.EstimatedHours,
	}
	if req.Priority != "" {
		priority := domain.TaskPriority(req.Priority)
		input.Priority = &priority
	}

	task, err := h.taskService.CreateTask(r.Context(), userID, input)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusCreated, "Task created successfully", struct {
		Task TaskResponse `json:"task"`
	}{Task: toTaskResponse(task)})
}

// List handles GET /api/tasks with filtering, pagination and sorting.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(
			w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	filter, opts, err := parseTaskListQuery(r.URL.Query())
	if err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	list, err := h.taskService.ListTasks(r.Context(), userID, filter, opts)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	tasks := make([]TaskResponse, 0, len(list.Tasks))
	for _, task := range list.Tasks {
		tasks = append(tasks, toTaskResponse(task))
	}

	pages := 0
	if list.Limit > 0 {
		pages = (list.Total + list.Limit - 1) / list.Limit
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "", TaskListData{
		Tasks: tasks,
		Pagination: PaginationResponse{
			Total: list.Total,
			Page:  list.Page,
			Limit: list.Limit,
			Pages: pages,
		},
		Stats: list.Stats,
	})
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), userID, taskID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "", struct {
		Task TaskResponse `json:"task"`
	}{Task: toTaskResponse(task)})
}

// Update handles PUT /api/tasks/{id} with partial semantics: absent fields
// are left unchanged, and an explicit null category clears the reference.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, "Validation error: "+err.Error())
		return
	}

	input := service.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		DueDate:        req.DueDate,
		SetCategory:    req.Category.Set,
		CategoryID:     req.Category.Value,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.Tags != nil {
		input.TagsSet = true
		input.Tags = *req.Tags
	}

	task, err := h.taskService.UpdateTask(r.Context(), userID, taskID, input)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Task updated successfully", struct {
		Task TaskResponse `json:"task"`
	}{Task: toTaskResponse(task)})
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), userID, taskID); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Task deleted successfully", nil)
}

// UpdateStatus handles PUT /api/tasks/{id}/status, moving the task through
// the status state machine.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, "Validation error: "+err.Error())
		return
	}

	task, err := h.taskService.TransitionStatus(
		r.Context(), userID, taskID, domain.TaskStatus(req.Status))
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Task status updated", struct {
		Task TaskResponse `json:"task"`
	}{Task: toTaskResponse(task)})
}

// UpdatePriority handles PUT /api/tasks/{id}/priority.
func (h *TaskHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskPriorityRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, "Validation error: "+err.Error())
		return
	}

	task, err := h.taskService.UpdatePriority(
		r.Context(), userID, taskID, domain.TaskPriority(req.Priority))
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Task priority updated", struct {
		Task TaskResponse `json:"task"`
	}{Task: toTaskResponse(task)})
}

// parseTaskListQuery builds the store filter and list options from the query
// string. Unknown sort fields and malformed values are rejected rather than
// silently ignored.
func parseTaskListQuery(query url.Values) (store.TaskFilter, store.ListOptions, error) {
	var filter store.TaskFilter

	if raw := query.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.TaskStatus(strings.TrimSpace(part))
			if !status.IsValid() {
				return filter, store.ListOptions{}, domain.NewValidationError(
					"status", "has invalid value "+strconv.Quote(string(status)), domain.ErrInvalidStatus)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := query.Get("priority"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			priority := domain.TaskPriority(strings.TrimSpace(part))
			if !priority.IsValid() {
				return filter, store.ListOptions{}, domain.NewValidationError(
					"priority", "has invalid value "+strconv.Quote(string(priority)), domain.ErrInvalidPriority)
			}
			filter.Priorities = append(filter.Priorities, priority)
		}
	}

	if raw := query.Get("category"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return filter, store.ListOptions{}, domain.NewValidationError(
				"category", "has invalid format", domain.ErrInvalidID)
		}
		filter.CategoryID = &categoryID
	}

	filter.Search = strings.TrimSpace(query.Get("search"))

	if raw := query.Get("dueDate[gte]"); raw != "" {
		t, err := parseQueryTime(raw)
		if err != nil {
			return filter, store.ListOptions{}, domain.NewValidationError(
				"dueDate[gte]", "must be an RFC 3339 timestamp or YYYY-MM-DD date", domain.ErrValidation)
		}
		filter.DueAfter = &t
	}
	if raw := query.Get("dueDate[lte]"); raw != "" {
		t, err := parseQueryTime(raw)
		if err != nil {
			return filter, store.ListOptions{}, domain.NewValidationError(
				"dueDate[lte]", "must be an RFC 3339 timestamp or YYYY-MM-DD date", domain.ErrValidation)
		}
		filter.DueBefore = &t
	}

	opts := store.ListOptions{}
	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, opts, domain.NewValidationError(
				"page", "must be a positive integer", domain.ErrValidation)
		}
		opts.Page = page
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, opts, domain.NewValidationError(
				"limit", "must be a positive integer", domain.ErrValidation)
		}
		opts.Limit = limit
	}

	if raw := query.Get("sortBy"); raw != "" {
		column, ok := sortFieldColumns[raw]
		if !ok {
			return filter, opts, domain.NewValidationError(
				"sortBy", "has unsupported value "+strconv.Quote(raw), domain.ErrValidation)
		}
		opts.SortBy = column
	}
	if raw := query.Get("sortOrder"); raw != "" {
		switch raw {
		case "asc":
			opts.SortOrder = store.SortAsc
		case "desc":
			opts.SortOrder = store.SortDesc
		default:
			return filter, opts, domain.NewValidationError(
				"sortOrder", "must be asc or desc", domain.ErrValidation)
		}
	}

	return filter, opts, nil
}

// parseQueryTime accepts an RFC 3339 timestamp or a bare date.
func parseQueryTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
