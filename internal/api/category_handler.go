package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/oakmund/taskdeck-api/internal/api/shared"
	"github.com/oakmund/taskdeck-api/internal/service"
)

// CategoryHandler handles category-related API requests.
type CategoryHandler struct {
	categoryService service.CategoryService
	validator       *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler with the given dependencies.
func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		validator:       validator.New(),
	}
}

// List handles GET /api/categories, returning the user's categories sorted
// by name.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(
			w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	categories, err := h.categoryService.ListCategories(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	out := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryResponse(category))
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "", struct {
		Categories []CategoryResponse `json:"categories"`
	}{Categories: out})
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(
			w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	var req CreateCategoryRequest
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

	category, err := h.categoryService.CreateCategory(r.Context(), userID, req.Name, req.Color)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusCreated, "Category created successfully", struct {
		Category CategoryResponse `json:"category"`
	}{Category: toCategoryResponse(category)})
}

// Delete handles DELETE /api/categories/{id}. All tasks referencing the
// category become uncategorized.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, categoryID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.categoryService.DeleteCategory(r.Context(), userID, categoryID); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Category deleted successfully", nil)
}
