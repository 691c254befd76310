package api

import (
	"errors"
	"net/http"

	"github.com/oakmund/taskdeck-api/internal/api/shared"
	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/service"
	"github.com/oakmund/taskdeck-api/internal/service/auth"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// Stable machine-readable error codes surfaced in the error envelope.
const (
	CodeValidationError         = "VALIDATION_ERROR"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeNotFound                = "NOT_FOUND"
	CodeTaskNotFound            = "TASK_NOT_FOUND"
	CodeCategoryNotFound        = "CATEGORY_NOT_FOUND"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeConflict                = "CONFLICT"
	CodeDuplicateEmail          = "DUPLICATE_EMAIL"
	CodeDuplicateUsername       = "DUPLICATE_USERNAME"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeInvalidCategory         = "INVALID_CATEGORY"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeInternalError           = "INTERNAL_ERROR"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case store.IsDuplicateError(err):
		return http.StatusConflict

	// Domain-rule violations
	case errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrTaskDueDateNotFuture),
		isDomainValidationError(err):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToCode maps internal errors to the stable error codes of the
// response envelope.
func MapErrorToCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrExpiredRefreshToken):
		return CodeTokenExpired
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return CodeInvalidToken
	case errors.Is(err, domain.ErrUnauthorized):
		return CodeUnauthorized

	case errors.Is(err, store.ErrTaskNotFound):
		return CodeTaskNotFound
	case errors.Is(err, store.ErrCategoryNotFound):
		return CodeCategoryNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return CodeUserNotFound
	case store.IsNotFoundError(err):
		return CodeNotFound

	case errors.Is(err, store.ErrEmailExists):
		return CodeDuplicateEmail
	case errors.Is(err, store.ErrUsernameExists):
		return CodeDuplicateUsername
	case store.IsDuplicateError(err):
		return CodeConflict

	case errors.Is(err, service.ErrInvalidCategory):
		return CodeInvalidCategory
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return CodeInvalidStatusTransition

	case MapErrorToStatusCode(err) == http.StatusBadRequest:
		return CodeValidationError

	default:
		return CodeInternalError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"
	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken):
		return "Invalid refresh token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized access"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrCategoryNotFound):
		return "Category not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"
	case errors.Is(err, store.ErrUsernameExists):
		return "Username already exists"
	case errors.Is(err, store.ErrCategoryNameExists):
		return "Category with this name already exists"

	case errors.Is(err, service.ErrInvalidCategory):
		return "Invalid category"

	// Domain-rule violations carry messages written for users; their text
	// is safe to surface directly.
	case MapErrorToStatusCode(err) == http.StatusBadRequest:
		return err.Error()

	default:
		return "Internal server error"
	}
}

// HandleServiceError maps an error from the service or store layer to a
// response: status code, stable error code, and safe message. 5xx causes are
// logged at ERROR level with the raw error.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, MapErrorToCode(err), GetSafeErrorMessage(err), err)
}

// isDomainValidationError reports whether err is one of the entity-level
// validation sentinels from the domain package.
func isDomainValidationError(err error) bool {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return true
	}
	for _, sentinel := range []error{
		domain.ErrTaskTitleEmpty,
		domain.ErrTaskTitleTooLong,
		domain.ErrTaskDescTooLong,
		domain.ErrTaskTagTooLong,
		domain.ErrTaskHoursOutOfRange,
		domain.ErrTaskHoursNegative,
		domain.ErrCategoryNameEmpty,
		domain.ErrCategoryNameTooLong,
		domain.ErrCategoryColorInvalid,
		domain.ErrInvalidUsername,
		domain.ErrInvalidEmail,
		domain.ErrPasswordTooShort,
		domain.ErrPasswordTooWeak,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
