package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/oakmund/taskdeck-api/internal/api/shared"
	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/platform/logger"
	"github.com/oakmund/taskdeck-api/internal/service/auth"
	"github.com/oakmund/taskdeck-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	tokenLifetime    time.Duration
	validator        *validator.Validate
	timeFunc         func() time.Time // Injectable for testing
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// tokenLifetime is the access token lifetime, used to report expiry to
// clients alongside issued tokens.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	tokenLifetime time.Duration,
) *AuthHandler {
	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		tokenLifetime:    tokenLifetime,
		validator:        validator.New(),
		timeFunc:         time.Now,
	}
}

// issueTokenPair generates a fresh access/refresh token pair for the user.
func (h *AuthHandler) issueTokenPair(r *http.Request, userID uuid.UUID) (TokenPair, error) {
	accessToken, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    h.timeFunc().UTC().Add(h.tokenLifetime).Format(time.RFC3339),
	}, nil
}

// Register handles the /api/auth/register endpoint.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())

	var req RegisterRequest
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

	user, err := domain.NewUser(req.Username, req.Email, req.Password)
	if err != nil {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			shared.RespondWithError(
				w, r, http.StatusConflict, CodeDuplicateEmail, "Email already exists")
		case errors.Is(err, store.ErrUsernameExists):
			shared.RespondWithError(
				w, r, http.StatusConflict, CodeDuplicateUsername, "Username already exists")
		default:
			log.Error("failed to create user", "error", err)
			shared.RespondWithError(
				w, r, http.StatusInternalServerError, CodeInternalError, "Failed to create user")
		}
		return
	}

	tokens, err := h.issueTokenPair(r, user.ID)
	if err != nil {
		log.Error("failed to generate tokens", "error", err, "user_id", user.ID)
		shared.RespondWithError(
			w, r, http.StatusInternalServerError, CodeInternalError,
			"Failed to generate authentication token")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusCreated, "User registered successfully", AuthData{
		User:   toUserResponse(user),
		Tokens: tokens,
	})
}

// Login handles the /api/auth/login endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())

	var req LoginRequest
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

	user, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Same response as a bad password so the endpoint does not
			// reveal which emails are registered.
			shared.RespondWithError(
				w, r, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid credentials")
			return
		}
		log.Error("failed to get user by email", "error", err)
		shared.RespondWithError(
			w, r, http.StatusInternalServerError, CodeInternalError, "Failed to authenticate user")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(
			w, r, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid credentials")
		return
	}

	tokens, err := h.issueTokenPair(r, user.ID)
	if err != nil {
		log.Error("failed to generate tokens", "error", err, "user_id", user.ID)
		shared.RespondWithError(
			w, r, http.StatusInternalServerError, CodeInternalError,
			"Failed to generate authentication token")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Login successful", AuthData{
		User:   toUserResponse(user),
		Tokens: tokens,
	})
}

// RefreshToken handles the /api/auth/refresh endpoint. It validates the
// refresh token and issues a new access/refresh pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())

	var req RefreshTokenRequest
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

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	tokens, err := h.issueTokenPair(r, claims.UserID)
	if err != nil {
		log.Error("failed to generate tokens", "error", err, "user_id", claims.UserID)
		shared.RespondWithError(
			w, r, http.StatusInternalServerError, CodeInternalError,
			"Failed to generate authentication token")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Token refreshed", struct {
		Tokens TokenPair `json:"tokens"`
	}{Tokens: tokens})
}

// Me handles the /api/auth/me endpoint, returning the authenticated user's
// profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(
			w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "", struct {
		User UserResponse `json:"user"`
	}{User: toUserResponse(user)})
}

// Logout handles the /api/auth/logout endpoint. Tokens are stateless and
// carry no server-side session, so there is nothing to revoke; the client
// discards its token pair on this response.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(
			w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	logger.FromContextOrDefault(r.Context(), slog.Default()).
		Info("user logged out", "user_id", userID)
	shared.RespondWithSuccess(w, r, http.StatusOK, "Logged out successfully", nil)
}
