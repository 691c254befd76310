package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oakmund/taskdeck-api/internal/api/shared"
	"github.com/oakmund/taskdeck-api/internal/domain"
	"github.com/oakmund/taskdeck-api/internal/service/auth"
	"github.com/oakmund/taskdeck-api/internal/store"
)

func newTestAuthHandler(userStore store.UserStore, jwtService auth.JWTService, verifier auth.PasswordVerifier) *AuthHandler {
	h := NewAuthHandler(userStore, jwtService, verifier, time.Hour)
	h.timeFunc = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return h
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(method, target, bytes.NewReader(encoded))
}

func testUser() *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: "$2a$10$notarealhashbutlongenoughtolooklikeone",
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	t.Run("registers and issues tokens", func(t *testing.T) {
		var created *domain.User
		userStore := &mockUserStore{
			createFunc: func(_ context.Context, user *domain.User) error {
				created = user
				return nil
			},
		}
		h := newTestAuthHandler(userStore, &mockJWTService{}, &mockPasswordVerifier{})

		rr := httptest.NewRecorder()
		h.Register(rr, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
			"username": "alice",
			"email":    "Alice@Example.com",
			"password": "secret1pass",
		}))

		require.Equal(t, http.StatusCreated, rr.Code)
		require.NotNil(t, created)
		assert.Equal(t, "alice@example.com", created.Email, "email should be normalized")
		assert.Equal(t, "secret1pass", created.Password, "plaintext is carried to the store for hashing")

		var body struct {
			Success bool     `json:"success"`
			Data    AuthData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, "alice", body.Data.User.Username)
		assert.Equal(t, "access-token", body.Data.Tokens.AccessToken)
		assert.Equal(t, "refresh-token", body.Data.Tokens.RefreshToken)
		assert.Equal(t, "2026-03-01T13:00:00Z", body.Data.Tokens.ExpiresAt)
	})

	t.Run("duplicate email", func(t *testing.T) {
		userStore := &mockUserStore{
			createFunc: func(_ context.Context, _ *domain.User) error {
				return store.ErrEmailExists
			},
		}
		h := newTestAuthHandler(userStore, &mockJWTService{}, &mockPasswordVerifier{})

		rr := httptest.NewRecorder()
		h.Register(rr, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "secret1pass",
		}))

		assert.Equal(t, http.StatusConflict, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, CodeDuplicateEmail, envelope.Error.Code)
	})

	t.Run("duplicate username", func(t *testing.T) {
		userStore := &mockUserStore{
			createFunc: func(_ context.Context, _ *domain.User) error {
				return store.ErrUsernameExists
			},
		}
		h := newTestAuthHandler(userStore, &mockJWTService{}, &mockPasswordVerifier{})

		rr := httptest.NewRecorder()
		h.Register(rr, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "secret1pass",
		}))

		assert.Equal(t, http.StatusConflict, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, CodeDuplicateUsername, envelope.Error.Code)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		h := newTestAuthHandler(&mockUserStore{}, &mockJWTService{}, &mockPasswordVerifier{})

		rr := httptest.NewRecorder()
		h.Register(rr, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "abcdefgh",
		}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, CodeValidationError, envelope.Error.Code)
	})
}

func TestAuthHandlerLogin(t *testing.T) {
	user := testUser()
	foundByEmail := &mockUserStore{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email == user.Email {
				return user, nil
			}
			return nil, store.ErrUserNotFound
		},
	}

	t.Run("success", func(t *testing.T) {
		h := newTestAuthHandler(foundByEmail, &mockJWTService{}, &mockPasswordVerifier{})

		rr := httptest.NewRecorder()
		h.Login(rr, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "alice@example.com",
			"password": "secret1pass",
		}))

		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Data AuthData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, user.ID, body.Data.User.ID)
		assert.NotEmpty(t, body.Data.Tokens.AccessToken)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		wrongPassword := &mockPasswordVerifier{compareErr: bcrypt.ErrMismatchedHashAndPassword}

		cases := []struct {
			name     string
			store    store.UserStore
			verifier auth.PasswordVerifier
		}{
			{"unknown email", &mockUserStore{}, &mockPasswordVerifier{}},
			{"wrong password", foundByEmail, wrongPassword},
		}

		var bodies []string
		for _, tc := range cases {
			h := newTestAuthHandler(tc.store, &mockJWTService{}, tc.verifier)
			rr := httptest.NewRecorder()
			h.Login(rr, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
				"email":    "alice@example.com",
				"password": "whatever1",
			}))

			assert.Equal(t, http.StatusUnauthorized, rr.Code, tc.name)
			envelope := decodeEnvelope(t, rr)
			require.NotNil(t, envelope.Error, tc.name)
			assert.Equal(t, CodeInvalidCredentials, envelope.Error.Code, tc.name)
			bodies = append(bodies, envelope.Error.Message)
		}
		assert.Equal(t, bodies[0], bodies[1], "error messages must not reveal which emails exist")
	})
}

func TestAuthHandlerRefreshToken(t *testing.T) {
	userID := uuid.New()

	t.Run("issues a new pair", func(t *testing.T) {
		jwtService := &mockJWTService{
			validateRefreshTokenFunc: func(_ context.Context, tokenString string) (*auth.Claims, error) {
				assert.Equal(t, "old-refresh", tokenString)
				return &auth.Claims{UserID: userID}, nil
			},
		}
		h := newTestAuthHandler(&mockUserStore{}, jwtService, &mockPasswordVerifier{})

		rr := httptest.NewRecorder()
		h.RefreshToken(rr, jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{
			"refreshToken": "old-refresh",
		}))

		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Data struct {
				Tokens TokenPair `json:"tokens"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "access-token", body.Data.Tokens.AccessToken)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		jwtService := &mockJWTService{
			validateRefreshTokenFunc: func(_ context.Context, _ string) (*auth.Claims, error) {
				return nil, auth.ErrExpiredRefreshToken
			},
		}
		h := newTestAuthHandler(&mockUserStore{}, jwtService, &mockPasswordVerifier{})

		rr := httptest.NewRecorder()
		h.RefreshToken(rr, jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{
			"refreshToken": "stale",
		}))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, CodeTokenExpired, envelope.Error.Code)
	})

	t.Run("missing token field", func(t *testing.T) {
		h := newTestAuthHandler(&mockUserStore{}, &mockJWTService{}, &mockPasswordVerifier{})

		rr := httptest.NewRecorder()
		h.RefreshToken(rr, jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandlerMe(t *testing.T) {
	user := testUser()
	userStore := &mockUserStore{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, store.ErrUserNotFound
		},
	}
	h := newTestAuthHandler(userStore, &mockJWTService{}, &mockPasswordVerifier{})

	t.Run("returns the authenticated user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, user.ID))

		rr := httptest.NewRecorder()
		h.Me(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Data struct {
				User UserResponse `json:"user"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "alice", body.Data.User.Username)
	})

	t.Run("no user in context", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Me(rr, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, CodeUnauthorized, envelope.Error.Code)
	})
}

func TestAuthHandlerLogout(t *testing.T) {
	h := newTestAuthHandler(&mockUserStore{}, &mockJWTService{}, &mockPasswordVerifier{})

	t.Run("acknowledges without revoking anything", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, uuid.New()))

		rr := httptest.NewRecorder()
		h.Logout(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		envelope := decodeEnvelope(t, rr)
		assert.True(t, envelope.Success)
		assert.Equal(t, "Logged out successfully", envelope.Message)
	})

	t.Run("requires authentication", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
