package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-backend/internal/domains/user/model"
	"ecommerce-backend/pkg/session"
)

type stubService struct {
	loginFn func(model.LoginRequest) (*model.LoginResponse, error)
}

func (s *stubService) Login(_ context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	return s.loginFn(req)
}

func (s *stubService) Authenticate(context.Context, uuid.UUID) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (s *stubService) AuthenticateUsername(context.Context, string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func newRouter(svc *stubService) (*gin.Engine, *session.Store) {
	gin.SetMode(gin.TestMode)
	store := session.NewStore("session-secret-32-bytes-long!!!!", false, 0)
	h := NewUserHandler(svc, store)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	return r, store
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin_SetsSessionAndReturnsToken(t *testing.T) {
	userID := uuid.New()
	svc := &stubService{loginFn: func(req model.LoginRequest) (*model.LoginResponse, error) {
		assert.Equal(t, "staff", req.Username)
		return &model.LoginResponse{
			AccessToken: "token",
			TokenType:   "JWT",
			ExpiresIn:   900,
			User:        model.UserResponse{ID: userID, Username: "staff", IsStaff: true},
		}, nil
	}}
	r, store := newRouter(svc)

	w := post(r, "/auth/login", `{"username":"staff","password":"pw"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool                `json:"success"`
		Data    model.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "token", body.Data.AccessToken)

	// The issued cookie resolves back to the user.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	got, ok := store.UserID(req)
	require.True(t, ok)
	assert.Equal(t, userID, got)
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"bad credentials", model.ErrInvalidCredentials, http.StatusUnauthorized},
		{"inactive", model.ErrUserInactive, http.StatusUnauthorized},
		{"validation", validation.Errors{"username": validation.ErrRequired}, http.StatusBadRequest},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRouter(&stubService{loginFn: func(model.LoginRequest) (*model.LoginResponse, error) {
				return nil, tt.err
			}})

			w := post(r, "/auth/login", `{"username":"x","password":"y"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	r, _ := newRouter(&stubService{})

	w := post(r, "/auth/login", `{"username":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout_ExpiresCookie(t *testing.T) {
	r, _ := newRouter(&stubService{})

	w := post(r, "/auth/logout", "")

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[0].MaxAge < 0)
}
