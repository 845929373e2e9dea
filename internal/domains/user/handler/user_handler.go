package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/domains/user/model"
	"ecommerce-backend/internal/domains/user/service"
	"ecommerce-backend/internal/shared/response"
	"ecommerce-backend/pkg/session"
)

// UserHandler serves the login endpoints. Both the bearer token and the
// session cookie it issues are accepted by the auth middleware.
type UserHandler struct {
	service  service.Service
	sessions *session.Store
}

func NewUserHandler(service service.Service, sessions *session.Store) *UserHandler {
	return &UserHandler{
		service:  service,
		sessions: sessions,
	}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Login - POST /api/v2/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	// STEP 1: PARSE REQUEST
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	// STEP 2: AUTHENTICATE
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// STEP 3: START BROWSER SESSION
	if err := h.sessions.Login(c.Writer, c.Request, res.User.ID); err != nil {
		log.Error().Err(err).Str("user_id", res.User.ID.String()).Msg("Failed to start session")
		response.InternalServerError(c, "Internal server error")
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Logout - POST /api/v2/auth/logout
// Always succeeds; an absent session is already logged out.
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Writer, c.Request); err != nil {
		log.Warn().Err(err).Msg("Failed to clear session")
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// ========================================
// HELPERS
// ========================================

func (h *UserHandler) handleError(c *gin.Context, err error) {
	var validationErrs validation.Errors

	switch {
	// 400 Bad Request
	case errors.As(err, &validationErrs):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", validationErrs)

	// 401 Unauthorized
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrUserInactive):
		response.Unauthorized(c, err.Error())

	// 500 Internal Server Error
	default:
		log.Error().Err(err).Msg("Login failed")
		response.InternalServerError(c, "Internal server error")
	}
}
