package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	usermodel "ecommerce-backend/internal/domains/user/model"
	"ecommerce-backend/internal/shared"
	"ecommerce-backend/internal/shared/response"
	"ecommerce-backend/pkg/jwt"
	"ecommerce-backend/pkg/session"
)

const (
	ContextUserID    = "user_id"
	ContextRequester = "requester"

	msgNotAuthenticated = "Authentication credentials were not provided."
	msgInvalidToken     = "Invalid token."
	msgUserInactive     = "User inactive or deleted."
)

// Authenticator turns an authenticated identity into the current user record.
type Authenticator interface {
	Authenticate(ctx context.Context, userID uuid.UUID) (*usermodel.User, error)
	AuthenticateUsername(ctx context.Context, username string) (*usermodel.User, error)
}

// identity is who the credentials claim to be. Tokens minted elsewhere may
// carry only a username.
type identity struct {
	userID   uuid.UUID
	username string
}

func (id identity) String() string {
	if id.userID != uuid.Nil {
		return id.userID.String()
	}
	return id.username
}

func (id identity) resolve(ctx context.Context, users Authenticator) (*usermodel.User, error) {
	if id.userID != uuid.Nil {
		return users.Authenticate(ctx, id.userID)
	}
	return users.AuthenticateUsername(ctx, id.username)
}

// AuthMiddleware accepts "Authorization: JWT <token>", "Authorization: Bearer <token>"
// or a session cookie. The staff flag always comes from the user record, never the token.
func AuthMiddleware(jwtManager *jwt.Manager, sessions *session.Store, users Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFromHeader(c, jwtManager)
		if c.IsAborted() {
			return
		}
		if !ok && sessions != nil {
			id.userID, ok = sessions.UserID(c.Request)
		}
		if !ok {
			response.AbortDetail(c, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}

		u, err := id.resolve(c.Request.Context(), users)
		if err != nil {
			log.Warn().Err(err).Str("identity", id.String()).Msg("Authentication rejected")
			response.AbortDetail(c, http.StatusUnauthorized, msgUserInactive)
			return
		}

		c.Set(ContextUserID, u.ID.String())
		c.Set(ContextRequester, shared.Requester{
			UserID:   u.ID.String(),
			Username: u.Username,
			IsStaff:  u.IsStaff,
		})

		c.Next()
	}
}

// identityFromHeader reads the Authorization header. A present but unusable header aborts with 401.
// The user_id claim wins; a token without one falls back to its username claim.
func identityFromHeader(c *gin.Context, jwtManager *jwt.Manager) (identity, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return identity{}, false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || (parts[0] != "JWT" && parts[0] != "Bearer") {
		response.AbortDetail(c, http.StatusUnauthorized, msgInvalidToken)
		return identity{}, false
	}

	claims, err := jwtManager.ValidateAccessToken(parts[1])
	if err != nil {
		response.AbortDetail(c, http.StatusUnauthorized, msgInvalidToken)
		return identity{}, false
	}

	if claims.UserID == "" {
		if claims.Username == "" {
			response.AbortDetail(c, http.StatusUnauthorized, msgInvalidToken)
			return identity{}, false
		}
		return identity{username: claims.Username}, true
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		response.AbortDetail(c, http.StatusUnauthorized, msgInvalidToken)
		return identity{}, false
	}

	return identity{userID: userID}, true
}

// GetRequester returns the caller set by AuthMiddleware.
func GetRequester(c *gin.Context) (shared.Requester, bool) {
	v, exists := c.Get(ContextRequester)
	if !exists {
		return shared.Requester{}, false
	}
	r, ok := v.(shared.Requester)
	return r, ok
}
