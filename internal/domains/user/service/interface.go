package service

import (
	"context"

	"github.com/google/uuid"

	"ecommerce-backend/internal/domains/user/model"
)

type Service interface {
	// Login checks credentials and issues an access token.
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)

	// Authenticate resolves an already authenticated user id (token or session)
	// into an active user.
	Authenticate(ctx context.Context, userID uuid.UUID) (*model.User, error)

	// AuthenticateUsername does the same for tokens that only carry a username.
	AuthenticateUsername(ctx context.Context, username string) (*model.User, error)
}
