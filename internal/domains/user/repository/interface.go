package repository

import (
	"context"

	"github.com/google/uuid"

	"ecommerce-backend/internal/domains/user/model"
)

// Repository is the read side of the user store.
type Repository interface {
	// FindByID returns model.ErrUserNotFound when no user has the id.
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// FindByIDUncached reads the store directly and refreshes the cached copy.
	// Authorization uses it so a changed staff or active flag applies on the next request.
	FindByIDUncached(ctx context.Context, id uuid.UUID) (*model.User, error)

	// FindByUsername returns model.ErrUserNotFound when no user has the username.
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}
