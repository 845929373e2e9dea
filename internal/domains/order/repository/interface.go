package repository

import (
	"context"

	"github.com/google/uuid"

	"ecommerce-backend/internal/domains/order/model"
)

// Repository is the read side of the order store.
type Repository interface {
	// ListByUserWithLines returns the user's orders oldest first, each with its lines in line order.
	ListByUserWithLines(ctx context.Context, userID uuid.UUID) ([]*model.Order, error)

	// GetByID returns model.ErrOrderNotFound when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}
