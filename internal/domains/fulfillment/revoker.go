package fulfillment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrRevocationFailed = errors.New("fulfillment revocation failed")

// RevocationRequest identifies the access granted by one refunded order line.
type RevocationRequest struct {
	RefundLineID uuid.UUID
	OrderNumber  string
	Username     string
	CourseID     string
}

// Revoker withdraws the access previously granted for an order line.
type Revoker interface {
	RevokeLine(ctx context.Context, req RevocationRequest) error
}
