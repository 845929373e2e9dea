package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"ecommerce-backend/internal/domains/payment/gateway"
	"ecommerce-backend/internal/domains/refund/model"
	"ecommerce-backend/internal/shared"
)

// =====================================================
// REFUND SERVICE INTERFACE
// =====================================================
type RefundService interface {
	// CreateRefunds scans the user's orders for refundable lines of a course and
	// opens one refund per order. Returns an empty slice when nothing is refundable.
	CreateRefunds(ctx context.Context, requester shared.Requester, req model.CreateRefundsRequest) ([]*model.Refund, error)

	// GetRefund returns a refund to its owner or to staff.
	GetRefund(ctx context.Context, requester shared.Requester, refundID uuid.UUID) (*model.RefundResponse, error)

	// ProcessRefund applies a staff decision to a refund.
	ProcessRefund(ctx context.Context, requester shared.Requester, refundID uuid.UUID, req model.ProcessRefundRequest) (*model.RefundResponse, error)
}

// =====================================================
// COLLABORATORS
// =====================================================

// CreditIssuers resolves the issuer for a payment processor; *gateway.Registry implements it.
type CreditIssuers interface {
	Get(processor string) (gateway.CreditIssuer, error)
}

// TaskEnqueuer is implemented by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
