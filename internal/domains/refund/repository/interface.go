package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ecommerce-backend/internal/domains/refund/model"
)

// =====================================================
// REFUND REPOSITORY INTERFACE
// =====================================================
type RefundRepository interface {
	// ============================================
	// TRANSACTION-AWARE METHODS
	// ============================================

	// CreateWithTx inserts the refund and its lines.
	// Returns model.ErrLineAlreadyRefunded when an order line already has an active refund line.
	CreateWithTx(ctx context.Context, tx pgx.Tx, refund *model.Refund) error

	// GetByIDForUpdate loads the refund with its lines and locks the refund row
	// until tx ends. Returns model.ErrRefundNotFound when missing.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Refund, error)

	// SaveStatusWithTx persists the refund status, credit reference and line statuses.
	SaveStatusWithTx(ctx context.Context, tx pgx.Tx, refund *model.Refund) error

	// ============================================
	// STANDALONE METHODS
	// ============================================

	// GetByID loads the refund with its lines. Returns model.ErrRefundNotFound when missing.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Refund, error)

	// ActiveRefundedLineIDs returns which of orderLineIDs are covered by a refund line
	// that is not denied.
	ActiveRefundedLineIDs(ctx context.Context, orderLineIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)
}

// =====================================================
// TRANSACTION MANAGER
// =====================================================
type TransactionManager interface {
	// WithTx runs fn in a transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
