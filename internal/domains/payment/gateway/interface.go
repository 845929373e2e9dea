package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownProcessor    = errors.New("unknown payment processor")
	ErrMissingPaymentRef   = errors.New("order has no payment reference")
	ErrCreditRejected      = errors.New("payment processor rejected the credit")
	ErrInvalidCreditAmount = errors.New("credit amount must be positive")
)

// =====================================================
// GATEWAY INTERFACES
// =====================================================

// CreditIssuer returns money to the instrument an order was paid with.
//
// IssueCredit must be idempotent per CreditRequest.RefundID: repeating a
// request for a refund that was already credited returns the original
// result and moves no money. Refund processing relies on this when a
// transaction rolls back after the processor accepted the credit.
type CreditIssuer interface {
	IssueCredit(ctx context.Context, req CreditRequest) (*CreditResult, error)
}

// =====================================================
// COMMON REQUEST/RESPONSE TYPES
// =====================================================

type CreditRequest struct {
	RefundID         uuid.UUID
	OrderNumber      string
	PaymentReference string          // processor transaction id of the original payment
	Amount           decimal.Decimal // major units, e.g. 49.99
	Currency         string
}

type CreditResult struct {
	Reference string // processor refund id
	Status    string
}

// =====================================================
// REGISTRY
// =====================================================

// Registry resolves the credit issuer for an order's payment processor.
type Registry struct {
	mu      sync.RWMutex
	issuers map[string]CreditIssuer
}

func NewRegistry() *Registry {
	return &Registry{issuers: make(map[string]CreditIssuer)}
}

func (r *Registry) Register(processor string, issuer CreditIssuer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issuers[processor] = issuer
}

func (r *Registry) Get(processor string) (CreditIssuer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issuer, ok := r.issuers[processor]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcessor, processor)
	}
	return issuer, nil
}
