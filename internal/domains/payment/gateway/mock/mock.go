package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/domains/payment/gateway"
)

const ProcessorName = "mock"

// =====================================================
// MOCK CREDIT ISSUER FOR DEVELOPMENT AND TESTING
// =====================================================

type MockCreditIssuer struct {
	mu         sync.Mutex
	shouldFail bool
	calls      []gateway.CreditRequest
	issued     map[uuid.UUID]gateway.CreditResult // keyed by refund id
}

func NewMockCreditIssuer() *MockCreditIssuer {
	return &MockCreditIssuer{issued: make(map[uuid.UUID]gateway.CreditResult)}
}

// SetShouldFail makes subsequent IssueCredit calls fail.
func (m *MockCreditIssuer) SetShouldFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
}

// Calls returns the requests received so far, replays included.
func (m *MockCreditIssuer) Calls() []gateway.CreditRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]gateway.CreditRequest(nil), m.calls...)
}

// Issued returns the number of distinct credits that moved money.
func (m *MockCreditIssuer) Issued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.issued)
}

// IssueCredit replays the stored result when the refund was already credited.
func (m *MockCreditIssuer) IssueCredit(ctx context.Context, req gateway.CreditRequest) (*gateway.CreditResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if prev, ok := m.issued[req.RefundID]; ok {
		log.Info().
			Str("refund_id", req.RefundID.String()).
			Str("reference", prev.Reference).
			Msg("[MOCK] Credit already issued, replaying result")
		return &prev, nil
	}
	if m.shouldFail {
		return nil, fmt.Errorf("%w: mock failure", gateway.ErrCreditRejected)
	}

	res := gateway.CreditResult{
		Reference: fmt.Sprintf("mock-refund-%s", uuid.NewString()),
		Status:    "succeeded",
	}
	m.issued[req.RefundID] = res
	log.Info().
		Str("refund_id", req.RefundID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Str("currency", req.Currency).
		Str("reference", res.Reference).
		Msg("[MOCK] Credit issued")

	return &res, nil
}
