package mock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-backend/internal/domains/payment/gateway"
)

func TestMockCreditIssuer(t *testing.T) {
	m := NewMockCreditIssuer()
	req := gateway.CreditRequest{RefundID: uuid.New(), Amount: decimal.NewFromInt(10), Currency: "USD"}

	m.SetShouldFail(true)
	_, err := m.IssueCredit(context.Background(), req)
	assert.ErrorIs(t, err, gateway.ErrCreditRejected)
	assert.Zero(t, m.Issued())

	m.SetShouldFail(false)
	res, err := m.IssueCredit(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.Reference, "mock-refund-")

	assert.Len(t, m.Calls(), 2)
	assert.Equal(t, 1, m.Issued())
}

func TestMockCreditIssuer_RepeatedRefundIDReplaysCredit(t *testing.T) {
	m := NewMockCreditIssuer()
	req := gateway.CreditRequest{RefundID: uuid.New(), Amount: decimal.NewFromInt(10), Currency: "USD"}

	first, err := m.IssueCredit(context.Background(), req)
	require.NoError(t, err)

	// A replay succeeds even while the processor is refusing new credits.
	m.SetShouldFail(true)
	second, err := m.IssueCredit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Reference, second.Reference)
	assert.Len(t, m.Calls(), 2)
	assert.Equal(t, 1, m.Issued())

	m.SetShouldFail(false)
	other, err := m.IssueCredit(context.Background(), gateway.CreditRequest{RefundID: uuid.New(), Amount: decimal.NewFromInt(3)})
	require.NoError(t, err)
	assert.NotEqual(t, first.Reference, other.Reference)
	assert.Equal(t, 2, m.Issued())
}
