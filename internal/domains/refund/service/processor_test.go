package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermodel "ecommerce-backend/internal/domains/order/model"
	"ecommerce-backend/internal/domains/refund/model"
	"ecommerce-backend/internal/shared"
)

// seedRefund creates an order for alice with n course lines and an Open refund covering them.
func (f *fixture) seedRefund(t *testing.T, n int) *model.Refund {
	t.Helper()
	lines := make([]*ordermodel.Line, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, courseLine(demoCourse, "10.00"))
	}
	f.addOrder(f.alice, ordermodel.OrderStatusComplete, lines...)

	refunds, err := f.svc.CreateRefunds(context.Background(), requesterFor(f.alice), createRequest("alice", demoCourse))
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	return f.refunds.stored(refunds[0].ID)
}

// setStatus overwrites the persisted refund status.
func (f *fixture) setStatus(id uuid.UUID, status string) {
	f.refunds.mu.Lock()
	defer f.refunds.mu.Unlock()
	f.refunds.refunds[id].Status = status
}

func (f *fixture) process(id uuid.UUID, action string) (*model.RefundResponse, error) {
	return f.svc.ProcessRefund(context.Background(), requesterFor(f.staff), id, model.ProcessRefundRequest{Action: action})
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

type logEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func findLog(t *testing.T, buf *bytes.Buffer, message string) (logEntry, bool) {
	t.Helper()
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry logEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.Message == message {
			return entry, true
		}
	}
	return logEntry{}, false
}

func actionFailure(t *testing.T, err error) *model.RefundError {
	t.Helper()
	require.ErrorIs(t, err, model.ErrActionFailed)
	var refundErr *model.RefundError
	require.True(t, errors.As(err, &refundErr))
	require.NotNil(t, refundErr.Refund)
	return refundErr
}

// =====================================================
// GUARDS
// =====================================================

func TestProcessRefund_StaffOnly(t *testing.T) {
	f := newFixture(t)
	refund := f.seedRefund(t, 1)
	txBefore := f.tx.calls

	_, err := f.svc.ProcessRefund(context.Background(), requesterFor(f.alice), refund.ID, model.ProcessRefundRequest{Action: "approve"})

	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Equal(t, txBefore, f.tx.calls)
	assert.Equal(t, model.RefundStatusOpen, f.refunds.stored(refund.ID).Status)
}

func TestProcessRefund_InvalidAction(t *testing.T) {
	for _, action := range []string{"reject", "", "Approve", "delete"} {
		t.Run(fmt.Sprintf("%q", action), func(t *testing.T) {
			f := newFixture(t)
			refund := f.seedRefund(t, 1)
			txBefore := f.tx.calls

			_, err := f.process(refund.ID, action)

			assert.ErrorIs(t, err, model.ErrInvalidAction)
			assert.Equal(t, txBefore, f.tx.calls)
			assert.Equal(t, model.RefundStatusOpen, f.refunds.stored(refund.ID).Status)
			assert.Empty(t, f.issuer.Calls())
		})
	}
}

func TestProcessRefund_UnknownRefund(t *testing.T) {
	f := newFixture(t)

	_, err := f.process(uuid.New(), "approve")

	assert.ErrorIs(t, err, model.ErrRefundNotFound)
}

// =====================================================
// HAPPY PATHS
// =====================================================

func TestProcessRefund_Approve(t *testing.T) {
	f := newFixture(t)
	refund := f.seedRefund(t, 2)

	resp, err := f.process(refund.ID, "approve")

	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusComplete, resp.Status)
	require.NotNil(t, resp.CreditReference)
	assert.Contains(t, *resp.CreditReference, "mock-refund-")

	calls := f.issuer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "20.00", calls[0].Amount.StringFixed(2))
	assert.Equal(t, refund.ID, calls[0].RefundID)

	require.Len(t, f.revoker.calls, 2)
	for _, c := range f.revoker.calls {
		assert.Equal(t, "alice", c.Username)
		assert.Equal(t, demoCourse, c.CourseID)
	}

	stored := f.refunds.stored(refund.ID)
	assert.Equal(t, model.RefundStatusComplete, stored.Status)
	for _, line := range stored.Lines {
		assert.Equal(t, model.RefundLineStatusComplete, line.Status)
	}

	require.Len(t, f.enqueuer.tasks, 1)
	assert.Equal(t, shared.TypeRefundNotify, f.enqueuer.tasks[0].Type())
	var payload shared.RefundNotifyPayload
	require.NoError(t, json.Unmarshal(f.enqueuer.tasks[0].Payload(), &payload))
	assert.Equal(t, refund.ID.String(), payload.RefundID)
	assert.Equal(t, model.RefundStatusComplete, payload.Status)
}

func TestProcessRefund_ApprovePaymentOnlySkipsRevocation(t *testing.T) {
	f := newFixture(t)
	refund := f.seedRefund(t, 1)
	logs := captureLogs(t)

	resp, err := f.process(refund.ID, "approve_payment_only")

	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusComplete, resp.Status)
	stored := f.refunds.stored(refund.ID)
	assert.Equal(t, model.RefundStatusComplete, stored.Status)
	assert.Equal(t, model.RefundLineStatusOpen, stored.Lines[0].Status)
	assert.Len(t, f.issuer.Calls(), 1)
	assert.Empty(t, f.revoker.calls)

	entry, ok := findLog(t, logs, fmt.Sprintf("Skipping the revocation step for refund [%s].", refund.ID))
	require.True(t, ok, logs.String())
	assert.Equal(t, "info", entry.Level)
}

func TestProcessRefund_Deny(t *testing.T) {
	f := newFixture(t)
	refund := f.seedRefund(t, 2)

	resp, err := f.process(refund.ID, "deny")

	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusDenied, resp.Status)
	for _, line := range f.refunds.stored(refund.ID).Lines {
		assert.Equal(t, model.RefundLineStatusDenied, line.Status)
	}
	assert.Empty(t, f.issuer.Calls())
	assert.Empty(t, f.revoker.calls)
	assert.Len(t, f.enqueuer.tasks, 1)
}

func TestProcessRefund_ZeroCreditSkipsProcessor(t *testing.T) {
	f := newFixture(t)
	f.addOrder(f.alice, ordermodel.OrderStatusComplete, courseLine(demoCourse, "0.00"))
	refunds, err := f.svc.CreateRefunds(context.Background(), requesterFor(f.alice), createRequest("alice", demoCourse))
	require.NoError(t, err)
	require.Len(t, refunds, 1)

	resp, err := f.process(refunds[0].ID, "approve")

	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusComplete, resp.Status)
	assert.Nil(t, resp.CreditReference)
	assert.Empty(t, f.issuer.Calls())
	assert.Len(t, f.revoker.calls, 1)
}

func TestProcessRefund_EnqueueFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	refund := f.seedRefund(t, 1)
	f.enqueuer.err = errRedisDown

	resp, err := f.process(refund.ID, "approve")

	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusComplete, resp.Status)
}

// =====================================================
// TERMINAL STATES
// =====================================================

func TestProcessRefund_ReprocessTerminalIsIdempotent(t *testing.T) {
	tests := []struct {
		action string
		status string
	}{
		{"approve", model.RefundStatusComplete},
		{"approve_payment_only", model.RefundStatusComplete},
		{"deny", model.RefundStatusDenied},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			f := newFixture(t)
			refund := f.seedRefund(t, 1)
			f.setStatus(refund.ID, tt.status)

			resp, err := f.process(refund.ID, tt.action)

			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Empty(t, f.issuer.Calls())
			assert.Empty(t, f.revoker.calls)
			assert.Empty(t, f.enqueuer.tasks)
		})
	}
}

func TestProcessRefund_IncompatibleActionFails(t *testing.T) {
	tests := []struct {
		action string
		status string
	}{
		{"deny", model.RefundStatusComplete},
		{"deny", model.RefundStatusPaymentRefunded},
		{"deny", model.RefundStatusRevocationError},
		{"approve", model.RefundStatusDenied},
		{"approve_payment_only", model.RefundStatusDenied},
	}

	for _, tt := range tests {
		t.Run(tt.action+" from "+tt.status, func(t *testing.T) {
			f := newFixture(t)
			refund := f.seedRefund(t, 1)
			f.setStatus(refund.ID, tt.status)

			_, err := f.process(refund.ID, tt.action)

			failure := actionFailure(t, err)
			assert.Equal(t, tt.status, failure.Refund.Status)
			assert.Equal(t, tt.status, f.refunds.stored(refund.ID).Status)
			assert.Empty(t, f.issuer.Calls())
			assert.Empty(t, f.revoker.calls)
			assert.Empty(t, f.enqueuer.tasks)
		})
	}
}

// =====================================================
// FAILURES AND RECOVERY
// =====================================================

func TestProcessRefund_CreditFailureThenRetry(t *testing.T) {
	f := newFixture(t)
	refund := f.seedRefund(t, 1)
	f.issuer.SetShouldFail(true)

	_, err := f.process(refund.ID, "approve")

	failure := actionFailure(t, err)
	assert.Equal(t, model.RefundStatusPaymentRefundError, failure.Refund.Status)
	assert.Equal(t, model.RefundStatusPaymentRefundError, f.refunds.stored(refund.ID).Status)
	assert.Empty(t, f.revoker.calls)
	assert.Empty(t, f.enqueuer.tasks)

	f.issuer.SetShouldFail(false)
	resp, err := f.process(refund.ID, "approve")

	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusComplete, resp.Status)
	assert.Len(t, f.issuer.Calls(), 2)
	assert.Len(t, f.revoker.calls, 1)
}

func TestProcessRefund_CommitFailureAfterCreditRetriesOnce(t *testing.T) {
	tests := []struct {
		name string
		fail func(f *fixture, err error)
	}{
		{"save fails", func(f *fixture, err error) { f.refunds.saveErr = err }},
		{"commit fails", func(f *fixture, err error) { f.tx.commitErr = err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			refund := f.seedRefund(t, 1)
			tt.fail(f, errors.New("conn reset during commit"))

			_, err := f.process(refund.ID, "approve")

			require.Error(t, err)
			assert.NotErrorIs(t, err, model.ErrActionFailed)
			assert.Equal(t, 1, f.tx.rollbacks)
			stored := f.refunds.stored(refund.ID)
			assert.Equal(t, model.RefundStatusOpen, stored.Status)
			assert.Nil(t, stored.CreditReference)
			assert.Equal(t, 1, f.issuer.Issued())
			assert.Empty(t, f.enqueuer.tasks)

			resp, err := f.process(refund.ID, "approve")

			require.NoError(t, err)
			assert.Equal(t, model.RefundStatusComplete, resp.Status)
			assert.Equal(t, model.RefundStatusComplete, f.refunds.stored(refund.ID).Status)

			calls := f.issuer.Calls()
			require.Len(t, calls, 2)
			assert.Equal(t, calls[0].RefundID, calls[1].RefundID)
			assert.Equal(t, 1, f.issuer.Issued(), "credit must be issued exactly once")
			assert.Len(t, f.enqueuer.tasks, 1)
		})
	}
}

func TestProcessRefund_RevocationFailureNeverReissuesCredit(t *testing.T) {
	f := newFixture(t)
	refund := f.seedRefund(t, 2)

	// Point the second line at a course the LMS will refuse.
	broken := "course-v1:Broken+1+1"
	f.refunds.mu.Lock()
	f.refunds.refunds[refund.ID].Lines[1].CourseID = &broken
	f.refunds.mu.Unlock()
	f.revoker.failFor[broken] = true

	_, err := f.process(refund.ID, "approve")

	failure := actionFailure(t, err)
	assert.Equal(t, model.RefundStatusRevocationError, failure.Refund.Status)
	stored := f.refunds.stored(refund.ID)
	assert.Equal(t, model.RefundStatusRevocationError, stored.Status)
	assert.Equal(t, model.RefundLineStatusComplete, stored.Lines[0].Status)
	assert.Equal(t, model.RefundLineStatusRevocationError, stored.Lines[1].Status)
	require.NotNil(t, stored.CreditReference)
	assert.Len(t, f.issuer.Calls(), 1)
	assert.Len(t, f.revoker.calls, 2)

	f.revoker.failFor[broken] = false
	resp, err := f.process(refund.ID, "approve")

	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusComplete, resp.Status)
	assert.Len(t, f.issuer.Calls(), 1, "credit must not be issued twice")
	require.Len(t, f.revoker.calls, 3)
	assert.Equal(t, broken, f.revoker.calls[2].CourseID)
}

func TestProcessRefund_ApprovePaymentOnlyAfterRevocationError(t *testing.T) {
	f := newFixture(t)
	refund := f.seedRefund(t, 2)

	broken := "course-v1:Broken+1+1"
	f.refunds.mu.Lock()
	f.refunds.refunds[refund.ID].Lines[1].CourseID = &broken
	f.refunds.mu.Unlock()
	f.revoker.failFor[broken] = true

	_, err := f.process(refund.ID, "approve")
	actionFailure(t, err)
	require.Equal(t, model.RefundStatusRevocationError, f.refunds.stored(refund.ID).Status)

	resp, err := f.process(refund.ID, "approve_payment_only")

	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusComplete, resp.Status)
	assert.Len(t, f.issuer.Calls(), 1)
	assert.Len(t, f.revoker.calls, 2)

	stored := f.refunds.stored(refund.ID)
	assert.Equal(t, model.RefundStatusComplete, stored.Status)
	assert.Equal(t, model.RefundLineStatusComplete, stored.Lines[0].Status)
	assert.Equal(t, model.RefundLineStatusRevocationError, stored.Lines[1].Status, "skipped line must not look revoked")
}

func TestProcessRefund_UnknownProcessor(t *testing.T) {
	f := newFixture(t)
	refund := f.seedRefund(t, 1)
	f.orders.orders[0].PaymentProcessor = "paypal"

	_, err := f.process(refund.ID, "approve")

	failure := actionFailure(t, err)
	assert.Equal(t, model.RefundStatusPaymentRefundError, failure.Refund.Status)
	assert.Contains(t, failure.Message, "unknown payment processor")
}

func TestActionHandlersCoverEveryAction(t *testing.T) {
	for _, action := range []model.Action{model.ActionApprove, model.ActionApprovePaymentOnly, model.ActionDeny} {
		assert.NotNil(t, actionHandlers[action], string(action))
	}
	assert.Len(t, actionHandlers, 3)
}
