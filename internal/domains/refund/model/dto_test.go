package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRefundsRequest_Validate(t *testing.T) {
	for _, courseID := range []string{"", "   "} {
		req := CreateRefundsRequest{Username: "alice", CourseID: courseID}
		err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, "No course_id specified.", err.Error())
	}

	req := CreateRefundsRequest{Username: " alice ", CourseID: " edX/DemoX/Demo_Course "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "edX/DemoX/Demo_Course", req.CourseID)

	noUser := CreateRefundsRequest{CourseID: "edX/DemoX/Demo_Course"}
	assert.NoError(t, noUser.Validate())
}

func TestProcessRefundRequest_ParseAction(t *testing.T) {
	for _, token := range []string{"approve", "approve_payment_only", "deny"} {
		action, ok := ProcessRefundRequest{Action: token}.ParseAction()
		assert.True(t, ok, token)
		assert.Equal(t, Action(token), action)
	}

	for _, token := range []string{"", "reject", "APPROVE", "approve deny"} {
		_, ok := ProcessRefundRequest{Action: token}.ParseAction()
		assert.False(t, ok, token)
	}
}

func TestRefund_ToResponse(t *testing.T) {
	r := refundWithLines(RefundStatusOpen, RefundLineStatusOpen)
	r.TotalCreditExclTax = decimal.RequireFromString("49.9")
	r.Lines[0].LineCreditExclTax = decimal.RequireFromString("49.9")

	resp := r.ToResponse()

	assert.Equal(t, r.ID, resp.ID)
	assert.Equal(t, "49.90", resp.TotalCreditExclTax)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "49.90", resp.Lines[0].LineCreditExclTax)
	assert.Nil(t, resp.CreditReference)
}

func TestRefundError_Unwrap(t *testing.T) {
	err := error(NewUserNotFoundError("fakey-userson"))

	assert.True(t, errors.Is(err, ErrUserNotFound))
	var refundErr *RefundError
	require.True(t, errors.As(err, &refundErr))
	assert.Equal(t, `User "fakey-userson" does not exist.`, refundErr.Message)
	assert.Equal(t, ErrCodeUserNotFound, refundErr.Code)

	dup := NewLineAlreadyRefundedError(errors.New("duplicate key"))
	assert.ErrorIs(t, dup, ErrLineAlreadyRefunded)
}
