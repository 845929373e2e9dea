package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// =====================================================
// REQUEST DTOs
// =====================================================

type CreateRefundsRequest struct {
	Username string `json:"username"`
	CourseID string `json:"course_id"`
}

// Validate only checks course_id; a missing username defaults to the caller.
func (r *CreateRefundsRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.CourseID = strings.TrimSpace(r.CourseID)

	return validation.Validate(r.CourseID,
		validation.Required.Error("No course_id specified."),
	)
}

type ProcessRefundRequest struct {
	Action string `json:"action"`
}

// ParseAction maps the action token onto a known Action.
func (r ProcessRefundRequest) ParseAction() (Action, bool) {
	action := Action(strings.TrimSpace(r.Action))
	if _, ok := validActions[action]; !ok {
		return "", false
	}
	return action, true
}

var validActions = map[Action]struct{}{
	ActionApprove:            {},
	ActionApprovePaymentOnly: {},
	ActionDeny:               {},
}

// =====================================================
// RESPONSE DTOs
// =====================================================

type RefundLineResponse struct {
	ID                uuid.UUID `json:"id"`
	OrderLine         uuid.UUID `json:"order_line"`
	Quantity          int       `json:"quantity"`
	LineCreditExclTax string    `json:"line_credit_excl_tax"`
	Status            string    `json:"status"`
	Created           time.Time `json:"created"`
	Modified          time.Time `json:"modified"`
}

type RefundResponse struct {
	ID                 uuid.UUID            `json:"id"`
	Order              uuid.UUID            `json:"order"`
	OrderNumber        string               `json:"order_number"`
	User               uuid.UUID            `json:"user"`
	Status             string               `json:"status"`
	Currency           string               `json:"currency"`
	TotalCreditExclTax string               `json:"total_credit_excl_tax"`
	CreditReference    *string              `json:"credit_reference"`
	Lines              []RefundLineResponse `json:"lines"`
	Created            time.Time            `json:"created"`
	Modified           time.Time            `json:"modified"`
}

func (r *Refund) ToResponse() *RefundResponse {
	lines := make([]RefundLineResponse, 0, len(r.Lines))
	for _, line := range r.Lines {
		lines = append(lines, RefundLineResponse{
			ID:                line.ID,
			OrderLine:         line.OrderLineID,
			Quantity:          line.Quantity,
			LineCreditExclTax: line.LineCreditExclTax.StringFixed(2),
			Status:            line.Status,
			Created:           line.CreatedAt,
			Modified:          line.UpdatedAt,
		})
	}

	return &RefundResponse{
		ID:                 r.ID,
		Order:              r.OrderID,
		OrderNumber:        r.OrderNumber,
		User:               r.UserID,
		Status:             r.Status,
		Currency:           r.Currency,
		TotalCreditExclTax: r.TotalCreditExclTax.StringFixed(2),
		CreditReference:    r.CreditReference,
		Lines:              lines,
		Created:            r.CreatedAt,
		Modified:           r.UpdatedAt,
	}
}
