package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refund returns money and revokes fulfillment for lines of one order.
type Refund struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	OrderNumber        string
	UserID             uuid.UUID
	Status             string
	TotalCreditExclTax decimal.Decimal
	Currency           string
	CreditReference    *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Lines              []*RefundLine
}

// RefundLine marks one order line as refunded.
type RefundLine struct {
	ID                uuid.UUID
	RefundID          uuid.UUID
	OrderLineID       uuid.UUID
	CourseID          *string // copied from the order line when loaded, not stored
	Quantity          int
	LineCreditExclTax decimal.Decimal
	Status            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ActionResult is the outcome of running an action against a refund.
type ActionResult struct {
	Success bool
	Reason  string
}

func Succeeded() ActionResult {
	return ActionResult{Success: true}
}

func Failed(reason string) ActionResult {
	return ActionResult{Success: false, Reason: reason}
}
