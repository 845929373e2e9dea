package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents order status
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "Pending"
	OrderStatusOpen             OrderStatus = "Open"
	OrderStatusComplete         OrderStatus = "Complete"
	OrderStatusFulfillmentError OrderStatus = "Fulfillment Error"
)

// LineStatus represents fulfillment status of an order line
type LineStatus string

const (
	LineStatusOpen             LineStatus = "Open"
	LineStatusComplete         LineStatus = "Complete"
	LineStatusFulfillmentError LineStatus = "Fulfillment Error"
)

// Order is a placed order. Orders are read-only here; they are written by checkout.
type Order struct {
	ID               uuid.UUID       `json:"id"`
	Number           string          `json:"number"`
	UserID           uuid.UUID       `json:"user_id"`
	SiteID           int             `json:"site_id"`
	Status           OrderStatus     `json:"status"`
	Currency         string          `json:"currency"`
	TotalExclTax     decimal.Decimal `json:"total_excl_tax"`
	PaymentProcessor string          `json:"payment_processor"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	DatePlaced       time.Time       `json:"date_placed"`
	Lines            []*Line         `json:"lines"`
}

type Line struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          uuid.UUID       `json:"order_id"`
	ProductTitle     string          `json:"product_title"`
	CourseID         *string         `json:"course_id,omitempty"`
	Quantity         int             `json:"quantity"`
	LinePriceExclTax decimal.Decimal `json:"line_price_excl_tax"`
	Status           LineStatus      `json:"status"`
}

// IsPaid reports whether payment was captured for the order.
func (o *Order) IsPaid() bool {
	return o.Status != OrderStatusPending
}

// IsFulfilled reports whether the line's product was delivered.
func (l *Line) IsFulfilled() bool {
	return l.Status == LineStatusComplete
}

// IsCourseRelated reports whether the line grants access to a course.
func (l *Line) IsCourseRelated() bool {
	return l.CourseID != nil && *l.CourseID != ""
}

// IsForCourse reports whether the line grants access to courseID.
func (l *Line) IsForCourse(courseID string) bool {
	return l.IsCourseRelated() && *l.CourseID == courseID
}
