package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordermodel "ecommerce-backend/internal/domains/order/model"
)

// IsRefundable reports whether line may be refunded for courseID: the order is paid,
// the line is for the course and fulfilled, and no active refund line covers it.
func IsRefundable(order *ordermodel.Order, line *ordermodel.Line, courseID string, refunded map[uuid.UUID]struct{}) bool {
	if !order.IsPaid() || !line.IsForCourse(courseID) || !line.IsFulfilled() {
		return false
	}
	_, covered := refunded[line.ID]
	return !covered
}

// BuildRefunds groups the refundable lines of orders into one Open refund per order,
// preserving order and line ordering. refunded holds the order line ids already
// covered by an active refund line.
func BuildRefunds(
	userID uuid.UUID,
	courseID string,
	orders []*ordermodel.Order,
	refunded map[uuid.UUID]struct{},
	now time.Time,
) []*Refund {
	refunds := make([]*Refund, 0)

	for _, order := range orders {
		var refund *Refund

		for _, line := range order.Lines {
			if !IsRefundable(order, line, courseID, refunded) {
				continue
			}

			if refund == nil {
				refund = &Refund{
					ID:                 uuid.New(),
					OrderID:            order.ID,
					OrderNumber:        order.Number,
					UserID:             userID,
					Status:             RefundStatusOpen,
					TotalCreditExclTax: decimal.Zero,
					Currency:           order.Currency,
					CreatedAt:          now,
					UpdatedAt:          now,
				}
			}

			refund.Lines = append(refund.Lines, &RefundLine{
				ID:                uuid.New(),
				RefundID:          refund.ID,
				OrderLineID:       line.ID,
				CourseID:          line.CourseID,
				Quantity:          line.Quantity,
				LineCreditExclTax: line.LinePriceExclTax,
				Status:            RefundLineStatusOpen,
				CreatedAt:         now,
				UpdatedAt:         now,
			})
			refund.TotalCreditExclTax = refund.TotalCreditExclTax.Add(line.LinePriceExclTax)
		}

		if refund != nil {
			refunds = append(refunds, refund)
		}
	}

	return refunds
}
