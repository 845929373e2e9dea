package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"

	"ecommerce-backend/internal/domains/payment/gateway"
)

const ProcessorName = "stripe"

// Stripe amounts are integers in the currency's smallest unit.
// https://docs.stripe.com/currencies#zero-decimal
var (
	zeroDecimal = map[string]bool{
		"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
		"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
		"VUV": true, "XAF": true, "XOF": true, "XPF": true,
	}
	threeDecimal = map[string]bool{"BHD": true, "JOD": true, "KWD": true, "OMR": true, "TND": true}
)

// minorUnits converts a major-unit amount to the integer Stripe expects.
// Three-decimal currencies must still be a multiple of ten.
func minorUnits(amount decimal.Decimal, currency string) int64 {
	switch code := strings.ToUpper(currency); {
	case zeroDecimal[code]:
		return amount.Round(0).IntPart()
	case threeDecimal[code]:
		return amount.Round(2).Shift(3).IntPart()
	default:
		return amount.Shift(2).Round(0).IntPart()
	}
}

// IdempotencyKey is stable per refund. Stripe answers a repeated key with
// the refund it created the first time.
func IdempotencyKey(req gateway.CreditRequest) string {
	return "refund-" + req.RefundID.String()
}

// Client issues credits as Stripe refunds against the order's PaymentIntent.
type Client struct{}

// NewClient configures the global Stripe key, as the stripe-go resource packages expect.
func NewClient(secretKey string) *Client {
	stripe.Key = secretKey
	return &Client{}
}

func (c *Client) IssueCredit(ctx context.Context, req gateway.CreditRequest) (*gateway.CreditResult, error) {
	if req.PaymentReference == "" {
		return nil, gateway.ErrMissingPaymentRef
	}
	if !req.Amount.IsPositive() {
		return nil, gateway.ErrInvalidCreditAmount
	}

	amount := minorUnits(req.Amount, req.Currency)
	if amount <= 0 {
		return nil, gateway.ErrInvalidCreditAmount
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentReference),
		Amount:        stripe.Int64(amount),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(IdempotencyKey(req))
	params.AddMetadata("refund_id", req.RefundID.String())
	params.AddMetadata("order_number", req.OrderNumber)

	r, err := refund.New(params)
	if err != nil {
		log.Error().Err(err).
			Str("refund_id", req.RefundID.String()).
			Str("payment_intent", req.PaymentReference).
			Msg("[STRIPE] Refund failed")
		return nil, fmt.Errorf("%w: %v", gateway.ErrCreditRejected, err)
	}

	log.Info().
		Str("refund_id", req.RefundID.String()).
		Str("stripe_refund_id", r.ID).
		Int64("amount", amount).
		Str("currency", req.Currency).
		Str("status", string(r.Status)).
		Msg("[STRIPE] Refund created")

	return &gateway.CreditResult{Reference: r.ID, Status: string(r.Status)}, nil
}
