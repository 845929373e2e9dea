package model

// Status predicates and mutators used by the refund processor.
// Only the processor changes a refund's status, always inside the transaction
// holding the refund's row lock.

// AwaitingCredit reports whether credit still has to be issued.
func (r *Refund) AwaitingCredit() bool {
	return r.Status == RefundStatusOpen || r.Status == RefundStatusPaymentRefundError
}

// CreditIssued reports whether money went back but revocation did not finish.
func (r *Refund) CreditIssued() bool {
	return r.Status == RefundStatusPaymentRefunded || r.Status == RefundStatusRevocationError
}

func (r *Refund) IsComplete() bool {
	return r.Status == RefundStatusComplete
}

func (r *Refund) IsDenied() bool {
	return r.Status == RefundStatusDenied
}

// MarkCreditIssued records a successful credit. reference may be nil when
// nothing was sent to the processor.
func (r *Refund) MarkCreditIssued(reference *string) {
	r.Status = RefundStatusPaymentRefunded
	if reference != nil {
		r.CreditReference = reference
	}
}

func (r *Refund) MarkCreditFailed() {
	r.Status = RefundStatusPaymentRefundError
}

// LinesToRevoke returns the lines whose fulfillment has not been revoked yet.
func (r *Refund) LinesToRevoke() []*RefundLine {
	pending := make([]*RefundLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		if line.Status == RefundLineStatusOpen || line.Status == RefundLineStatusRevocationError {
			pending = append(pending, line)
		}
	}
	return pending
}

func (r *Refund) MarkLineRevoked(line *RefundLine) {
	line.Status = RefundLineStatusComplete
}

func (r *Refund) MarkLineRevocationFailed(line *RefundLine) {
	line.Status = RefundLineStatusRevocationError
	r.Status = RefundStatusRevocationError
}

// Complete closes the refund. Line statuses are left alone: a line is
// Complete only once its fulfillment was revoked, so lines skipped by a
// payment-only approval keep Open or Revocation Error.
func (r *Refund) Complete() {
	r.Status = RefundStatusComplete
}

// Deny rejects the refund and every line, releasing the lines for a future refund.
func (r *Refund) Deny() {
	for _, line := range r.Lines {
		line.Status = RefundLineStatusDenied
	}
	r.Status = RefundStatusDenied
}
