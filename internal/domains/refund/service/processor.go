package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/domains/fulfillment"
	ordermodel "ecommerce-backend/internal/domains/order/model"
	"ecommerce-backend/internal/domains/payment/gateway"
	"ecommerce-backend/internal/domains/refund/model"
	usermodel "ecommerce-backend/internal/domains/user/model"
	"ecommerce-backend/internal/shared"
)

// processContext is what an action handler works on. The refund row is locked
// for the lifetime of the context.
type processContext struct {
	refund *model.Refund
	order  *ordermodel.Order
	owner  *usermodel.User
}

type actionHandler func(s *refundService, ctx context.Context, pc *processContext) model.ActionResult

var actionHandlers = map[model.Action]actionHandler{
	model.ActionApprove:            (*refundService).approve,
	model.ActionApprovePaymentOnly: (*refundService).approvePaymentOnly,
	model.ActionDeny:               (*refundService).deny,
}

// =====================================================
// PROCESS REFUND
// =====================================================

// ProcessRefund
//
// Business Logic:
// 1. staff only
// 2. action must be approve, approve_payment_only or deny
// 3. lock the refund, run the action, persist the outcome, commit
// 4. a failed action still commits the error state it reached and is
// reported together with the refund
// 5. a refund entering Complete or Denied triggers a notification
func (s *refundService) ProcessRefund(
	ctx context.Context,
	requester shared.Requester,
	refundID uuid.UUID,
	req model.ProcessRefundRequest,
) (*model.RefundResponse, error) {
	// Step 1: Authorize
	if !requester.IsStaff {
		return nil, model.NewForbiddenError(msgPermissionDenied)
	}

	// Step 2: Resolve action
	action, ok := req.ParseAction()
	if !ok {
		return nil, model.NewInvalidActionError(req.Action)
	}
	handle := actionHandlers[action]

	// Step 3: Run inside the refund's row lock
	var (
		refund   *model.Refund
		previous string
		result   model.ActionResult
	)
	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		refund, err = s.refundRepo.GetByIDForUpdate(ctx, tx, refundID)
		if err != nil {
			return err
		}
		previous = refund.Status

		pc, err := s.loadProcessContext(ctx, refund)
		if err != nil {
			return err
		}

		result = handle(s, ctx, pc)

		return s.refundRepo.SaveStatusWithTx(ctx, tx, refund)
	})
	if err != nil {
		var refundErr *model.RefundError
		if errors.As(err, &refundErr) {
			return nil, refundErr
		}
		return nil, fmt.Errorf("failed to process refund: %w", err)
	}

	log.Info().
		Str("refund_id", refund.ID.String()).
		Str("action", string(action)).
		Str("from", previous).
		Str("to", refund.Status).
		Bool("success", result.Success).
		Str("reason", result.Reason).
		Str("processed_by", requester.Username).
		Msg("Refund processed")

	// Step 4: Report failure with the committed state
	if !result.Success {
		return nil, model.NewActionFailureError(action, result.Reason, refund.ToResponse())
	}

	// Step 5: Notify after commit
	if refund.Status != previous && (refund.IsComplete() || refund.IsDenied()) {
		s.enqueueNotification(ctx, refund)
	}

	return refund.ToResponse(), nil
}

func (s *refundService) loadProcessContext(ctx context.Context, refund *model.Refund) (*processContext, error) {
	order, err := s.orderRepo.GetByID(ctx, refund.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", refund.OrderID, err)
	}

	owner, err := s.userRepo.FindByID(ctx, refund.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund owner %s: %w", refund.UserID, err)
	}

	return &processContext{refund: refund, order: order, owner: owner}, nil
}

// =====================================================
// ACTION HANDLERS
// =====================================================

func (s *refundService) approve(ctx context.Context, pc *processContext) model.ActionResult {
	refund := pc.refund
	switch {
	case refund.IsComplete():
		return model.Succeeded()
	case refund.IsDenied():
		return model.Failed("refund has been denied")
	}

	if refund.AwaitingCredit() {
		if res := s.issueCredit(ctx, pc); !res.Success {
			return res
		}
	}

	if res := s.revokeLines(ctx, pc); !res.Success {
		return res
	}

	refund.Complete()
	return model.Succeeded()
}

func (s *refundService) approvePaymentOnly(ctx context.Context, pc *processContext) model.ActionResult {
	refund := pc.refund
	switch {
	case refund.IsComplete():
		return model.Succeeded()
	case refund.IsDenied():
		return model.Failed("refund has been denied")
	}

	if refund.AwaitingCredit() {
		if res := s.issueCredit(ctx, pc); !res.Success {
			return res
		}
	}

	log.Info().Msgf("Skipping the revocation step for refund [%s].", refund.ID)

	refund.Complete()
	return model.Succeeded()
}

func (s *refundService) deny(_ context.Context, pc *processContext) model.ActionResult {
	refund := pc.refund
	switch {
	case refund.IsDenied():
		return model.Succeeded()
	case refund.IsComplete():
		return model.Failed("refund is already complete")
	case refund.CreditIssued():
		return model.Failed("credit has already been issued")
	}

	refund.Deny()
	return model.Succeeded()
}

// =====================================================
// SIDE EFFECTS
// =====================================================

// issueCredit returns the refund total to the original payment. Never called
// once credit went through, so a retry cannot pay twice.
func (s *refundService) issueCredit(ctx context.Context, pc *processContext) model.ActionResult {
	refund := pc.refund

	if !refund.TotalCreditExclTax.IsPositive() {
		refund.MarkCreditIssued(nil)
		return model.Succeeded()
	}

	issuer, err := s.issuers.Get(pc.order.PaymentProcessor)
	if err != nil {
		refund.MarkCreditFailed()
		return model.Failed(err.Error())
	}

	paymentRef := ""
	if pc.order.PaymentReference != nil {
		paymentRef = *pc.order.PaymentReference
	}

	res, err := issuer.IssueCredit(ctx, gateway.CreditRequest{
		RefundID:         refund.ID,
		OrderNumber:      pc.order.Number,
		PaymentReference: paymentRef,
		Amount:           refund.TotalCreditExclTax,
		Currency:         refund.Currency,
	})
	if err != nil {
		log.Error().Err(err).
			Str("refund_id", refund.ID.String()).
			Str("processor", pc.order.PaymentProcessor).
			Msg("Credit issuance failed")
		refund.MarkCreditFailed()
		return model.Failed(fmt.Sprintf("credit issuance failed: %v", err))
	}

	refund.MarkCreditIssued(&res.Reference)
	return model.Succeeded()
}

// revokeLines revokes every line not revoked yet. All lines are attempted even
// when one fails.
func (s *refundService) revokeLines(ctx context.Context, pc *processContext) model.ActionResult {
	refund := pc.refund
	pending := refund.LinesToRevoke()

	failed := 0
	for _, line := range pending {
		if line.CourseID == nil || *line.CourseID == "" {
			refund.MarkLineRevoked(line)
			continue
		}

		err := s.revoker.RevokeLine(ctx, fulfillment.RevocationRequest{
			RefundLineID: line.ID,
			OrderNumber:  pc.order.Number,
			Username:     pc.owner.Username,
			CourseID:     *line.CourseID,
		})
		if err != nil {
			log.Error().Err(err).
				Str("refund_id", refund.ID.String()).
				Str("refund_line_id", line.ID.String()).
				Msg("Fulfillment revocation failed")
			refund.MarkLineRevocationFailed(line)
			failed++
			continue
		}

		refund.MarkLineRevoked(line)
	}

	if failed > 0 {
		return model.Failed(fmt.Sprintf("failed to revoke %d of %d lines", failed, len(pending)))
	}
	return model.Succeeded()
}
