package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/domains/refund/model"
	usermodel "ecommerce-backend/internal/domains/user/model"
	"ecommerce-backend/internal/infrastructure/email"
	"ecommerce-backend/internal/shared"
	"ecommerce-backend/internal/shared/utils"
)

type RefundReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Refund, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*usermodel.User, error)
}

// RefundNotifyHandler emails the refund owner once a refund is closed.
type RefundNotifyHandler struct {
	emailService email.EmailService
	refundRepo   RefundReader
	userRepo     UserReader
}

func NewRefundNotifyHandler(
	emailService email.EmailService,
	refundRepo RefundReader,
	userRepo UserReader,
) *RefundNotifyHandler {
	return &RefundNotifyHandler{
		emailService: emailService,
		refundRepo:   refundRepo,
		userRepo:     userRepo,
	}
}

func (h *RefundNotifyHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.RefundNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal RefundNotify payload")
		return fmt.Errorf("unmarshal payload: %w", asynq.SkipRetry)
	}

	refundID := utils.ParseStringToUUID(payload.RefundID)
	if refundID == uuid.Nil {
		log.Error().Str("refund_id", payload.RefundID).Msg("Invalid refund id in RefundNotify payload")
		return fmt.Errorf("parse refund id: %w", asynq.SkipRetry)
	}

	refund, err := h.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		if errors.Is(err, model.ErrRefundNotFound) {
			log.Warn().Str("refund_id", payload.RefundID).Msg("Refund vanished before notification")
			return fmt.Errorf("get refund: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("get refund: %w", err)
	}

	// The status may have moved on since the task was queued; only closed refunds are announced.
	if !refund.IsComplete() && !refund.IsDenied() {
		log.Info().
			Str("refund_id", payload.RefundID).
			Str("status", refund.Status).
			Msg("Refund not closed, skipping notification")
		return nil
	}

	user, err := h.userRepo.FindByID(ctx, refund.UserID)
	if err != nil {
		if errors.Is(err, usermodel.ErrUserNotFound) {
			return fmt.Errorf("get user: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.Email == "" {
		log.Warn().Str("user_id", user.ID.String()).Msg("User has no email, skipping refund notification")
		return nil
	}

	if err := h.emailService.SendRefundNotification(ctx, email.RefundNotificationData{
		Email:       user.Email,
		Username:    user.Username,
		RefundID:    refund.ID.String(),
		OrderNumber: refund.OrderNumber,
		Status:      refund.Status,
		Amount:      refund.TotalCreditExclTax.StringFixed(2),
		Currency:    refund.Currency,
	}); err != nil {
		log.Error().Err(err).Str("refund_id", payload.RefundID).Msg("Failed to send refund notification")
		return fmt.Errorf("send email: %w", err)
	}

	log.Info().
		Str("refund_id", payload.RefundID).
		Str("status", refund.Status).
		Msg("Refund notification sent")
	return nil
}
