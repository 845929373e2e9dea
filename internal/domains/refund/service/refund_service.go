package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/domains/fulfillment"
	orderrepo "ecommerce-backend/internal/domains/order/repository"
	"ecommerce-backend/internal/domains/refund/model"
	"ecommerce-backend/internal/domains/refund/repository"
	usermodel "ecommerce-backend/internal/domains/user/model"
	userrepo "ecommerce-backend/internal/domains/user/repository"
	"ecommerce-backend/internal/shared"
	"ecommerce-backend/pkg/logger"
)

const msgPermissionDenied = "You do not have permission to perform this action."

// =====================================================
// REFUND SERVICE IMPLEMENTATION
// =====================================================
type refundService struct {
	refundRepo repository.RefundRepository
	txManager  repository.TransactionManager
	orderRepo  orderrepo.Repository
	userRepo   userrepo.Repository

	issuers  CreditIssuers
	revoker  fulfillment.Revoker
	enqueuer TaskEnqueuer

	now func() time.Time
}

func NewRefundService(
	refundRepo repository.RefundRepository,
	txManager repository.TransactionManager,
	orderRepo orderrepo.Repository,
	userRepo userrepo.Repository,
	issuers CreditIssuers,
	revoker fulfillment.Revoker,
	enqueuer TaskEnqueuer,
) RefundService {
	return &refundService{
		refundRepo: refundRepo,
		txManager:  txManager,
		orderRepo:  orderRepo,
		userRepo:   userRepo,
		issuers:    issuers,
		revoker:    revoker,
		enqueuer:   enqueuer,
		now:        time.Now,
	}
}

// =====================================================
// CREATE REFUNDS
// =====================================================

// CreateRefunds
//
// Business Logic:
// 1. course_id is required
// 2. username defaults to the caller
// 3. only the named user or staff may scan
// 4. the named user must exist
// 5. lines of paid orders for the course, fulfilled and not covered by an
// active refund line, are grouped into one refund per order
// 6. all refunds are written in one transaction
func (s *refundService) CreateRefunds(
	ctx context.Context,
	requester shared.Requester,
	req model.CreateRefundsRequest,
) ([]*model.Refund, error) {
	// Step 1: Validate request
	if err := req.Validate(); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	// Step 2: Resolve target user
	username := req.Username
	if username == "" {
		username = requester.Username
	}

	// Step 3: Authorize before looking anything up
	if username != requester.Username && !requester.IsStaff {
		return nil, model.NewForbiddenError(msgPermissionDenied)
	}

	// Step 4: Load user
	u, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, usermodel.ErrUserNotFound) {
			return nil, model.NewUserNotFoundError(username)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Step 5: Load orders and the lines already refunded
	orders, err := s.orderRepo.ListByUserWithLines(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	courseLineIDs := make([]uuid.UUID, 0)
	for _, order := range orders {
		for _, line := range order.Lines {
			if line.IsForCourse(req.CourseID) {
				courseLineIDs = append(courseLineIDs, line.ID)
			}
		}
	}
	if len(courseLineIDs) == 0 {
		return []*model.Refund{}, nil
	}

	refunded, err := s.refundRepo.ActiveRefundedLineIDs(ctx, courseLineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load refunded lines: %w", err)
	}

	// Step 6: Build and persist
	refunds := model.BuildRefunds(u.ID, req.CourseID, orders, refunded, s.now())
	if len(refunds) == 0 {
		return refunds, nil
	}

	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		for _, refund := range refunds {
			if err := s.refundRepo.CreateWithTx(ctx, tx, refund); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var refundErr *model.RefundError
		if errors.As(err, &refundErr) {
			return nil, refundErr
		}
		return nil, fmt.Errorf("failed to create refunds: %w", err)
	}

	for _, refund := range refunds {
		log.Info().
			Str("refund_id", refund.ID.String()).
			Str("order_number", refund.OrderNumber).
			Str("user", username).
			Str("course_id", req.CourseID).
			Int("lines", len(refund.Lines)).
			Str("total", refund.TotalCreditExclTax.StringFixed(2)).
			Str("requested_by", requester.Username).
			Msg("Refund created")
	}

	return refunds, nil
}

// =====================================================
// GET REFUND
// =====================================================

func (s *refundService) GetRefund(
	ctx context.Context,
	requester shared.Requester,
	refundID uuid.UUID,
) (*model.RefundResponse, error) {
	refund, err := s.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if !requester.IsStaff && refund.UserID.String() != requester.UserID {
		return nil, model.NewForbiddenError(msgPermissionDenied)
	}

	return refund.ToResponse(), nil
}

// =====================================================
// NOTIFICATIONS
// =====================================================

// enqueueNotification is best effort: the refund is already committed.
func (s *refundService) enqueueNotification(ctx context.Context, refund *model.Refund) {
	if s.enqueuer == nil {
		return
	}

	payload, err := json.Marshal(shared.RefundNotifyPayload{
		RefundID: refund.ID.String(),
		Status:   refund.Status,
	})
	if err != nil {
		logger.Error("Failed to encode refund notification", err)
		return
	}

	task := asynq.NewTask(shared.TypeRefundNotify, payload)
	if _, err := s.enqueuer.EnqueueContext(ctx, task, asynq.Queue(shared.QueueRefunds), asynq.MaxRetry(3)); err != nil {
		logger.Error("Failed to enqueue refund notification", err)
	}
}
