package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/domains/refund/model"
	"ecommerce-backend/internal/domains/refund/service"
	"ecommerce-backend/internal/shared/middleware"
	"ecommerce-backend/internal/shared/response"
)

const (
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgMalformedBody    = "Malformed request body."
	msgNotFound         = "Not found."
	msgInternalError    = "Internal server error"
)

type RefundHandler struct {
	refundService service.RefundService
}

func NewRefundHandler(refundService service.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// CreateRefunds - POST /api/v2/refunds/
// Body: {"course_id": "...", "username": "..."}; username defaults to the caller.
// 201 with the new refund ids, 200 with [] when nothing is refundable.
func (h *RefundHandler) CreateRefunds(c *gin.Context) {
	requester, ok := middleware.GetRequester(c)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	var req model.CreateRefundsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Detail(c, http.StatusBadRequest, msgMalformedBody)
		return
	}

	refunds, err := h.refundService.CreateRefunds(c.Request.Context(), requester, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	ids := make([]uuid.UUID, 0, len(refunds))
	for _, r := range refunds {
		ids = append(ids, r.ID)
	}

	if len(ids) == 0 {
		c.JSON(http.StatusOK, ids)
		return
	}
	c.JSON(http.StatusCreated, ids)
}

// GetRefund - GET /api/v2/refunds/:id/
func (h *RefundHandler) GetRefund(c *gin.Context) {
	requester, ok := middleware.GetRequester(c)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusNotFound, msgNotFound)
		return
	}

	refund, err := h.refundService.GetRefund(c.Request.Context(), requester, refundID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, refund)
}

// ProcessRefund - PUT /api/v2/refunds/:id/process/
// Body: {"action": "approve" | "approve_payment_only" | "deny"}. Staff only.
func (h *RefundHandler) ProcessRefund(c *gin.Context) {
	requester, ok := middleware.GetRequester(c)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusNotFound, msgNotFound)
		return
	}

	var req model.ProcessRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Detail(c, http.StatusBadRequest, msgMalformedBody)
		return
	}

	refund, err := h.refundService.ProcessRefund(c.Request.Context(), requester, refundID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, refund)
}

// handleError maps service errors onto the refund API responses.
func (h *RefundHandler) handleError(c *gin.Context, err error) {
	var refundErr *model.RefundError
	if !errors.As(err, &refundErr) {
		log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("Refund request failed")
		response.Detail(c, http.StatusInternalServerError, msgInternalError)
		return
	}

	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrInvalidAction):
		response.Detail(c, http.StatusBadRequest, refundErr.Message)
	case errors.Is(err, model.ErrForbidden):
		response.Detail(c, http.StatusForbidden, refundErr.Message)
	case errors.Is(err, model.ErrRefundNotFound):
		response.Detail(c, http.StatusNotFound, refundErr.Message)
	case errors.Is(err, model.ErrLineAlreadyRefunded):
		response.Detail(c, http.StatusConflict, refundErr.Message)
	case errors.Is(err, model.ErrActionFailed):
		log.Warn().Str("code", refundErr.Code).Msg(refundErr.Message)
		c.JSON(http.StatusInternalServerError, refundErr.Refund)
	default:
		log.Error().Err(err).Msg("Unmapped refund error")
		response.Detail(c, http.StatusInternalServerError, msgInternalError)
	}
}
