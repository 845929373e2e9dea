package main

import (
	"github.com/hibiken/asynq"

	refundJob "ecommerce-backend/internal/domains/refund/job"
	"ecommerce-backend/internal/shared"
	"ecommerce-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	refundNotify *refundJob.RefundNotifyHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		refundNotify: c.RefundNotifyHandler,
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeRefundNotify, h.refundNotify.ProcessTask)
}
