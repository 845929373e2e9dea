package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecommerce-backend/internal/infrastructure/database"
	"ecommerce-backend/internal/shared/middleware"
	"ecommerce-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	v2 := router.Group("/api/v2")
	{
		v2.GET("/health", healthCheckHandler(c.DB, c.Cache, c.Config.App.Version))

		setupAuthRoutes(v2, c)
		setupRefundRoutes(v2, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v2 *gin.RouterGroup, c *container.Container) {
	auth := v2.Group("/auth")
	{
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/logout", c.UserHandler.Logout)
	}
}

// ========================================
// REFUND ROUTES
// ========================================
func setupRefundRoutes(v2 *gin.RouterGroup, c *container.Container) {
	refunds := v2.Group("/refunds")
	refunds.Use(middleware.AuthMiddleware(c.JWTManager, c.Sessions, c.UserService))
	{
		refunds.POST("/", c.RefundHandler.CreateRefunds)
		refunds.GET("/:id/", c.RefundHandler.GetRefund)
		refunds.PUT("/:id/process/", c.RefundHandler.ProcessRefund)
	}
}

// ========================================
// HEALTH CHECK
// ========================================

type healthChecker interface {
	HealthCheck(ctx context.Context) error
	Stats() (*database.PoolStats, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthCheckHandler reports 503 only when the database is down; Redis
// degradation is reported but does not stop refunds from being processed.
func healthCheckHandler(db healthChecker, cache pinger, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   version,
		}

		// Check database
		dbStatus := "ok"
		{
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := db.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			} else if stats, err := db.Stats(); err == nil {
				health["pool"] = stats
			}
		}

		// Check redis
		redisStatus := "ok"
		{
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
