package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/domains/fulfillment/lms"
	orderRepo "ecommerce-backend/internal/domains/order/repository"
	"ecommerce-backend/internal/domains/payment/gateway"
	"ecommerce-backend/internal/domains/payment/gateway/mock"
	stripeGateway "ecommerce-backend/internal/domains/payment/gateway/stripe"
	refundHandler "ecommerce-backend/internal/domains/refund/handler"
	refundJob "ecommerce-backend/internal/domains/refund/job"
	refundRepo "ecommerce-backend/internal/domains/refund/repository"
	refundService "ecommerce-backend/internal/domains/refund/service"
	userHandler "ecommerce-backend/internal/domains/user/handler"
	userRepo "ecommerce-backend/internal/domains/user/repository"
	userService "ecommerce-backend/internal/domains/user/service"
	infraCache "ecommerce-backend/internal/infrastructure/cache"
	"ecommerce-backend/internal/infrastructure/database"
	"ecommerce-backend/internal/infrastructure/email"
	"ecommerce-backend/pkg/jwt"
	"ecommerce-backend/pkg/session"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph shared by cmd/api and cmd/worker.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config       *config.Config
	DB           *database.PostgresDB
	Cache        *infraCache.RedisCache
	AsynqClient  *asynq.Client
	JWTManager   *jwt.Manager
	Sessions     *session.Store
	EmailService email.EmailService

	// External systems
	CreditIssuers *gateway.Registry
	LMSClient     *lms.Client

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	UserRepo        userRepo.Repository
	OrderRepo       orderRepo.Repository
	RefundRepo      refundRepo.RefundRepository
	RefundTxManager refundRepo.TransactionManager

	// ========================================
	// SERVICE LAYER
	// ========================================
	UserService   userService.Service
	RefundService refundService.RefundService

	// ========================================
	// HANDLER LAYER
	// ========================================
	UserHandler         *userHandler.UserHandler
	RefundHandler       *refundHandler.RefundHandler
	RefundNotifyHandler *refundJob.RefundNotifyHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer builds the dependency graph in order:
// config, infrastructure, repositories, services, handlers.
func NewContainer() (*Container, error) {
	log.Info().Msg("Initializing DI container")

	c := &Container{}

	// STEP 1: CONFIGURATION
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("Config loaded")

	// STEP 2: INFRASTRUCTURE
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// STEP 3: REPOSITORIES
	c.initRepositories()

	// STEP 4: SERVICES
	c.initServices()

	// STEP 5: HANDLERS
	c.initHandlers()

	log.Info().Msg("DI container initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	// Database is required
	db := database.NewPostgresDB(cfg.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db

	// Redis failure is not fatal: the user cache degrades to direct lookups
	// and notifications are dropped with a log line.
	c.Cache = infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Cache.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis connection failed (non-critical)")
	}

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	c.Sessions = session.NewStore(cfg.Session.Secret, cfg.Session.Secure, cfg.Session.MaxAge)
	c.EmailService = email.NewSMTPEmailService(cfg.SMTP)

	// Payment processors that can issue credit
	c.CreditIssuers = gateway.NewRegistry()
	if cfg.Stripe.SecretKey != "" {
		c.CreditIssuers.Register(stripeGateway.ProcessorName, stripeGateway.NewClient(cfg.Stripe.SecretKey))
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, stripe refunds disabled")
	}
	if cfg.App.Environment != "production" {
		c.CreditIssuers.Register(mock.ProcessorName, mock.NewMockCreditIssuer())
	}

	c.LMSClient = lms.NewClient(cfg.LMS.URL, cfg.LMS.APIKey, cfg.LMS.Timeout)

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool, c.Cache, c.Config.Redis.UserCacheTTL)
	c.OrderRepo = orderRepo.NewOrderRepository(pool)
	c.RefundRepo = refundRepo.NewRefundRepository(pool)
	c.RefundTxManager = refundRepo.NewPostgresTransactionManager(pool)
}

func (c *Container) initServices() {
	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager)

	c.RefundService = refundService.NewRefundService(
		c.RefundRepo,
		c.RefundTxManager,
		c.OrderRepo,
		c.UserRepo,
		c.CreditIssuers,
		c.LMSClient,
		c.AsynqClient,
	)
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService, c.Sessions)
	c.RefundHandler = refundHandler.NewRefundHandler(c.RefundService)
	c.RefundNotifyHandler = refundJob.NewRefundNotifyHandler(c.EmailService, c.RefundRepo, c.UserRepo)
}

// ========================================
// HELPER METHODS
// ========================================

// Cleanup releases connections; called on graceful shutdown.
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	log.Info().Msg("Container cleanup completed")
}
