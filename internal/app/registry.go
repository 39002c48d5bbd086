package app

import (
	"net/http"
	"time"

	"github.com/himanshukumarraut/Leave-It/internal/auth"
	"github.com/himanshukumarraut/Leave-It/internal/employee"
	"github.com/himanshukumarraut/Leave-It/internal/leave"
	"github.com/himanshukumarraut/Leave-It/internal/messaging/kafka"
	"github.com/himanshukumarraut/Leave-It/internal/middleware"
	"github.com/himanshukumarraut/Leave-It/internal/rbac"
	"github.com/himanshukumarraut/Leave-It/internal/rbac/infra"
	"github.com/himanshukumarraut/Leave-It/internal/shared/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

func registerModules(router *gin.Engine, cfg *config.Config, deps Infra) error {
	router.Use(
		middleware.ContextLogger(zap.L().Named("http")),
		middleware.Timeout(cfg.RequestTimeout),
	)

	// --- Repositories ---
	employeeRepo := employee.NewRepository(deps.GormDB)
	leaveRepo := leave.NewRepository(deps.GormDB)

	var outboxRepo kafka.OutboxRepository
	if cfg.Kafka.OutboxEnabled {
		outboxRepo = kafka.NewOutboxRepository(deps.DB)
	}

	// --- Services ---
	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.AccessTTL)
	authService := auth.NewService(employeeRepo, tokens, auth.Options{
		BCryptCost:         cfg.Security.BCryptCost,
		DefaultEntitlement: cfg.Leave.DefaultEntitlement,
	})
	leaveService := leave.NewServiceWithOptions(deps.DB, leaveRepo, employeeRepo, leave.Options{
		Outbox:          outboxRepo,
		Redis:           deps.Redis,
		CacheTTL:        cfg.Redis.CacheTTL,
		StrictDateRange: cfg.Leave.StrictDateRange,
		LoadTimeout:     cfg.RequestTimeout,
	})

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.Security.CookieSecure)
	leaveHandler := leave.NewHandler(leaveService)

	leaveOpts := leave.RouteOptions{}
	if cfg.Security.AuthRequired {
		enforcer, err := infra.NewEnforcer()
		if err != nil {
			return err
		}
		leaveOpts.Auth = middleware.AuthMiddleware(tokens)
		leaveOpts.RBAC = rbac.NewService(enforcer)
	}
	if deps.Redis != nil {
		leaveOpts.Idempotency = middleware.Idempotency(deps.Redis, idempotencyTTL)
	}

	// --- Routes Registration ---
	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		auth.RegisterRoutes(api, authHandler)
		leave.RegisterRoutes(api, leaveHandler, leaveOpts)
	}

	return nil
}
