package main

import (
	"log"

	"github.com/himanshukumarraut/Leave-It/internal/bootstrap"
	"github.com/himanshukumarraut/Leave-It/internal/middleware"
	"github.com/himanshukumarraut/Leave-It/internal/shared/config"
	"github.com/himanshukumarraut/Leave-It/internal/shared/connection"
	"github.com/himanshukumarraut/Leave-It/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.IsProduction())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	rdb, err := connection.ConnectRedisWithRetry(cfg.Redis, 5)
	if err != nil {
		logger.Fatal("web client needs redis for sessions", zap.Error(err))
	}
	defer rdb.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.ContextLogger(zap.L().Named("web")))

	handler := web.NewHandler(
		web.NewAPIClient(cfg.APIBaseURL, cfg.RequestTimeout),
		web.NewSessionStore(rdb, cfg.Security.SessionTTL, cfg.Security.CookieSecure),
	)
	if err := web.RegisterRoutes(r, handler); err != nil {
		logger.Fatal("load templates failed", zap.Error(err))
	}

	logger.Info("web client using api", zap.String("base_url", cfg.APIBaseURL))
	if err := bootstrap.StartHTTPServer(r, bootstrap.DefaultServerConfig(cfg.WebPort)); err != nil {
		logger.Error("http server stopped", zap.Error(err))
	}
}
