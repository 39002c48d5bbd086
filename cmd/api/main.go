package main

import (
	"log"

	"github.com/himanshukumarraut/Leave-It/internal/app"
	"github.com/himanshukumarraut/Leave-It/internal/bootstrap"
	"github.com/himanshukumarraut/Leave-It/internal/shared/apperror"
	"github.com/himanshukumarraut/Leave-It/internal/shared/config"

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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	apperror.Init()
	r := gin.New()
	r.Use(gin.Recovery())

	infra, err := app.BuildApp(cfg, r)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}
	defer infra.Close()

	if err := bootstrap.StartHTTPServer(r, bootstrap.DefaultServerConfig(cfg.Port)); err != nil {
		logger.Error("http server stopped", zap.Error(err))
	}
}
