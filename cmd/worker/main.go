package main

import (
	"log"

	"github.com/himanshukumarraut/Leave-It/internal/app"
	"github.com/himanshukumarraut/Leave-It/internal/bootstrap"
	"github.com/himanshukumarraut/Leave-It/internal/shared/config"

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

	if err := app.RunWorker(cfg); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
}
