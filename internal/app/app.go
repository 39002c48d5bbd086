package app

import (
	"context"
	"database/sql"

	"github.com/himanshukumarraut/Leave-It/internal/shared/config"
	"github.com/himanshukumarraut/Leave-It/internal/shared/connection"
	"github.com/himanshukumarraut/Leave-It/internal/shared/migration"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra groups the connections shared by every module.
type Infra struct {
	DB     *sql.DB
	GormDB *gorm.DB
	Redis  *redis.Client
}

func (i Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
}

// BuildApp opens the store connections, applies migrations when configured
// and registers every API route on router.
func BuildApp(cfg *config.Config, router *gin.Engine) (Infra, error) {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return Infra{}, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return Infra{}, err
	}
	logger.Info("database connection established")

	infra := Infra{DB: sqlDB, GormDB: gormDB}

	if cfg.Database.MigrateOnStart {
		if err := migration.Up(context.Background(), sqlDB); err != nil {
			infra.Close()
			return Infra{}, err
		}
		logger.Info("migrations applied")
	}

	if cfg.Redis.Addr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.Redis, cfg.Database.MaxRetries)
		if err != nil {
			infra.Close()
			return Infra{}, err
		}
		infra.Redis = rdb
		logger.Info("redis connection established")
	} else {
		logger.Warn("REDIS_ADDR not set, caching and idempotency disabled")
	}

	if err := registerModules(router, cfg, infra); err != nil {
		infra.Close()
		return Infra{}, err
	}
	return infra, nil
}
