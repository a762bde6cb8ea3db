package app

import (
	"database/sql"

	"go-timeclock/internal/config"
	"go-timeclock/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const connectRetries = 5

// BuildApp connects the infrastructure and registers every HTTP module on router.
// The returned func closes the connections.
func BuildApp(router *gin.Engine, cfg *config.AppConfig) (func(), error) {
	logger := zap.L().Named("app.api")

	gormDB, db, err := connectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("redis connection established")
	} else {
		logger.Warn("REDIS_ADDR not set, idempotency keys disabled")
	}

	m := buildModules(cfg, db, gormDB, rdb, zap.L())
	registerRoutes(router, m, rdb, zap.L())

	return func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = db.Close()
	}, nil
}

func connectDatabase(cfg *config.AppConfig) (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Postgres, connectRetries)
	if err != nil {
		return nil, nil, err
	}
	db, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, db, nil
}
