package main

import (
	"context"

	"quiz-review/internal/adapter"
	"quiz-review/internal/cache"
	"quiz-review/internal/config"
	"quiz-review/internal/database"
	"quiz-review/internal/domain"
	"quiz-review/internal/logger"
	"quiz-review/internal/repository"
	"quiz-review/internal/selection"
	"quiz-review/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type dependencies struct {
	Service service.QuizService

	db    *sqlx.DB
	redis *redis.Client
}

func (d *dependencies) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			logger.Get().Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			logger.Get().Warn("Failed to close attempt store", zap.Error(err))
		}
	}
}

func wire(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	appLogger := logger.Get()
	deps := &dependencies{}

	db, err := database.NewSQLXSQLiteDB(cfg.Store.Path, cfg.Store.BusyTimeoutMs)
	if err != nil {
		return nil, domain.NewStorageError("open", err)
	}
	deps.db = db

	if err := database.RunMigrations(db.DB); err != nil {
		deps.Close()
		return nil, domain.NewStorageError("migrate", err)
	}

	// the bank snapshot cache is optional; without Redis every load validates
	var bankCache service.BankCacheService
	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Warn("Redis unavailable, bank snapshot cache disabled", zap.Error(err))
		} else {
			deps.redis = client
			bankCache = service.NewBankCacheService(adapter.NewRedisCacheAdapter(client), cfg.Redis)
			appLogger.Info("Bank snapshot cache enabled", zap.String("address", cfg.Redis.Address))
		}
	}

	svc, err := service.NewQuizService(
		repository.NewSQLXAttemptRepository(db),
		selection.NewSelector(nil),
		bankCache,
		cfg,
	)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Service = svc
	return deps, nil
}
