// Package store selects and opens the configured page store backend.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harridge/fetchmill/internal/config"
	"github.com/harridge/fetchmill/internal/sched"
	"github.com/harridge/fetchmill/internal/store/memory"
	"github.com/harridge/fetchmill/internal/store/postgres"
	"github.com/harridge/fetchmill/internal/store/redis"
)

// Open builds the page store named by the configuration. Callers own the
// returned store and must Close it.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (sched.PageStore, error) {
	switch cfg.Provider {
	case "memory":
		logger.Info("using in-memory page store; records will not survive the process")
		return memory.New(), nil
	case "postgres":
		logger.Info("connecting to postgres page store")
		s, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case "redis":
		logger.Info("connecting to redis page store", zap.String("addr", cfg.Redis.Addr))
		s, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store provider: %s", cfg.Provider)
	}
}
