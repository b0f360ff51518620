package app

import (
	"context"
	"fmt"

	"taskflow/internal/config"
	"taskflow/internal/logger"
	repo "taskflow/internal/repository"
	"taskflow/internal/repository/file"
	"taskflow/internal/repository/inmemory"
	"taskflow/internal/repository/postgres"
	"taskflow/internal/repository/redis"

	"go.uber.org/zap"
)

// OpenSlot создаёт хранилище слота по storage.type
func OpenSlot(ctx context.Context, cfg *config.Config) (repo.Slot, error) {
	logger.Info("App: Открытие хранилища", zap.String("type", cfg.Storage.Type))

	switch cfg.Storage.Type {
	case config.StorageMemory:
		return inmemory.NewSlotStorage(), nil

	case config.StorageFile:
		slot, err := file.New(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("файловое хранилище: %w", err)
		}
		return slot, nil

	case config.StoragePostgres:
		slot, err := postgres.New(ctx, cfg.Database.URL, postgres.PoolConfig{
			MaxConnections: cfg.Database.MaxConnections,
			MinConnections: cfg.Database.MinConnections,
			IdleTimeout:    cfg.Database.IdleTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if cfg.Database.Migrate {
			if err := slot.Migrate(ctx); err != nil {
				slot.Close()
				return nil, fmt.Errorf("postgres: %w", err)
			}
		}
		return slot, nil

	case config.StorageRedis:
		slot, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return slot, nil
	}

	return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Storage.Type)
}
