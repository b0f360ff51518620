package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskflow/internal/logger"
	repo "taskflow/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Storage держит слот в одном строковом ключе <prefix><key> без TTL
type Storage struct {
	client *redis.Client
	prefix string
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error("Repository: Redis недоступен", err, zap.String("addr", cfg.Addr))
		return nil, fmt.Errorf("подключение к Redis %s: %w", cfg.Addr, err)
	}

	logger.Info("Repository: Успешное подключение к Redis", zap.String("addr", cfg.Addr), zap.String("prefix", cfg.Prefix))
	return NewWithClient(client, cfg.Prefix), nil
}

func NewWithClient(client *redis.Client, prefix string) *Storage {
	return &Storage{client: client, prefix: prefix}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repo.ErrSlotEmpty
		}
		logger.Error("Repository: Не удалось прочитать слот", err, zap.String("slot", key))
		return nil, fmt.Errorf("чтение слота: %w", err)
	}
	return data, nil
}

func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	start := time.Now()

	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		logger.Error("Repository: Не удалось записать слот", err, zap.String("slot", key))
		return fmt.Errorf("запись слота: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}
