package inmemory

import (
	"context"
	"sync"

	"taskflow/internal/logger"
	repo "taskflow/internal/repository"
)

type SlotStorage struct {
	storage map[string][]byte
	mtx     *sync.RWMutex
}

func NewSlotStorage() *SlotStorage {
	return &SlotStorage{
		storage: make(map[string][]byte),
		mtx:     &sync.RWMutex{},
	}
}

func (s *SlotStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Хранилище в памяти доступно")
	return nil
}

func (s *SlotStorage) Load(ctx context.Context, key string) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	data, ok := s.storage[key]
	if !ok {
		return nil, repo.ErrSlotEmpty
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *SlotStorage) Save(ctx context.Context, key string, data []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.storage[key] = stored
	return nil
}

func (s *SlotStorage) Close() error {
	return nil
}
