package repository

import (
	"context"
	"errors"
)

// ErrSlotEmpty - в слоте ещё ничего не сохранено
var ErrSlotEmpty = errors.New("слот хранилища пуст")

// Slot - именованная ячейка, в которой целиком лежит сериализованная коллекция.
// Save заменяет содержимое атомарно: читатель видит либо старую, либо новую версию.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	HealthCheck(ctx context.Context) error
	Close() error
}
