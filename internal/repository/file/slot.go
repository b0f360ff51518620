package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"taskflow/internal/filelock"
	"taskflow/internal/logger"
	repo "taskflow/internal/repository"

	"go.uber.org/zap"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// Storage хранит каждый слот в файле <dir>/<key>.json.
// Запись идёт во временный файл с последующим rename под advisory-локом,
// поэтому читатель никогда не видит наполовину записанный файл.
type Storage struct {
	dir string
}

func New(dir string) (*Storage, error) {
	if dir == "" {
		return nil, errors.New("не задан каталог хранилища")
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		logger.Error("Repository: Не удалось создать каталог хранилища", err, zap.String("dir", dir))
		return nil, fmt.Errorf("создание каталога %s: %w", dir, err)
	}

	logger.Info("Repository: Файловое хранилище готово", zap.String("dir", dir))
	return &Storage{dir: dir}, nil
}

func (s *Storage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("проверка каталога: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s не является каталогом", s.dir)
	}
	return nil
}

func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repo.ErrSlotEmpty
		}
		return nil, fmt.Errorf("чтение слота %s: %w", key, err)
	}
	return data, nil
}

func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	target := s.path(key)

	unlock, err := filelock.Lock(ctx, target+".lock")
	if err != nil {
		logger.Error("Repository: Не удалось захватить блокировку", err, zap.String("slot", key))
		return fmt.Errorf("блокировка слота %s: %w", key, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			logger.Warn("Repository: Ошибка снятия блокировки", zap.String("slot", key), zap.Error(err))
		}
	}()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("создание временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // после rename файла уже нет

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("запись слота %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync слота %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("закрытие временного файла: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("права на файл слота: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		logger.Error("Repository: Не удалось заменить файл слота", err, zap.String("slot", key))
		return fmt.Errorf("замена файла слота %s: %w", key, err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная запись", zap.String("slot", key), zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Close() error {
	return nil
}
