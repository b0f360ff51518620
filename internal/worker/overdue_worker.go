package worker

import (
	"context"
	"time"

	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	"taskflow/internal/stats"

	"go.uber.org/zap"
)

type TaskLister interface {
	ListActive(ctx context.Context) []*task.Task
}

// OverdueWorker периодически пишет в лог просроченные задачи.
// Задачи не меняет: просрочка вычисляется, а не хранится.
type OverdueWorker struct {
	tasks     TaskLister
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewOverdueWorker(tasks TaskLister, interval *time.Duration, batchSize *int) *OverdueWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = 5 * time.Minute
	} else {
		intervalToSet = *interval
	}

	var batchToSet int
	if batchSize == nil || *batchSize <= 0 {
		batchToSet = 100
	} else {
		batchToSet = *batchSize
	}
	return &OverdueWorker{
		tasks:     tasks,
		interval:  intervalToSet,
		batchSize: batchToSet,
		now:       time.Now,
	}
}

// Start блокируется до отмены ctx
func (w *OverdueWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая проверка запущена", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return nil
		}
	}
}

// Check возвращает число просроченных задач; в лог попадает не больше batchSize id
func (w *OverdueWorker) Check(ctx context.Context) int {
	start := time.Now()

	active := w.tasks.ListActive(ctx)
	overdue := stats.SortByCreatedDesc(stats.FilterOverdue(active, w.now()))

	ids := make([]string, 0, min(len(overdue), w.batchSize))
	for _, t := range overdue {
		if len(ids) >= w.batchSize {
			break
		}
		ids = append(ids, t.ID)
	}

	level := zap.InfoLevel
	if len(overdue) > 0 {
		level = zap.WarnLevel
	}
	logger.Log(level,
		"Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(active)),
		zap.Int("overdue", len(overdue)),
		zap.Strings("overdue_ids", ids),
	)
	return len(overdue)
}
