package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskflow/internal/ai"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	"taskflow/internal/stats"
	"taskflow/internal/store"

	"go.uber.org/zap"
)

// здесь ошибки стора и синтезатора превращаются в ошибки бизнес-логики

type TaskService struct {
	store TaskStore
	synth Synthesizer
	now   func() time.Time
}

type Option func(*TaskService)

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

func NewTaskService(store TaskStore, synth Synthesizer, opts ...Option) *TaskService {
	s := &TaskService{
		store: store,
		synth: synth,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) ListAll(ctx context.Context) []*task.Task {
	return s.store.ListAll(ctx)
}

func (s *TaskService) ListActive(ctx context.Context) []*task.Task {
	return s.store.ListActive(ctx)
}

func (s *TaskService) Overdue(ctx context.Context) []*task.Task {
	return stats.FilterOverdue(s.store.ListActive(ctx), s.now())
}

func (s *TaskService) Stats(ctx context.Context) stats.Stats {
	return stats.Compute(s.store.ListActive(ctx), s.now())
}

func (s *TaskService) Get(ctx context.Context, id string) (*task.Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(err, id)
	}
	return t, nil
}

func (s *TaskService) Create(ctx context.Context, draft task.Draft) (*task.Task, error) {
	t, err := s.store.Create(ctx, draft)
	if err != nil {
		return nil, s.storeError(err, "")
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, id string, opts ...task.Option) (*task.Task, error) {
	t, err := s.store.Update(ctx, id, opts...)
	if err != nil {
		return nil, s.storeError(err, id)
	}
	return t, nil
}

func (s *TaskService) SoftDelete(ctx context.Context, id string) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return s.storeError(err, id)
	}
	return nil
}

func (s *TaskService) Synthesize(ctx context.Context, prompt string) (ai.Suggestion, error) {
	suggestion, err := s.synth.Synthesize(ctx, prompt)
	if err != nil {
		return ai.Suggestion{}, s.aiError(err)
	}
	return suggestion, nil
}

// CreateFromPrompt - черновик от модели сразу сохраняется задачей.
// Если синтез не удался, стор не трогается.
func (s *TaskService) CreateFromPrompt(ctx context.Context, prompt string) (*task.Task, ai.Suggestion, error) {
	suggestion, err := s.Synthesize(ctx, prompt)
	if err != nil {
		return nil, ai.Suggestion{}, err
	}

	description := suggestion.Description
	priority := suggestion.Priority
	t, err := s.Create(ctx, task.Draft{
		Title:       suggestion.Title,
		Description: &description,
		Priority:    &priority,
	})
	if err != nil {
		return nil, suggestion, err
	}
	return t, suggestion, nil
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func (s *TaskService) storeError(err error, id string) error {
	var vErr *store.ValidationError
	switch {
	case errors.As(err, &vErr):
		logger.Info("Service: Неверные данные задачи", zap.String("field", vErr.Field), zap.String("reason", vErr.Reason))
		return NewValidationError(vErr.Field, vErr.Reason).wrap(err)
	case errors.Is(err, store.ErrNotFound):
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return NewNotFound("Задача", id).wrap(err)
	case errors.Is(err, store.ErrPersist):
		logger.Error("Service: Ошибка хранилища", err, zap.String("target_id", id))
		return NewBusinessError(CodeStorage, "Не удалось сохранить изменения").wrap(err)
	default:
		return fmt.Errorf("операция с задачей: %w", err)
	}
}

func (s *TaskService) aiError(err error) error {
	switch {
	case errors.Is(err, ai.ErrValidation):
		return NewValidationError("prompt", "не может быть пустым").wrap(err)
	case errors.Is(err, ai.ErrNotConfigured):
		logger.Warn("Service: AI не настроен")
		return NewBusinessError(CodeAINotConfigured, "Ключ API для AI не задан").wrap(err)
	case errors.Is(err, ai.ErrUnavailable):
		logger.Warn("Service: AI недоступен", zap.Error(err))
		return NewBusinessError(CodeAIUnavailable, "Сервис AI недоступен, попробуйте позже").wrap(err)
	default:
		return fmt.Errorf("генерация задачи: %w", err)
	}
}
