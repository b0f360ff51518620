package service

import (
	"context"

	"taskflow/internal/ai"
	"taskflow/internal/models/task"
)

type TaskStore interface {
	ListAll(ctx context.Context) []*task.Task
	ListActive(ctx context.Context) []*task.Task
	Get(ctx context.Context, id string) (*task.Task, error)
	Create(ctx context.Context, draft task.Draft) (*task.Task, error)
	Update(ctx context.Context, id string, opts ...task.Option) (*task.Task, error)
	SoftDelete(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error
}

type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (ai.Suggestion, error)
}
