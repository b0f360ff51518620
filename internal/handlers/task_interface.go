package handlers

import (
	"context"

	"taskflow/internal/ai"
	"taskflow/internal/models/task"
	"taskflow/internal/stats"
)

type TaskService interface {
	ListAll(ctx context.Context) []*task.Task
	ListActive(ctx context.Context) []*task.Task
	Overdue(ctx context.Context) []*task.Task
	Stats(ctx context.Context) stats.Stats
	Get(ctx context.Context, id string) (*task.Task, error)
	Create(ctx context.Context, draft task.Draft) (*task.Task, error)
	Update(ctx context.Context, id string, opts ...task.Option) (*task.Task, error)
	SoftDelete(ctx context.Context, id string) error
	Synthesize(ctx context.Context, prompt string) (ai.Suggestion, error)
	CreateFromPrompt(ctx context.Context, prompt string) (*task.Task, ai.Suggestion, error)
	HealthCheck(ctx context.Context) error
}
