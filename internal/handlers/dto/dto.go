package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"taskflow/internal/ai"
	"taskflow/internal/date"
	"taskflow/internal/models/task"
)

// Field различает три состояния поля в PATCH: нет в теле, null и значение
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}

type CreateTaskRequest struct {
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Status      *task.Status   `json:"status"`
	Priority    *task.Priority `json:"priority"`
	DueDate     *date.Date     `json:"due_date"`
}

func (r CreateTaskRequest) ToDraft() task.Draft {
	return task.Draft{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
	}
}

type UpdateTaskRequest struct {
	Title       Field[string]        `json:"title"`
	Description Field[string]        `json:"description"`
	Status      Field[task.Status]   `json:"status"`
	Priority    Field[task.Priority] `json:"priority"`
	DueDate     Field[date.Date]     `json:"due_date"`
}

// NullField возвращает имя поля, для которого null недопустим
func (r UpdateTaskRequest) NullField() string {
	switch {
	case r.Title.Null:
		return "title"
	case r.Status.Null:
		return "status"
	case r.Priority.Null:
		return "priority"
	}
	return ""
}

func (r UpdateTaskRequest) Options() []task.Option {
	opts := make([]task.Option, 0, 5)
	if r.Title.Set && !r.Title.Null {
		opts = append(opts, task.WithTitle(r.Title.Value))
	}
	if r.Description.Set {
		if r.Description.Null {
			opts = append(opts, task.WithoutDescription())
		} else {
			opts = append(opts, task.WithDescription(r.Description.Value))
		}
	}
	if r.Status.Set && !r.Status.Null {
		opts = append(opts, task.WithStatus(r.Status.Value))
	}
	if r.Priority.Set && !r.Priority.Null {
		opts = append(opts, task.WithPriority(r.Priority.Value))
	}
	if r.DueDate.Set {
		if r.DueDate.Null {
			opts = append(opts, task.WithoutDueDate())
		} else {
			opts = append(opts, task.WithDueDate(r.DueDate.Value))
		}
	}
	return opts
}

type TaskResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *date.Date `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
	IsOverdue   bool       `json:"is_overdue"`
}

func FromTask(t *task.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		DeletedAt:   t.DeletedAt,
		IsOverdue:   t.IsOverdue(now),
	}
}

func FromTaskList(tasks []*task.Task, now time.Time) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, now)
	}
	return result
}

type SuggestRequest struct {
	Prompt string `json:"prompt"`
	// Create сразу сохраняет черновик задачей
	Create bool `json:"create"`
}

type SuggestionResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Fallback    bool   `json:"fallback"`
}

func FromSuggestion(s ai.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		Title:       s.Title,
		Description: s.Description,
		Priority:    string(s.Priority),
		Fallback:    s.Fallback,
	}
}
