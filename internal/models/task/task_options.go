package task

import (
	"taskflow/internal/date"
)

// Option - частичное обновление задачи. Для id, project_id, created_at и
// deleted_at опций нет: патч не может их изменить.
type Option func(*Task)

func WithTitle(title string) Option {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) Option {
	return func(task *Task) {
		task.Description = &description
	}
}

func WithoutDescription() Option {
	return func(task *Task) {
		task.Description = nil
	}
}

func WithStatus(status Status) Option {
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) Option {
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithDueDate(due date.Date) Option {
	return func(task *Task) {
		task.DueDate = &due
	}
}

func WithoutDueDate() Option {
	return func(task *Task) {
		task.DueDate = nil
	}
}
