package task

import (
	"strings"
	"time"

	"taskflow/internal/date"
)

// LocalProject - значение project_id, которое исторически пишется во все записи
const LocalProject = "local"

type Task struct {
	ID          string     `json:"id" yaml:"id"`
	ProjectID   string     `json:"project_id" yaml:"project_id"`
	Title       string     `json:"title" yaml:"title"`
	Description *string    `json:"description" yaml:"description"`
	Status      Status     `json:"status" yaml:"status"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	DueDate     *date.Date `json:"due_date" yaml:"due_date"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at" yaml:"deleted_at"`
}

type Status string
type Priority string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParseStatus принимает и "in progress", и "in-progress"
func ParseStatus(s string) (Status, bool) {
	normalized := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	st := Status(normalized)
	return st, st.Valid()
}

func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

// Draft - поля, из которых создаётся новая задача
type Draft struct {
	Title       string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *date.Date
}

func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// просрочена, если не выполнена и дедлайн (00:00 UTC дня) строго раньше now
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Status == StatusDone || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now)
}

// Clone возвращает глубокую копию: наружу кэш стора не отдаётся
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.DeletedAt != nil {
		d := *t.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}
