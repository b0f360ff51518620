// Package stats derives the dashboard numbers from a task list.
// Nothing here is stored: overdue and completion are recomputed on every call.
package stats

import (
	"math"
	"sort"
	"time"

	"taskflow/internal/models/task"
)

type Stats struct {
	Total             int                   `json:"total" yaml:"total"`
	Todo              int                   `json:"todo" yaml:"todo"`
	InProgress        int                   `json:"in_progress" yaml:"in_progress"`
	Done              int                   `json:"done" yaml:"done"`
	Overdue           int                   `json:"overdue" yaml:"overdue"`
	ByPriority        map[task.Priority]int `json:"by_priority" yaml:"by_priority"`
	CompletionPercent int                   `json:"completion_percent" yaml:"completion_percent"`
}

func FilterByStatus(tasks []*task.Task, status task.Status) []*task.Task {
	res := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == status {
			res = append(res, t)
		}
	}
	return res
}

func FilterOverdue(tasks []*task.Task, now time.Time) []*task.Task {
	res := make([]*task.Task, 0)
	for _, t := range tasks {
		if t.IsOverdue(now) {
			res = append(res, t)
		}
	}
	return res
}

// SortByCreatedDesc возвращает новый срез, новые задачи первыми.
// При равном created_at сохраняется исходный порядок.
func SortByCreatedDesc(tasks []*task.Task) []*task.Task {
	res := make([]*task.Task, len(tasks))
	copy(res, tasks)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res
}

func Compute(tasks []*task.Task, now time.Time) Stats {
	s := Stats{
		Total:      len(tasks),
		ByPriority: make(map[task.Priority]int, len(task.Priorities)),
	}
	for _, p := range task.Priorities {
		s.ByPriority[p] = 0
	}

	for _, t := range tasks {
		switch t.Status {
		case task.StatusTodo:
			s.Todo++
		case task.StatusInProgress:
			s.InProgress++
		case task.StatusDone:
			s.Done++
		}
		s.ByPriority[t.Priority]++
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}

	if s.Total > 0 {
		s.CompletionPercent = int(math.Round(float64(s.Done) * 100 / float64(s.Total)))
	}
	return s
}
