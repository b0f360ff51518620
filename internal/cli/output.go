package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"taskflow/internal/ai"
	"taskflow/internal/models/task"
	"taskflow/internal/stats"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

type format string

const (
	formatTable format = "table"
	formatJSON  format = "json"
	formatYAML  format = "yaml"
)

func parseFormat(s string) (format, error) {
	switch f := format(strings.ToLower(strings.TrimSpace(s))); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	}
	return "", fmt.Errorf("неизвестный формат вывода %q: ожидается table, json или yaml", s)
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	statusStyles = map[task.Status]lipgloss.Style{
		task.StatusTodo:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		task.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		task.StatusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
)

const (
	shortIDLen   = 8
	maxTitleCols = 50
)

type printer struct {
	w      io.Writer
	format format
	now    func() time.Time
}

func (p *printer) structured(v any) (bool, error) {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		defer enc.Close()
		return true, enc.Encode(v)
	}
	return false, nil
}

func (p *printer) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *printer) Tasks(tasks []*task.Task) error {
	if tasks == nil {
		tasks = []*task.Task{}
	}
	if done, err := p.structured(tasks); done {
		return err
	}

	if len(tasks) == 0 {
		fmt.Fprintln(p.w, dimStyle.Render("Задач нет."))
		return nil
	}

	now := p.clock()
	const pad = 2
	statusW, prioW, titleW := len("STATUS")+pad, len("PRIORITY")+pad, len("TITLE")+pad
	for _, t := range tasks {
		statusW = max(statusW, len(t.Status)+pad)
		prioW = max(prioW, len(t.Priority)+pad)
		titleW = max(titleW, min(len([]rune(t.Title))+pad, maxTitleCols))
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %s",
		shortIDLen+pad, "ID", statusW, "STATUS", prioW, "PRIORITY", titleW, "TITLE", "DUE")
	fmt.Fprintln(p.w, headerStyle.Render(header))

	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.String()
			if t.IsOverdue(now) {
				due = overdueStyle.Render(due + " !")
			}
		}
		title := truncate(t.Title, maxTitleCols-pad)
		if t.IsDeleted() {
			title = dimStyle.Render(title + " (удалена)")
		}

		fmt.Fprintf(p.w, "%s %s %s %s %s\n",
			padRight(shortID(t.ID), shortIDLen+pad),
			padRight(statusStyles[t.Status].Render(string(t.Status)), statusW),
			padRight(priorityStyles[t.Priority].Render(string(t.Priority)), prioW),
			padRight(title, titleW),
			due)
	}
	return nil
}

func (p *printer) Task(t *task.Task) error {
	if done, err := p.structured(t); done {
		return err
	}

	description := "-"
	if t.Description != nil && *t.Description != "" {
		description = *t.Description
	}
	due := "-"
	if t.DueDate != nil {
		due = t.DueDate.String()
		if t.IsOverdue(p.clock()) {
			due = overdueStyle.Render(due + " (просрочена)")
		}
	}

	rows := [][2]string{
		{"ID", t.ID},
		{"Название", t.Title},
		{"Описание", description},
		{"Статус", statusStyles[t.Status].Render(string(t.Status))},
		{"Приоритет", priorityStyles[t.Priority].Render(string(t.Priority))},
		{"Срок", due},
		{"Создана", t.CreatedAt.Local().Format("2006-01-02 15:04")},
	}
	if t.DeletedAt != nil {
		rows = append(rows, [2]string{"Удалена", t.DeletedAt.Local().Format("2006-01-02 15:04")})
	}
	for _, row := range rows {
		fmt.Fprintf(p.w, "%s %s\n", headerStyle.Render(padRight(row[0]+":", 12)), row[1])
	}
	return nil
}

func (p *printer) Stats(s stats.Stats) error {
	if done, err := p.structured(s); done {
		return err
	}

	rows := [][2]string{
		{"Всего", fmt.Sprint(s.Total)},
		{"К выполнению", fmt.Sprint(s.Todo)},
		{"В работе", fmt.Sprint(s.InProgress)},
		{"Готово", fmt.Sprint(s.Done)},
		{"Просрочено", fmt.Sprint(s.Overdue)},
		{"Выполнено", fmt.Sprintf("%d%%", s.CompletionPercent)},
	}
	for _, pr := range task.Priorities {
		rows = append(rows, [2]string{"Приоритет " + string(pr), fmt.Sprint(s.ByPriority[pr])})
	}
	for _, row := range rows {
		fmt.Fprintf(p.w, "%s %s\n", headerStyle.Render(padRight(row[0]+":", 20)), row[1])
	}
	return nil
}

func (p *printer) Suggestion(s ai.Suggestion) error {
	if done, err := p.structured(s); done {
		return err
	}

	fmt.Fprintf(p.w, "%s %s\n", headerStyle.Render(padRight("Название:", 12)), s.Title)
	fmt.Fprintf(p.w, "%s %s\n", headerStyle.Render(padRight("Описание:", 12)), s.Description)
	fmt.Fprintf(p.w, "%s %s\n", headerStyle.Render(padRight("Приоритет:", 12)), priorityStyles[s.Priority].Render(string(s.Priority)))
	if s.Fallback {
		fmt.Fprintln(p.w, dimStyle.Render("Ответ модели не разобран, черновик собран из запроса."))
	}
	return nil
}

func (p *printer) Message(format string, args ...any) {
	if p.format != formatTable {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// padRight считает ширину без ANSI-последовательностей
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
