package cli

import (
	"strings"

	"taskflow/internal/date"
	"taskflow/internal/models/task"
	"taskflow/internal/service"

	"github.com/spf13/cobra"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		description string
		priority    string
		status      string
		due         string
	)

	cmd := &cobra.Command{
		Use:     "add <title>",
		Aliases: []string{"create"},
		Short:   "Создать задачу",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := task.Draft{Title: strings.Join(args, " ")}

			if cmd.Flags().Changed("description") {
				draft.Description = &description
			}
			if priority != "" {
				p, err := parsePriority(priority)
				if err != nil {
					return err
				}
				draft.Priority = &p
			}
			if status != "" {
				s, err := parseStatus(status)
				if err != nil {
					return err
				}
				draft.Status = &s
			}
			if due != "" {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				draft.DueDate = &d
			}

			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			created, err := svc.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return opts.printer(cmd).Task(created)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "описание")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "приоритет: low, medium, high")
	cmd.Flags().StringVarP(&status, "status", "s", "", "статус: todo, in_progress, done")
	cmd.Flags().StringVar(&due, "due", "", "срок в формате YYYY-MM-DD")
	return cmd
}

func parsePriority(s string) (task.Priority, error) {
	p, ok := task.ParsePriority(s)
	if !ok {
		return "", service.NewValidationError("priority", "ожидается low, medium или high")
	}
	return p, nil
}

func parseStatus(s string) (task.Status, error) {
	st, ok := task.ParseStatus(s)
	if !ok {
		return "", service.NewValidationError("status", "ожидается todo, in_progress или done")
	}
	return st, nil
}

func parseDue(s string) (date.Date, error) {
	d, err := date.Parse(s)
	if err != nil {
		return date.Date{}, service.NewValidationError("due_date", err.Error())
	}
	return d, nil
}
