package cli

import (
	"taskflow/internal/models/task"
	"taskflow/internal/service"

	"github.com/spf13/cobra"
)

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		title            string
		description      string
		clearDescription bool
		priority         string
		status           string
		due              string
		clearDue         bool
	)

	cmd := &cobra.Command{
		Use:     "update <id>",
		Aliases: []string{"edit"},
		Short:   "Изменить поля задачи",
		Long:    `Меняются только переданные флаги, остальные поля остаются прежними.`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var options []task.Option

			if flags.Changed("title") {
				options = append(options, task.WithTitle(title))
			}
			if flags.Changed("description") {
				options = append(options, task.WithDescription(description))
			}
			if clearDescription {
				options = append(options, task.WithoutDescription())
			}
			if flags.Changed("priority") {
				p, err := parsePriority(priority)
				if err != nil {
					return err
				}
				options = append(options, task.WithPriority(p))
			}
			if flags.Changed("status") {
				s, err := parseStatus(status)
				if err != nil {
					return err
				}
				options = append(options, task.WithStatus(s))
			}
			if flags.Changed("due") {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				options = append(options, task.WithDueDate(d))
			}
			if clearDue {
				options = append(options, task.WithoutDueDate())
			}

			if len(options) == 0 {
				return service.NewValidationError("flags", "не передано ни одного поля для изменения")
			}

			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := resolveID(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}

			updated, err := svc.Update(cmd.Context(), id, options...)
			if err != nil {
				return err
			}
			return opts.printer(cmd).Task(updated)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "новое название")
	cmd.Flags().StringVarP(&description, "description", "d", "", "новое описание")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "убрать описание")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "приоритет: low, medium, high")
	cmd.Flags().StringVarP(&status, "status", "s", "", "статус: todo, in_progress, done")
	cmd.Flags().StringVar(&due, "due", "", "срок в формате YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "убрать срок")
	cmd.MarkFlagsMutuallyExclusive("description", "clear-description")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}
