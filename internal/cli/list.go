package cli

import (
	"taskflow/internal/models/task"
	"taskflow/internal/service"
	"taskflow/internal/stats"

	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		all     bool
		status  string
		overdue bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Показать задачи",
		Long: `Без флагов показывает активные задачи, новые первыми.
С --all выводятся все записи, включая удалённые, в порядке хранения.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var tasks []*task.Task
			switch {
			case all:
				tasks = svc.ListAll(cmd.Context())
			case overdue:
				tasks = stats.SortByCreatedDesc(svc.Overdue(cmd.Context()))
			default:
				tasks = stats.SortByCreatedDesc(svc.ListActive(cmd.Context()))
			}

			if status != "" {
				st, ok := task.ParseStatus(status)
				if !ok {
					return service.NewValidationError("status", "ожидается todo, in_progress или done")
				}
				tasks = stats.FilterByStatus(tasks, st)
			}

			return opts.printer(cmd).Tasks(tasks)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "включая удалённые задачи")
	cmd.Flags().StringVarP(&status, "status", "s", "", "фильтр по статусу (todo, in_progress, done)")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "только просроченные")
	cmd.MarkFlagsMutuallyExclusive("all", "overdue")
	return cmd
}
