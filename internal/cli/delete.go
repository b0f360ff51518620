package cli

import (
	"github.com/spf13/cobra"
)

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Удалить задачу (запись остаётся в хранилище с отметкой deleted_at)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := resolveID(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			if err := svc.SoftDelete(cmd.Context(), id); err != nil {
				return err
			}

			opts.printer(cmd).Message("Задача %s удалена", id)
			return nil
		},
	}
}
