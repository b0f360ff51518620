package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "suggest <prompt>",
		Short: "Сгенерировать черновик задачи по описанию через AI",
		Long: `Делает один запрос к модели. Если ответ не удалось разобрать,
черновик собирается из первых 80 символов запроса с приоритетом medium.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			prompt := strings.Join(args, " ")
			p := opts.printer(cmd)

			if !create {
				suggestion, err := svc.Synthesize(cmd.Context(), prompt)
				if err != nil {
					return err
				}
				return p.Suggestion(suggestion)
			}

			created, _, err := svc.CreateFromPrompt(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			return p.Task(created)
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "сразу сохранить черновик задачей")
	return cmd
}
