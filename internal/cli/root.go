// Package cli implements the taskflow command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"taskflow/internal/app"
	"taskflow/internal/config"
	"taskflow/internal/logger"
	"taskflow/internal/service"

	"github.com/spf13/cobra"
)

// version задаётся при сборке через ldflags
var version = "dev"

type rootOptions struct {
	configPath string
	format     string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "taskflow",
		Short:         "Локальное хранилище задач с генерацией черновиков через AI",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := parseFormat(opts.format); err != nil {
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "путь к config.yml (по умолчанию ./config.yml, если есть)")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "table", "формат вывода: table, json или yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "писать логи в stderr")

	root.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newStatsCmd(opts),
		newSuggestCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// Execute запускает CLI и возвращает код выхода процесса
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		return report(root.ErrOrStderr(), err)
	}
	return 0
}

// report печатает ошибку и возвращает код выхода: 1 для бизнес-ошибок, 2 для остальных
func report(w io.Writer, err error) int {
	var bErr *service.BusinessError
	if errors.As(err, &bErr) {
		fmt.Fprintf(w, "Ошибка [%s]: %s\n", bErr.Code, bErr.Message)
		return 1
	}
	fmt.Fprintln(w, "Ошибка:", err)
	return 2
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.verbose {
		if err := logger.Init(cfg.Logging.Development); err != nil {
			return nil, fmt.Errorf("инициализация логгера: %w", err)
		}
	}
	return cfg, nil
}

// openService поднимает сервис без HTTP; вызывающий обязан вызвать closeFn
func (o *rootOptions) openService(ctx context.Context) (*service.TaskService, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	a := app.New(cfg)
	svc, err := a.InitService(ctx)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return svc, a.Close, nil
}

func (o *rootOptions) printer(cmd *cobra.Command) *printer {
	format, _ := parseFormat(o.format)
	return &printer{w: cmd.OutOrStdout(), format: format}
}
