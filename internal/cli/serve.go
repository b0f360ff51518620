package cli

import (
	"os"
	"os/signal"
	"syscall"

	"taskflow/internal/app"
	"taskflow/internal/logger"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API и фоновую проверку просроченных задач",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := app.New(cfg)
			defer a.Close()

			if err := a.Init(ctx); err != nil {
				return err
			}

			if err := a.Run(ctx); err != nil {
				logger.Error("App: Сервер завершился с ошибкой", err)
				return err
			}
			logger.Info("App: Сервер остановлен")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "порт HTTP (перекрывает server.port)")
	return cmd
}
