package cli

import (
	"fmt"

	"taskflow/internal/config"
	"taskflow/internal/repository/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Применить или откатить схему PostgreSQL",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Type != config.StoragePostgres {
				return fmt.Errorf("миграции нужны только для storage.type=postgres, сейчас %q", cfg.Storage.Type)
			}

			storage, err := postgres.New(cmd.Context(), cfg.Database.URL, postgres.PoolConfig{
				MaxConnections: cfg.Database.MaxConnections,
				MinConnections: cfg.Database.MinConnections,
				IdleTimeout:    cfg.Database.IdleTimeout,
			})
			if err != nil {
				return err
			}
			defer storage.Close()

			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}

			p := opts.printer(cmd)
			if direction == "down" {
				if err := storage.Down(cmd.Context()); err != nil {
					return err
				}
				p.Message("Миграции откачены")
				return nil
			}

			if err := storage.Migrate(cmd.Context()); err != nil {
				return err
			}
			p.Message("Миграции применены")
			return nil
		},
	}
}
