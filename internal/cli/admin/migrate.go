package admin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noscite/noscite-assistant/internal/database"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			dir, _ := cmd.Flags().GetString("dir")

			down, _ := cmd.Flags().GetInt("down")
			if down > 0 {
				return database.MigrateDown(cfg.DatabaseURL, dir, down)
			}
			return database.Migrate(cfg.DatabaseURL, dir)
		},
	}

	cmd.Flags().String("dir", database.DefaultMigrationsDir, "Directory containing migration files")
	cmd.Flags().Int("down", 0, "Revert this many migrations instead of applying")

	return cmd
}
