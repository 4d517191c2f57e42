package main

import (
	"errors"

	"github.com/spf13/cobra"

	"credchain/internal/platform/postgres"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := newLogger(cfg)
			if cfg.Database.URL == "" {
				return errors.New("migrate: database.url is not configured")
			}
			db, err := postgres.Open(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "schema applied")
			return nil
		},
	}
}
