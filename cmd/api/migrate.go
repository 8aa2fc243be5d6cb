package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		ctx := context.Background()

		pool, err := connectPostgres(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := repository.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			log.Info("database is up to date")
			return nil
		}
		for _, name := range applied {
			log.Info("applied migration", "file", name)
		}
		return nil
	},
}
