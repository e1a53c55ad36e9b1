package main

import (
	"fmt"

	"github.com/divyadhiman22/MyNotes/pkg/database"
	"github.com/divyadhiman22/MyNotes/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DBUrl == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		pool, err := database.NewPostgresConnection(cmd.Context(), cfg.DBUrl)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := database.ApplyMigrations(cmd.Context(), pool, logger.Log)
		if err != nil {
			return err
		}
		logger.Log.Info("migrations complete", "applied", applied)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
