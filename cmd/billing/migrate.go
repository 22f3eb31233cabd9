package main

import (
	"fmt"

	"github.com/diewo77/go-orders/internal/db"
	"github.com/diewo77/go-orders/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and seed profiles and settings",
	Long: `Applies the SQL migrations on PostgreSQL (AutoMigrate on SQLite), then
seeds the built-in profiles and the billing settings that are still absent.

With --down N the last N SQL migrations are rolled back instead.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := logger.WithComponent("migrate")
		down, _ := cmd.Flags().GetInt("down")
		if down > 0 {
			if err := db.RollbackSQLMigrations(cfg.Database.DSN(), migrationsDir, down); err != nil {
				return err
			}
			log.Info().Int("steps", down).Msg("rolled back")
			return nil
		}

		cfg.App.Migrations = true
		conn, err := openDB()
		if err != nil {
			return err
		}
		if skip, _ := cmd.Flags().GetBool("no-seed"); !skip {
			if err := db.Seed(cmd.Context(), conn, cfg.Billing); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().Int("down", 0, "Roll back N SQL migrations")
	migrateCmd.Flags().Bool("no-seed", false, "Skip profile and settings seeding")
	rootCmd.AddCommand(migrateCmd)
}
