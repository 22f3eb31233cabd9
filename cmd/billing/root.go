package main

import (
	"fmt"
	"time"

	"github.com/diewo77/go-orders/internal/config"
	"github.com/diewo77/go-orders/internal/db"
	"github.com/diewo77/go-orders/internal/logger"
	"github.com/diewo77/go-orders/internal/mailer"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var version = "0.1.0"

const dateLayout = "2006-01-02"

var (
	envFile       string
	migrationsDir string
	cfg           *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "billing",
	Short: "Swiss order invoicing backend",
	Long: `billing manages orders and their Swiss QR-bill invoices: VAT totals,
payment conditions, QR references, PDF invoices, camt.053 payment import and
VAT reports.

Configuration is read from the environment and an optional .env file.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Log.Level = lvl
		}
		return logger.Setup(cfg.Log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path of the .env file")
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations", "migrations", "Directory of the SQL migrations")
	rootCmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (trace, debug, info, warn, error)")
}

// openDB connects with the configured DSN and brings the schema up to date.
func openDB() (*gorm.DB, error) {
	log := logger.WithComponent("db")
	dsn := cfg.Database.DSN()
	conn, err := db.Open(db.Options{DSN: dsn, Retries: 10, RetryDelay: 2 * time.Second, SQLLog: cfg.Log.SQL, Log: log})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn, dsn, migrationsDir, cfg.App.Migrations, log); err != nil {
		return nil, err
	}
	return conn, nil
}

// newMailer returns nil when no SMTP host is configured.
func newMailer() mailer.Sender {
	if !cfg.SMTP.Enabled() {
		return nil
	}
	return mailer.NewSMTPSender(cfg.SMTP, logger.WithComponent("mailer"))
}

// dateFlag reads a YYYY-MM-DD flag; an empty value yields the zero time.
func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", name, s)
	}
	return t, nil
}
