// Package db opens the database and brings its schema up to date.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-orders/internal/config"
	"github.com/diewo77/go-orders/internal/logger"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/internal/policy"
	"github.com/diewo77/go-orders/internal/settings"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var ErrEmptyDSN = errors.New("database dsn is empty")

// Options controls Open.
type Options struct {
	DSN        string
	Retries    int
	RetryDelay time.Duration
	SQLLog     string // gorm log level
	Log        zerolog.Logger
}

// Models lists every table managed by AutoMigrate, parents first.
func Models() []any {
	return []any{
		&models.Permission{}, &models.Profile{},
		&models.Customer{}, &models.Supplier{}, &models.Product{}, &models.Fee{},
		&models.PaymentReceiver{}, &models.Order{}, &models.OrderItem{}, &models.OrderFee{},
		&models.Setting{}, &models.PaymentImport{}, &models.PaymentImportEntry{},
	}
}

// Open connects, retrying while the server starts up.
func Open(opts Options) (*gorm.DB, error) {
	driver, dsn := NormalizeDSN(opts.DSN)
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	if opts.Retries <= 0 {
		opts.Retries = 1
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 2 * time.Second
	}

	var dialector gorm.Dialector
	if driver == DriverSQLite {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}
	cfg := &gorm.Config{Logger: logger.Gorm(opts.Log, opts.SQLLog)}

	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < opts.Retries; i++ {
		conn, err = gorm.Open(dialector, cfg)
		if err == nil {
			err = conn.Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		opts.Log.Warn().Err(err).Int("attempt", i+1).Msg("database not ready")
		if i < opts.Retries-1 {
			time.Sleep(opts.RetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", opts.Retries, err)
	}
	opts.Log.Info().Str("driver", driver).Str("dsn", Masked(dsn)).Msg("database connected")
	return conn, nil
}

// AutoMigrate creates or updates every table in Models.
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range Models() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// Migrate runs the SQL migrations in dir when sqlMigrations is set and the
// database is postgres; otherwise it falls back to AutoMigrate.
func Migrate(conn *gorm.DB, dsn, dir string, sqlMigrations bool, log zerolog.Logger) error {
	driver, dsn := NormalizeDSN(dsn)
	if sqlMigrations && driver == DriverPostgres {
		log.Info().Str("dir", dir).Msg("running sql migrations")
		if err := RunSQLMigrations(dsn, dir); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	} else {
		if sqlMigrations {
			log.Warn().Str("driver", driver).Msg("sql migrations target postgres, using automigrate")
		}
		if err := AutoMigrate(conn); err != nil {
			return err
		}
	}
	for _, table := range []string{"orders", "payment_receivers", "settings"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// Seed creates the builtin profiles and stores billing defaults that are not
// set yet. Running it twice changes nothing.
func Seed(ctx context.Context, conn *gorm.DB, billing config.BillingConfig) error {
	if err := policy.SeedProfiles(conn); err != nil {
		return fmt.Errorf("seed profiles: %w", err)
	}

	store := settings.NewStore(conn)
	defaults := map[string]settings.Value{}
	if billing.RoundingIncrement != "" {
		inc, err := decimal.NewFromString(billing.RoundingIncrement)
		if err != nil {
			return fmt.Errorf("rounding increment %q: %w", billing.RoundingIncrement, err)
		}
		defaults[settings.KeyRoundingIncrement] = settings.Number{Decimal: inc}
	}
	if billing.DefaultConditions != "" {
		defaults[settings.KeyDefaultConditions] = settings.Text(billing.DefaultConditions)
	}
	if billing.InvoiceFooter != "" {
		defaults[settings.KeyInvoiceFooter] = settings.Text(billing.InvoiceFooter)
	}
	for key, v := range defaults {
		_, err := store.Get(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, settings.ErrNotFound) {
			return err
		}
		if err := store.Set(ctx, key, v); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
	}
	return nil
}
