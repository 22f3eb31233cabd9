package db

import (
	"errors"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunSQLMigrations applies the up migrations found in dir.
func RunSQLMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, ToURLDSN(dsn))
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// RollbackSQLMigrations reverts the last n migrations.
func RollbackSQLMigrations(dsn, dir string, n int) error {
	m, err := migrate.New("file://"+dir, ToURLDSN(dsn))
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Steps(-n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
