package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var fs embed.FS

// Migrate runs all pending up migrations against db
func Migrate(db *DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration error: %w", err)
	}

	logVersion(m)
	return nil
}

// Rollback reverts the last applied migration
func Rollback(db *DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("rollback error: %w", err)
	}

	logVersion(m)
	return nil
}

// The migrate instance is built on the open connection, so an in-memory
// sqlite database is migrated in place. It is never closed since closing it
// closes db as well.
func newMigrate(db *DB) (*migrate.Migrate, error) {
	var (
		dir        string
		driverName string
		driver     database.Driver
		err        error
	)

	switch db.flavor {
	case sqlbuilder.PostgreSQL:
		dir, driverName = "migrations/postgres", "postgres"
		driver, err = postgres.WithInstance(db.db, &postgres.Config{})
	default:
		dir, driverName = "migrations/sqlite", "sqlite"
		driver, err = sqlite.WithInstance(db.db, &sqlite.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("migration driver error: %w", err)
	}

	source, err := iofs.New(fs, dir)
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}
	return m, nil
}

func logVersion(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Warnf("Could not read migration version: %v", err)
		return
	}
	log.WithFields(log.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("Database schema version")
}
