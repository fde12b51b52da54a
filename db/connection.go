package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/huandu/go-sqlbuilder"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the connection settings
type Config struct {
	// Driver is either "sqlite" or "postgres"
	Driver string
	// DSN is a file path (or :memory:) for sqlite, a connection URL for postgres
	DSN string
	// PingRetries bounds the number of connection attempts on startup
	PingRetries uint64
}

// Open connects to the configured database and waits for it to answer a ping.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	var (
		sqlDB  *sql.DB
		flavor sqlbuilder.Flavor
		err    error
	)

	switch cfg.Driver {
	case DriverSQLite, "":
		sqlDB, err = sqliteConnection(cfg.DSN)
		flavor = sqlbuilder.SQLite
	case DriverPostgres:
		sqlDB, err = postgresConnection(cfg.DSN)
		flavor = sqlbuilder.PostgreSQL
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := ping(ctx, sqlDB, cfg.PingRetries); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &DB{db: sqlDB, flavor: flavor}, nil
}

func sqliteConnection(database string) (*sql.DB, error) {
	// Enable foreign keys and WAL mode
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", database))
	if err != nil {
		return nil, err
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// only lives as long as its single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if database != ":memory:" {
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(time.Hour)
	}

	if _, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -32000; -- 32MB cache
		PRAGMA temp_store = MEMORY;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	return db, nil
}

func postgresConnection(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)

	return db, nil
}

func ping(ctx context.Context, db *sql.DB, retries uint64) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.Multiplier = 1.5

	err := backoff.RetryNotify(
		func() error { return db.PingContext(ctx) },
		backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx),
		func(err error, next time.Duration) {
			log.WithFields(log.Fields{
				"error": err,
				"next":  next,
			}).Warn("Database not ready, retrying")
		},
	)
	if err != nil {
		return fmt.Errorf("ping error: %w", err)
	}
	return nil
}
