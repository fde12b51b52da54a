package db

import (
	"context"
	"database/sql"

	"github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Executor runs read queries. *sql.DB, *sql.Tx and *DB all satisfy it.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// DB handles all database operations with a shared connection pool
type DB struct {
	db     *sql.DB
	flavor sqlbuilder.Flavor
}

// Flavor returns the SQL dialect matching the connected driver.
func (db *DB) Flavor() sqlbuilder.Flavor {
	return db.flavor
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	log.WithFields(log.Fields{
		"sql":  query,
		"args": args,
	}).Debug("Executing query")

	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	log.WithFields(log.Fields{
		"sql":  query,
		"args": args,
	}).Debug("Executing query")

	return db.db.QueryRowContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	log.WithFields(log.Fields{
		"sql":  query,
		"args": args,
	}).Debug("Executing statement")

	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) Close() error {
	return db.db.Close()
}

var _ Executor = (*DB)(nil)
var _ Executor = (*sql.DB)(nil)
var _ Executor = (*sql.Tx)(nil)
