package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NatsuCamellia/cool-tracker/internal/store/migrations"
	"github.com/pressly/goose/v3"
)

// Open opens (creating if needed) the cache database at dsn and brings the
// schema up to date. The driver must be registered by the caller, e.g.:
//
//	import _ "modernc.org/sqlite"
//
// The pool is capped at one connection so the foreign_keys pragma holds for
// every statement; with a single writer this costs nothing.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
