package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite handle configured for the reservation store. SQLite
// allows a single writer, so the pool is capped at one connection; that also
// makes in-memory databases behave predictably under the database/sql pool.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn, applies the connection
// pragmas, and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*DB, error) {
	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	handle.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := handle.ExecContext(ctx, pragma); err != nil {
			handle.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := handle.ExecContext(ctx, schema); err != nil {
		handle.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{db: handle}, nil
}

// Close releases the underlying handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping verifies the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// withTransaction runs fn inside a transaction, rolling back on error or
// panic and committing otherwise.
func (d *DB) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
