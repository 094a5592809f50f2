// Package sqlite implements the store.Gateway interface on a SQLite file.
//
// WHY modernc.org/sqlite?
// It is a pure-Go translation of SQLite — no CGo, no C compiler, trivial
// cross-compilation. The driver registers itself with database/sql under the
// name "sqlite" via the blank import below.
//
// The gateway keeps the schema exactly as the application has always stored
// it: three flat tables, no synthetic row IDs. Replace operations rewrite a
// whole table inside one transaction, so a table is never observable
// half-written even though the overall strategy is snapshot-in, snapshot-out.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// DB wraps a sql.DB connection pool and implements store.Gateway.
// The server owns it and closes it on shutdown.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the SQLite database at dbPath and ensures the
// schema exists. Use ":memory:" for tests.
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open only creates the pool; Ping forces a real connection so a bad
	// path or permission problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn, logger: logger}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the three tables if they do not exist. Column names are
// the stable external contract — older database files must keep working.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			full_name     TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL DEFAULT '',
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			avatar_ref    TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS playlists (
			username      TEXT NOT NULL,
			playlist_name TEXT NOT NULL,
			songs         TEXT NOT NULL DEFAULT '',
			public        BOOLEAN NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating playlists table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS activity_log (
			username  TEXT NOT NULL,
			activity  TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating activity_log table: %w", err)
	}

	return nil
}

// replaceTable rewrites the full contents of one table in a single
// transaction: delete everything, insert the snapshot row by row. The insert
// callback runs once per row with a prepared statement.
func (db *DB) replaceTable(ctx context.Context, table, insertSQL string, rows int, bind func(i int) []any) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning %s replace: %w", table, err)
	}
	defer tx.Rollback() // no-op after a successful Commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("sqlite: clearing %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("sqlite: preparing %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < rows; i++ {
		if _, err := stmt.ExecContext(ctx, bind(i)...); err != nil {
			return fmt.Errorf("sqlite: inserting into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing %s replace: %w", table, err)
	}
	return nil
}

// warnLoadFailed logs the graceful-degrade path: a table that cannot be read
// behaves as empty so the session stays usable. The warning is the only trace.
func (db *DB) warnLoadFailed(table string, err error) {
	db.logger.Warn("table load failed, continuing with empty snapshot",
		slog.String("table", table),
		slog.String("error", err.Error()),
	)
}
