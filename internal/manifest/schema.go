// Package manifest records what an import wrote in a SQLite database next to
// the output, so that the result can be inspected and searched later.
package manifest

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS imports (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	format     TEXT NOT NULL DEFAULT '',
	input      TEXT NOT NULL DEFAULT '',
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	notebooks  INTEGER NOT NULL DEFAULT 0,
	notes      INTEGER NOT NULL DEFAULT 0,
	resources  INTEGER NOT NULL DEFAULT 0,
	tags       INTEGER NOT NULL DEFAULT 0,
	note_links INTEGER NOT NULL DEFAULT 0,
	failures   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS notes (
	path        TEXT PRIMARY KEY,
	import_id   INTEGER NOT NULL REFERENCES imports(id),
	title       TEXT NOT NULL DEFAULT '',
	original_id TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	body        TEXT NOT NULL DEFAULT '',
	written_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS links (
	source    TEXT NOT NULL,
	title     TEXT NOT NULL DEFAULT '',
	target_id TEXT NOT NULL,
	target    TEXT NOT NULL,
	resolved  INTEGER NOT NULL DEFAULT 0,
	UNIQUE(source, target_id, target)
);

CREATE TABLE IF NOT EXISTS resources (
	note TEXT NOT NULL,
	path TEXT NOT NULL,
	UNIQUE(note, path)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
CREATE INDEX IF NOT EXISTS idx_resources_note ON resources(note);
`

// DB wraps a sql.DB with manifest operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("manifest: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("manifest: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("manifest: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("manifest: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
