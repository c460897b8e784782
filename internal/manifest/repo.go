package manifest

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marph91/jimmy/internal/apperr"
)

// RecordImport inserts a new import and returns its ID.
func (db *DB) RecordImport(r ImportRow) (int64, error) {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	res, err := db.conn.Exec(`
		INSERT INTO imports (format, input, started_at, notebooks, notes, resources, tags, note_links, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Format, r.Input, r.StartedAt, r.Notebooks, r.Notes, r.Resources, r.Tags, r.NoteLinks, r.Failures)
	if err != nil {
		return 0, fmt.Errorf("manifest: record import: %w", err)
	}
	return res.LastInsertId()
}

// UpsertNote inserts or replaces a note, its FTS entry, links and resources
// within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string, links []LinkRow, resources []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("manifest: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if n.Tags == nil {
		n.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(n.Tags)
	if n.WrittenAt.IsZero() {
		n.WrittenAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO notes (path, import_id, title, original_id, checksum, tags, body, written_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			import_id   = excluded.import_id,
			title       = excluded.title,
			original_id = excluded.original_id,
			checksum    = excluded.checksum,
			tags        = excluded.tags,
			body        = excluded.body,
			written_at  = excluded.written_at
	`, n.Path, n.ImportID, n.Title, n.OriginalID, n.Checksum, string(tagsJSON), body, n.WrittenAt)
	if err != nil {
		return fmt.Errorf("manifest: upsert note: %w", err)
	}

	if err := ftsUpsert(tx, n.Path, n.Title, body, n.Tags); err != nil {
		return err
	}

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, title, target_id, target, resolved) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("manifest: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(n.Path, l.Title, l.TargetID, l.Target, l.Resolved); err != nil {
				return fmt.Errorf("manifest: insert link: %w", err)
			}
		}
	}

	_, _ = tx.Exec(`DELETE FROM resources WHERE note = ?`, n.Path)
	for _, p := range resources {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO resources (note, path) VALUES (?, ?)`, n.Path, p); err != nil {
			return fmt.Errorf("manifest: insert resource: %w", err)
		}
	}

	return tx.Commit()
}

// Imports returns all recorded imports, newest first.
func (db *DB) Imports() ([]ImportRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, format, input, started_at, notebooks, notes, resources, tags, note_links, failures
		FROM imports ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("manifest: imports: %w", err)
	}
	defer rows.Close()

	var out []ImportRow
	for rows.Next() {
		var r ImportRow
		if err := rows.Scan(&r.ID, &r.Format, &r.Input, &r.StartedAt, &r.Notebooks, &r.Notes,
			&r.Resources, &r.Tags, &r.NoteLinks, &r.Failures); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetNote returns a single note or apperr.ErrNotFound.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	var (
		n    NoteRow
		tags string
	)
	err := db.conn.QueryRow(`
		SELECT path, import_id, title, original_id, checksum, tags, written_at
		FROM notes WHERE path = ?
	`, path).Scan(&n.Path, &n.ImportID, &n.Title, &n.OriginalID, &n.Checksum, &tags, &n.WrittenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: get note: %w", err)
	}
	_ = json.Unmarshal([]byte(tags), &n.Tags)
	return &n, nil
}

// ListNotes returns a page of notes ordered by path and the total count.
// A non-empty tag restricts the result to notes carrying it.
func (db *DB) ListNotes(limit, offset int, tag string) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where := ""
	var args []any
	if tag != "" {
		where = `WHERE EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("manifest: count notes: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, import_id, title, original_id, checksum, tags, written_at
		FROM notes `+where+`
		ORDER BY path
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("manifest: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var (
			n    NoteRow
			tags string
		)
		if err := rows.Scan(&n.Path, &n.ImportID, &n.Title, &n.OriginalID, &n.Checksum, &tags, &n.WrittenAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tags), &n.Tags)
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// Backlinks returns all note paths with a resolved link to target.
func (db *DB) Backlinks(target string) ([]string, error) {
	return db.queryStrings("backlinks", `SELECT source FROM links WHERE target = ? AND resolved = 1 ORDER BY source`, target)
}

// Resources returns the resource paths referenced by note.
func (db *DB) Resources(note string) ([]string, error) {
	return db.queryStrings("resources", `SELECT path FROM resources WHERE note = ? ORDER BY path`, note)
}

// Unresolved returns every note link that could not be resolved.
func (db *DB) Unresolved() ([]LinkRow, error) {
	rows, err := db.conn.Query(`
		SELECT source, title, target_id, target, resolved
		FROM links WHERE resolved = 0
		ORDER BY source, target_id
	`)
	if err != nil {
		return nil, fmt.Errorf("manifest: unresolved: %w", err)
	}
	defer rows.Close()

	var out []LinkRow
	for rows.Next() {
		var l LinkRow
		if err := rows.Scan(&l.Source, &l.Title, &l.TargetID, &l.Target, &l.Resolved); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (db *DB) queryStrings(op, query string, args ...any) ([]string, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
