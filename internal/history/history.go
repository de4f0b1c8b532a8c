// Package history keeps a local SQLite log of schema exports for the
// `dbschema history` command.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS exports (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT,
	format        TEXT NOT NULL,
	adapter       TEXT,
	database_name TEXT,
	source        TEXT,
	tables        TEXT,
	output        TEXT,
	bytes         INTEGER DEFAULT 0,
	checksum      TEXT,
	exported_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
	duration_ms   INTEGER,
	error         TEXT
)`

const selectColumns = `id, run_id, format, adapter, database_name, source, tables, output,
	bytes, checksum, exported_at, duration_ms, error`

// Entry is a single export run in the history log.
type Entry struct {
	ID           int64
	RunID        string
	Format       string
	Adapter      string
	DatabaseName string
	Source       string // sanitized DSN
	Tables       []string
	Output       string
	Bytes        int64
	Checksum     string
	ExportedAt   time.Time
	DurationMS   int64
	Error        string
}

// Failed reports whether the export ended in an error.
func (e Entry) Failed() bool { return e.Error != "" }

// History provides SQLite-backed export history storage.
type History struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and ensures the
// schema exists. Parent directories are created with mode 0700.
func Open(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &History{db: db}, nil
}

// Add inserts a new history entry. A zero ExportedAt is recorded as now.
func (h *History) Add(entry Entry) error {
	if entry.ExportedAt.IsZero() {
		entry.ExportedAt = time.Now().UTC()
	}
	_, err := h.db.Exec(
		`INSERT INTO exports (run_id, format, adapter, database_name, source, tables, output,
			bytes, checksum, exported_at, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Format,
		entry.Adapter,
		entry.DatabaseName,
		entry.Source,
		strings.Join(entry.Tables, ","),
		entry.Output,
		entry.Bytes,
		entry.Checksum,
		entry.ExportedAt,
		entry.DurationMS,
		entry.Error,
	)
	if err != nil {
		return fmt.Errorf("history add: %w", err)
	}
	return nil
}

// Search returns entries whose database, source or table list matches the
// SQL LIKE pattern. Results are ordered by most recent first, limited to
// limit rows.
func (h *History) Search(pattern string, limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT `+selectColumns+`
		 FROM exports
		 WHERE tables LIKE ?1 OR database_name LIKE ?1 OR source LIKE ?1
		 ORDER BY exported_at DESC, id DESC
		 LIMIT ?2`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history search: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Recent returns the most recent history entries, limited to limit rows.
func (h *History) Recent(limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT `+selectColumns+`
		 FROM exports
		 ORDER BY exported_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Clear deletes all history entries.
func (h *History) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM exports`); err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// scanEntries reads all rows from the result set into a slice of Entry.
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var runID, adapter, dbName, source, tables, out, checksum, errText sql.NullString
		var bytes, duration sql.NullInt64
		if err := rows.Scan(
			&e.ID,
			&runID,
			&e.Format,
			&adapter,
			&dbName,
			&source,
			&tables,
			&out,
			&bytes,
			&checksum,
			&e.ExportedAt,
			&duration,
			&errText,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.RunID = runID.String
		e.Adapter = adapter.String
		e.DatabaseName = dbName.String
		e.Source = source.String
		if tables.String != "" {
			e.Tables = strings.Split(tables.String, ",")
		}
		e.Output = out.String
		e.Bytes = bytes.Int64
		e.Checksum = checksum.String
		e.DurationMS = duration.Int64
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}
