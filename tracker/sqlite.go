package tracker

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loving2/Chisels-and-Bits/define"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS changes (
		change_id  TEXT PRIMARY KEY,
		sequence   INTEGER NOT NULL,
		x          INTEGER NOT NULL,
		y          INTEGER NOT NULL,
		z          INTEGER NOT NULL,
		size       INTEGER NOT NULL,
		before     BLOB NOT NULL,
		after      BLOB NOT NULL,
		created_ns INTEGER NOT NULL,
		undone     INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_changes_sequence ON changes (sequence);
`

// SQLiteJournal is a Journal storing changes in a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

// OpenSQLiteJournal opens the SQLite database at path, creating it and its schema if needed. A path of
// ":memory:" opens a journal that lives only as long as the process.
func OpenSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	j, err := NewSQLiteJournal(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// NewSQLiteJournal creates a journal on an open database, creating its schema if needed.
func NewSQLiteJournal(db *sql.DB) (*SQLiteJournal, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Append ...
func (j *SQLiteJournal) Append(c Change) error {
	query := `
		INSERT INTO changes (
			change_id, sequence, x, y, z, size, before, after, created_ns, undone
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.Exec(query,
		c.ID.String(),
		c.Sequence,
		c.Pos[0], c.Pos[1], c.Pos[2],
		c.Size,
		c.Before,
		c.After,
		c.Time.UnixNano(),
		c.Undone,
	)
	if err != nil {
		return fmt.Errorf("insert change: %w", err)
	}
	return nil
}

// SetUndone ...
func (j *SQLiteJournal) SetUndone(id uuid.UUID, undone bool) error {
	res, err := j.db.Exec(`UPDATE changes SET undone = ? WHERE change_id = ?`, undone, id.String())
	if err != nil {
		return fmt.Errorf("update change: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update change: no change with ID %v", id)
	}
	return nil
}

// DiscardUndone ...
func (j *SQLiteJournal) DiscardUndone() error {
	if _, err := j.db.Exec(`DELETE FROM changes WHERE undone = 1`); err != nil {
		return fmt.Errorf("delete undone changes: %w", err)
	}
	return nil
}

// Load ...
func (j *SQLiteJournal) Load(limit int) ([]Change, error) {
	query := `
		SELECT change_id, sequence, x, y, z, size, before, after, created_ns, undone
		FROM (
			SELECT * FROM changes ORDER BY sequence DESC LIMIT ?
		)
		ORDER BY sequence
	`
	rows, err := j.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var changes []Change
	for rows.Next() {
		var (
			c         Change
			id        string
			x, y, z   int
			createdNs int64
		)
		if err := rows.Scan(&id, &c.Sequence, &x, &y, &z, &c.Size, &c.Before, &c.After, &createdNs, &c.Undone); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse change ID %q: %w", id, err)
		}
		c.Pos = define.Pos{x, y, z}
		c.Time = time.Unix(0, createdNs)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
