// Package reminders persists reminders in SQLite and fires them when due.
package reminders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reminders (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	task TEXT NOT NULL,
	when_time TEXT NOT NULL,
	notes TEXT,
	completed INTEGER DEFAULT 0
);`

// createdAtLayout keeps a fixed-width fraction so lexical order on the
// column matches chronological order.
const createdAtLayout = "2006-01-02T15:04:05.000000Z07:00"

// Reminder is one stored reminder. When holds the due time as an ISO 8601
// string, kept exactly as written.
type Reminder struct {
	ID        string
	CreatedAt string
	Task      string
	When      string
	Notes     string
	Completed bool
}

// Store wraps the reminders database. The underlying pool serializes
// access, so it is safe to share between the agent loop and the poller.
type Store struct {
	db *sql.DB
}

// Open opens the reminder database at path, creating the file, its parent
// directory, and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a new reminder and returns the stored record.
func (s *Store) Add(ctx context.Context, task, when, notes string) (*Reminder, error) {
	task, err := requiredText(task, "task")
	if err != nil {
		return nil, err
	}
	when, err = requiredText(when, "when")
	if err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)

	r := &Reminder{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC().Format(createdAtLayout),
		Task:      task,
		When:      when,
		Notes:     notes,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reminders (id, created_at, task, when_time, notes) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt, r.Task, r.When, nullable(r.Notes))
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}

	return r, nil
}

// Get returns the reminder with the given id, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Reminder, error) {
	id, err := requiredText(id, "reminder_id")
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, task, when_time, notes, completed FROM reminders WHERE id = ?`, id)

	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query reminder: %w", err)
	}
	return r, nil
}

// ListActive returns reminders newest first. Completed reminders are
// filtered out unless includeCompleted is set.
func (s *Store) ListActive(ctx context.Context, includeCompleted bool) ([]Reminder, error) {
	query := `SELECT id, created_at, task, when_time, notes, completed FROM reminders
		 WHERE completed = 0 ORDER BY created_at DESC`
	if includeCompleted {
		query = `SELECT id, created_at, task, when_time, notes, completed FROM reminders
		 ORDER BY created_at DESC`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return out, nil
}

// MarkCompleted marks a reminder completed. Returns false when no row
// matched the id.
func (s *Store) MarkCompleted(ctx context.Context, id string) (bool, error) {
	id, err := requiredText(id, "reminder_id")
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE reminders SET completed = 1 WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("mark reminder completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Delete removes a reminder. Returns false when no row matched the id.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	id, err := requiredText(id, "reminder_id")
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(row scanner) (*Reminder, error) {
	var r Reminder
	var notes sql.NullString
	var completed int
	if err := row.Scan(&r.ID, &r.CreatedAt, &r.Task, &r.When, &notes, &completed); err != nil {
		return nil, err
	}
	r.Notes = notes.String
	r.Completed = completed != 0
	return &r, nil
}

func requiredText(value, field string) (string, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return "", fmt.Errorf("%s must be a non-empty string", field)
	}
	return cleaned, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
