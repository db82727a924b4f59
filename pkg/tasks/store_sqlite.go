package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the canonical persistent task storage.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates/opens the task database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create task db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process store. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA temp_store=MEMORY;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT 'medium',
			completed INTEGER NOT NULL DEFAULT 0,
			due_at_ms INTEGER NOT NULL DEFAULT 0,
			created_at_ms INTEGER NOT NULL,
			updated_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS tasks_user_idx ON tasks(user_id, created_at_ms);`,
		`CREATE INDEX IF NOT EXISTS tasks_due_idx ON tasks(completed, due_at_ms);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init task schema: %w", err)
		}
	}
	return nil
}

func nowMS() int64 {
	return time.Now().UnixMilli()
}

func (s *SQLiteStore) Create(ctx context.Context, t Task) (Task, error) {
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	if t.ID == "" {
		t.ID = "tsk-" + uuid.NewString()
	}
	now := nowMS()
	t.CreatedAtMS = now
	t.UpdatedAtMS = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, priority, completed, due_at_ms, created_at_ms, updated_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, t.Priority, boolToInt(t.Completed), t.DueAtMS, t.CreatedAtMS, t.UpdatedAtMS)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id, userID string) (Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, priority, completed, due_at_ms, created_at_ms, updated_at_ms
		 FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns the user's tasks in creation order.
func (s *SQLiteStore) List(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, priority, completed, due_at_ms, created_at_ms, updated_at_ms
		 FROM tasks WHERE user_id = ? ORDER BY created_at_ms ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id, userID string, upd Update) (Task, error) {
	t, err := s.Get(ctx, id, userID)
	if err != nil {
		return Task{}, err
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.DueAtMS != nil {
		t.DueAtMS = *upd.DueAtMS
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	t.UpdatedAtMS = nowMS()

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, priority = ?, due_at_ms = ?, updated_at_ms = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title, t.Description, t.Priority, t.DueAtMS, t.UpdatedAtMS, id, userID)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (s *SQLiteStore) SetCompleted(ctx context.Context, id, userID string, completed bool) (Task, error) {
	now := nowMS()
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = ?, updated_at_ms = ? WHERE id = ? AND user_id = ?`,
		boolToInt(completed), now, id, userID)
	if err != nil {
		return Task{}, fmt.Errorf("set task completed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, ErrNotFound
	}
	return s.Get(ctx, id, userID)
}

func (s *SQLiteStore) Delete(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DuePending returns pending tasks with a due timestamp at or before cutoff,
// across all users, ordered by due time.
func (s *SQLiteStore) DuePending(ctx context.Context, cutoffMS int64) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, priority, completed, due_at_ms, created_at_ms, updated_at_ms
		 FROM tasks WHERE completed = 0 AND due_at_ms > 0 AND due_at_ms <= ?
		 ORDER BY due_at_ms ASC`, cutoffMS)
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due tasks: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (Task, error) {
	var t Task
	var completed int
	err := r.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority,
		&completed, &t.DueAtMS, &t.CreatedAtMS, &t.UpdatedAtMS)
	if err != nil {
		return Task{}, err
	}
	t.Completed = completed != 0
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
