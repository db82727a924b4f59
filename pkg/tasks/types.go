// Package tasks owns the todo task model and its persistent store.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	// ErrNotFound reports that no task matched the given id for the user.
	ErrNotFound = errors.New("task not found")
	// ErrInvalid reports a task that failed validation.
	ErrInvalid = errors.New("invalid task")
)

// Task is one todo item owned by a single user.
type Task struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Completed   bool   `json:"completed"`
	DueAtMS     int64  `json:"due_at_ms"`
	CreatedAtMS int64  `json:"created_at_ms"`
	UpdatedAtMS int64  `json:"updated_at_ms"`
}

// Update carries the fields of a partial task update. Nil means unchanged.
type Update struct {
	Title       *string
	Description *string
	Priority    *string
	DueAtMS     *int64
}

// Store is the persistence contract the dialogue layer depends on.
type Store interface {
	Close() error
	Create(ctx context.Context, t Task) (Task, error)
	Get(ctx context.Context, id, userID string) (Task, error)
	List(ctx context.Context, userID string) ([]Task, error)
	Update(ctx context.Context, id, userID string, upd Update) (Task, error)
	SetCompleted(ctx context.Context, id, userID string, completed bool) (Task, error)
	Delete(ctx context.Context, id, userID string) error
}

// Validate normalizes and checks the task fields, filling defaults.
func (t *Task) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if len(t.Title) > maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalid, maxTitleLen)
	}
	if len(t.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalid, maxDescriptionLen)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalid, t.Priority)
	}
	return nil
}
