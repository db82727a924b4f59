package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndRecentChronological(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		if _, err := store.Append(ctx, "s1", RoleUser, c); err != nil {
			t.Fatalf("append %q: %v", c, err)
		}
	}

	msgs, err := store.Recent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range contents {
		if msgs[i].Content != want {
			t.Errorf("position %d: got %q, want %q", i, msgs[i].Content, want)
		}
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, c := range []string{"a", "b", "c", "d"} {
		if _, err := store.Append(ctx, "s1", RoleUser, c); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, err := store.Recent(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// The two most recent, still oldest first.
	if msgs[0].Content != "c" || msgs[1].Content != "d" {
		t.Errorf("unexpected window: %q, %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestAppendRejectsUnknownRole(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Append(context.Background(), "s1", Role("robot"), "hi"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, "s1", RoleUser, "for s1"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Append(ctx, "s2", RoleUser, "for s2"); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := store.Recent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "for s1" {
		t.Fatalf("session leak: %+v", msgs)
	}
}

func TestTruncate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Append(ctx, "s1", RoleAssistant, "msg"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	n, err := store.Truncate(ctx, "s1")
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 dropped messages, got %d", n)
	}

	msgs, err := store.Recent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty history after truncate, got %d", len(msgs))
	}
}

func TestListSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, "s1", RoleUser, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Append(ctx, "s1", RoleAssistant, "hi"); err != nil {
		t.Fatalf("append: %v", err)
	}

	sessions, err := store.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].ID != "s1" || sessions[0].MessageCount != 2 {
		t.Errorf("unexpected session: %+v", sessions[0])
	}
}
