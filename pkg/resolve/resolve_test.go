package resolve

import (
	"testing"

	"github.com/dotsetgreg/taskwise/pkg/tasks"
)

func TestResolveSubstringOverride(t *testing.T) {
	candidates := []tasks.Task{
		{ID: "t1", Title: "Buy milk"},
		{ID: "t2", Title: "Clean house"},
	}
	got := Resolve("milk", candidates)
	if got.TaskID != "t1" {
		t.Fatalf("expected t1, got %+v", got)
	}
	if got.Score < 90.0 {
		t.Errorf("substring match should score at least 90, got %v", got.Score)
	}
}

func TestResolveUnrelatedRejected(t *testing.T) {
	candidates := []tasks.Task{{ID: "t1", Title: "Buy milk"}}
	got := Resolve("xyz completely unrelated", candidates)
	if got.TaskID != "" {
		t.Fatalf("expected no match, got %+v", got)
	}
	if got.Score >= 50.0 {
		t.Errorf("score should be below threshold, got %v", got.Score)
	}
}

func TestResolveEmptyCandidates(t *testing.T) {
	got := Resolve("buy milk", nil)
	if got.TaskID != "" || got.Title != "" || got.Score != 0.0 {
		t.Fatalf("expected zero match for empty candidates, got %+v", got)
	}
}

func TestResolveExactTitle(t *testing.T) {
	candidates := []tasks.Task{
		{ID: "t1", Title: "Walk the dog"},
		{ID: "t2", Title: "Buy milk"},
	}
	got := Resolve("buy milk", candidates)
	if got.TaskID != "t2" {
		t.Fatalf("expected exact title to win, got %+v", got)
	}
}

func TestResolveReorderedTokens(t *testing.T) {
	candidates := []tasks.Task{{ID: "t1", Title: "Buy milk"}}
	got := Resolve("milk buy", candidates)
	if got.TaskID != "t1" {
		t.Fatalf("token order should not matter, got %+v", got)
	}
}

func TestResolveMatchesDescription(t *testing.T) {
	candidates := []tasks.Task{
		{ID: "t1", Title: "Errand", Description: "pick up the dry cleaning"},
		{ID: "t2", Title: "Chore", Description: ""},
	}
	got := Resolve("dry cleaning", candidates)
	if got.TaskID != "t1" {
		t.Fatalf("expected description match, got %+v", got)
	}
}

func TestResolveStableOnTies(t *testing.T) {
	candidates := []tasks.Task{
		{ID: "t1", Title: "Buy milk"},
		{ID: "t2", Title: "Buy milk"},
	}
	got := Resolve("buy milk", candidates)
	if got.TaskID != "t1" {
		t.Fatalf("first-seen candidate should win ties, got %+v", got)
	}
}

func TestResolveIdempotent(t *testing.T) {
	candidates := []tasks.Task{{ID: "t1", Title: "Buy milk"}}
	first := Resolve("milk", candidates)
	second := Resolve("milk", candidates)
	if first != second {
		t.Fatalf("resolution not stable: %+v vs %+v", first, second)
	}
}
