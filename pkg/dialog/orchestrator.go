// Package dialog turns free-form utterances into task operations or chat
// replies. The orchestrator holds no per-turn state of its own; everything
// durable lives behind the task store and the memory gateway.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dotsetgreg/taskwise/pkg/intent"
	"github.com/dotsetgreg/taskwise/pkg/logger"
	"github.com/dotsetgreg/taskwise/pkg/memory"
	"github.com/dotsetgreg/taskwise/pkg/providers"
	"github.com/dotsetgreg/taskwise/pkg/resolve"
	"github.com/dotsetgreg/taskwise/pkg/tasks"
)

var (
	createPrefixRe = regexp.MustCompile(`(?i)^(add|create)\s+`)
	deleteWordsRe  = regexp.MustCompile(`(?i)\b(delete|remove)\b`)
	updatePrefixRe = regexp.MustCompile(`(?i)^(update|edit|change|modify)\s+`)
	updateSplitRe  = regexp.MustCompile(`(?i)\s+to\s+`)
	completeFillRe = regexp.MustCompile(`(?i)\b(complete|done|finish|mark|in|is)\b`)
)

// negationWords flip a completion request into "mark pending". Matched
// against whole words, so "lunch" does not read as an undo.
var negationWords = map[string]bool{
	"not":        true,
	"undo":       true,
	"un":         true,
	"pending":    true,
	"incomplete": true,
}

// Turn is the caller-facing outcome of one processed utterance.
type Turn struct {
	Response     string
	RefreshTasks bool
	Optimistic   bool
}

// Options tune the orchestrator; zero values fall back to sane defaults.
type Options struct {
	Model        string
	HistoryLimit int
	MaxTokens    int
	Temperature  float64
}

// Orchestrator dispatches utterances to task operations with a generic chat
// fallback. Collaborators are injected; it owns none of them.
type Orchestrator struct {
	store    tasks.Store
	memory   *memory.Gateway
	provider providers.LLMProvider
	opts     Options
}

func NewOrchestrator(store tasks.Store, mem *memory.Gateway, provider providers.LLMProvider, opts Options) *Orchestrator {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 8
	}
	return &Orchestrator{
		store:    store,
		memory:   mem,
		provider: provider,
		opts:     opts,
	}
}

// ProcessTurn runs one utterance through the full turn lifecycle: record it,
// classify it, dispatch, record the reply. Low-confidence classifications
// degrade to chat; store or provider faults abort the turn and propagate.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID, userID, utterance string) (Turn, error) {
	o.memory.Append(ctx, sessionID, memory.RoleUser, utterance)

	result := intent.Classify(utterance)
	label := result.Label
	if result.Confidence < intent.ConfidenceThreshold {
		label = intent.Chat
	}

	logger.DebugCF("dialog", "Classified utterance", map[string]any{
		"session_id": sessionID,
		"intent":     string(label),
		"confidence": fmt.Sprintf("%.2f", result.Confidence),
	})

	var turn Turn
	var err error
	switch label {
	case intent.Create:
		turn, err = o.handleCreate(ctx, userID, utterance)
	case intent.Delete:
		turn, err = o.handleDelete(ctx, userID, utterance)
	case intent.Update:
		turn, err = o.handleUpdate(ctx, userID, utterance)
	case intent.Complete:
		turn, err = o.handleComplete(ctx, userID, utterance)
	case intent.List:
		turn, err = o.handleList(ctx, userID)
	default:
		// confirm has no pending action to apply, so it chats too.
		turn, err = o.handleChat(ctx, sessionID, utterance)
	}
	if err != nil {
		return Turn{}, err
	}

	o.memory.Append(ctx, sessionID, memory.RoleAssistant, turn.Response)
	return turn, nil
}

func (o *Orchestrator) handleCreate(ctx context.Context, userID, utterance string) (Turn, error) {
	title := strings.TrimSpace(createPrefixRe.ReplaceAllString(utterance, ""))

	existing, err := o.store.List(ctx, userID)
	if err != nil {
		return Turn{}, fmt.Errorf("list tasks for duplicate check: %w", err)
	}
	if dups := tasks.FindDuplicates(title, existing); len(dups) > 0 {
		logger.WarnCF("dialog", "Creating likely duplicate task", map[string]any{
			"title":    title,
			"existing": dups[0].Title,
		})
	}

	created, err := o.store.Create(ctx, tasks.Task{
		UserID:      userID,
		Title:       capitalize(title),
		Description: title,
		Priority:    tasks.PriorityMedium,
	})
	if err != nil {
		return Turn{}, fmt.Errorf("create task: %w", err)
	}

	return Turn{
		Response:     fmt.Sprintf("🚀 Task '%s' created.", created.Title),
		RefreshTasks: true,
		Optimistic:   true,
	}, nil
}

func (o *Orchestrator) handleDelete(ctx context.Context, userID, utterance string) (Turn, error) {
	list, err := o.store.List(ctx, userID)
	if err != nil {
		return Turn{}, fmt.Errorf("list tasks: %w", err)
	}

	search := collapseSpaces(deleteWordsRe.ReplaceAllString(utterance, ""))
	match := resolve.Resolve(search, list)
	if match.TaskID == "" {
		return Turn{Response: "Task not found."}, nil
	}

	if err := o.store.Delete(ctx, match.TaskID, userID); err != nil {
		return Turn{}, fmt.Errorf("delete task: %w", err)
	}

	return Turn{
		Response:     fmt.Sprintf("✅ '%s' deleted.", match.Title),
		RefreshTasks: true,
	}, nil
}

func (o *Orchestrator) handleUpdate(ctx context.Context, userID, utterance string) (Turn, error) {
	list, err := o.store.List(ctx, userID)
	if err != nil {
		return Turn{}, fmt.Errorf("list tasks: %w", err)
	}
	if len(list) == 0 {
		return Turn{Response: "You have no tasks to update."}, nil
	}

	cleaned := updatePrefixRe.ReplaceAllString(utterance, "")
	parts := updateSplitRe.Split(cleaned, 2)
	if len(parts) != 2 {
		return Turn{Response: "Use format: update <task> to <new description>"}, nil
	}
	search := strings.TrimSpace(parts[0])
	newDesc := strings.TrimSpace(parts[1])

	match := resolve.Resolve(search, list)
	if match.TaskID == "" {
		return Turn{Response: "Task not found."}, nil
	}

	if _, err := o.store.Update(ctx, match.TaskID, userID, tasks.Update{Description: &newDesc}); err != nil {
		// Expected store outcomes surface as a user-visible failure; real
		// faults propagate.
		if errors.Is(err, tasks.ErrNotFound) || errors.Is(err, tasks.ErrInvalid) {
			return Turn{Response: "Update failed."}, nil
		}
		return Turn{}, fmt.Errorf("update task: %w", err)
	}

	return Turn{
		Response:     "✏️ Task updated successfully.",
		RefreshTasks: true,
		Optimistic:   true,
	}, nil
}

func (o *Orchestrator) handleComplete(ctx context.Context, userID, utterance string) (Turn, error) {
	list, err := o.store.List(ctx, userID)
	if err != nil {
		return Turn{}, fmt.Errorf("list tasks: %w", err)
	}

	target := !containsNegation(utterance)
	search := collapseSpaces(completeFillRe.ReplaceAllString(utterance, ""))

	match := resolve.Resolve(search, list)
	if match.TaskID == "" {
		return Turn{Response: "Task not found."}, nil
	}

	if _, err := o.store.SetCompleted(ctx, match.TaskID, userID, target); err != nil {
		return Turn{}, fmt.Errorf("set task completion: %w", err)
	}

	status := "completed ✅"
	if !target {
		status = "marked pending ↩️"
	}
	return Turn{
		Response:     fmt.Sprintf("'%s' %s.", match.Title, status),
		RefreshTasks: true,
		Optimistic:   true,
	}, nil
}

func (o *Orchestrator) handleList(ctx context.Context, userID string) (Turn, error) {
	list, err := o.store.List(ctx, userID)
	if err != nil {
		return Turn{}, fmt.Errorf("list tasks: %w", err)
	}
	if len(list) == 0 {
		return Turn{Response: "No tasks found."}, nil
	}

	lines := make([]string, 0, len(list))
	for _, t := range list {
		state := "Pending"
		if t.Completed {
			state = "Done"
		}
		lines = append(lines, fmt.Sprintf("• %s (%s)", t.Title, state))
	}
	return Turn{Response: "📋 Your Tasks:\n\n" + strings.Join(lines, "\n")}, nil
}

func (o *Orchestrator) handleChat(ctx context.Context, sessionID, utterance string) (Turn, error) {
	history := o.memory.Recent(ctx, sessionID, o.opts.HistoryLimit)

	var b strings.Builder
	b.WriteString("Conversation:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("User: " + utterance)

	options := map[string]interface{}{}
	if o.opts.MaxTokens > 0 {
		options["max_tokens"] = o.opts.MaxTokens
	}
	if o.opts.Temperature > 0 {
		options["temperature"] = o.opts.Temperature
	}

	resp, err := o.provider.Chat(ctx, []providers.Message{{Role: "user", Content: b.String()}}, o.opts.Model, options)
	if err != nil {
		return Turn{}, fmt.Errorf("chat completion: %w", err)
	}
	return Turn{Response: resp.Content}, nil
}

func containsNegation(utterance string) bool {
	for _, word := range strings.FieldsFunc(strings.ToLower(utterance), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if negationWords[word] {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capitalize upper-cases the first rune and lower-cases the rest, the way
// task titles are normalized on creation.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
