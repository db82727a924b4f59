package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dotsetgreg/taskwise/pkg/memory"
	"github.com/dotsetgreg/taskwise/pkg/providers"
	"github.com/dotsetgreg/taskwise/pkg/tasks"
)

type fakeTaskStore struct {
	tasks   []tasks.Task
	nextID  int
	listErr error
}

func (f *fakeTaskStore) Close() error { return nil }

func (f *fakeTaskStore) Create(_ context.Context, t tasks.Task) (tasks.Task, error) {
	if err := t.Validate(); err != nil {
		return tasks.Task{}, err
	}
	f.nextID++
	t.ID = fmt.Sprintf("tsk-%d", f.nextID)
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeTaskStore) Get(_ context.Context, id, userID string) (tasks.Task, error) {
	for _, t := range f.tasks {
		if t.ID == id && t.UserID == userID {
			return t, nil
		}
	}
	return tasks.Task{}, tasks.ErrNotFound
}

func (f *fakeTaskStore) List(_ context.Context, userID string) ([]tasks.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []tasks.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) Update(_ context.Context, id, userID string, upd tasks.Update) (tasks.Task, error) {
	for i, t := range f.tasks {
		if t.ID == id && t.UserID == userID {
			if upd.Description != nil {
				f.tasks[i].Description = *upd.Description
			}
			if upd.Title != nil {
				f.tasks[i].Title = *upd.Title
			}
			return f.tasks[i], nil
		}
	}
	return tasks.Task{}, tasks.ErrNotFound
}

func (f *fakeTaskStore) SetCompleted(_ context.Context, id, userID string, completed bool) (tasks.Task, error) {
	for i, t := range f.tasks {
		if t.ID == id && t.UserID == userID {
			f.tasks[i].Completed = completed
			return f.tasks[i], nil
		}
	}
	return tasks.Task{}, tasks.ErrNotFound
}

func (f *fakeTaskStore) Delete(_ context.Context, id, userID string) error {
	for i, t := range f.tasks {
		if t.ID == id && t.UserID == userID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return tasks.ErrNotFound
}

type fakeMemStore struct {
	messages  []memory.Message
	appendErr error
}

func (f *fakeMemStore) Close() error { return nil }

func (f *fakeMemStore) Append(_ context.Context, sessionID string, role memory.Role, content string) (memory.Message, error) {
	if f.appendErr != nil {
		return memory.Message{}, f.appendErr
	}
	msg, err := memory.NewMessage(sessionID, role, content)
	if err != nil {
		return memory.Message{}, err
	}
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeMemStore) Recent(_ context.Context, sessionID string, limit int) ([]memory.Message, error) {
	var out []memory.Message
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeMemStore) Truncate(_ context.Context, sessionID string) (int, error) { return 0, nil }

func (f *fakeMemStore) ListSessions(_ context.Context, limit int) ([]memory.Session, error) {
	return nil, nil
}

type fakeProvider struct {
	lastPrompt string
	reply      string
	err        error
	calls      int
}

func (f *fakeProvider) Chat(_ context.Context, messages []providers.Message, _ string, _ map[string]interface{}) (*providers.LLMResponse, error) {
	f.calls++
	if len(messages) > 0 {
		f.lastPrompt = messages[len(messages)-1].Content
	}
	if f.err != nil {
		return nil, f.err
	}
	return &providers.LLMResponse{Content: f.reply, FinishReason: "stop"}, nil
}

func (f *fakeProvider) GetDefaultModel() string { return "fake-model" }

type fixture struct {
	orch     *Orchestrator
	store    *fakeTaskStore
	mem      *fakeMemStore
	provider *fakeProvider
}

func newFixture() *fixture {
	store := &fakeTaskStore{}
	mem := &fakeMemStore{}
	provider := &fakeProvider{reply: "sure, happy to chat"}
	orch := NewOrchestrator(store, memory.NewGateway(mem), provider, Options{})
	return &fixture{orch: orch, store: store, mem: mem, provider: provider}
}

func (fx *fixture) seed(t *testing.T, titles ...string) {
	t.Helper()
	for _, title := range titles {
		if _, err := fx.store.Create(context.Background(), tasks.Task{UserID: "u1", Title: title}); err != nil {
			t.Fatalf("seed task %q: %v", title, err)
		}
	}
}

func TestCreateTurn(t *testing.T) {
	fx := newFixture()

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "add buy milk")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if !strings.Contains(turn.Response, "Buy milk") || !strings.Contains(turn.Response, "created") {
		t.Errorf("response should acknowledge creation by title: %q", turn.Response)
	}
	if !turn.RefreshTasks || !turn.Optimistic {
		t.Errorf("create should signal refresh and optimistic, got %+v", turn)
	}
	if len(fx.store.tasks) != 1 || fx.store.tasks[0].Title != "Buy milk" {
		t.Fatalf("expected task 'Buy milk' in store, got %+v", fx.store.tasks)
	}
	if fx.store.tasks[0].Description != "buy milk" {
		t.Errorf("description should keep the raw stripped text, got %q", fx.store.tasks[0].Description)
	}
}

func TestDeleteTurn(t *testing.T) {
	fx := newFixture()
	fx.seed(t, "Buy milk", "Clean house")

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "delete buy milk")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if !strings.Contains(turn.Response, "Buy milk") || !strings.Contains(turn.Response, "deleted") {
		t.Errorf("response should confirm deletion by title: %q", turn.Response)
	}
	if !turn.RefreshTasks {
		t.Error("delete should signal refresh")
	}
	if len(fx.store.tasks) != 1 || fx.store.tasks[0].Title != "Clean house" {
		t.Fatalf("wrong task deleted: %+v", fx.store.tasks)
	}
}

func TestDeleteNotFound(t *testing.T) {
	fx := newFixture()
	fx.seed(t, "Buy milk")

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "delete the quarterly report")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.Response != "Task not found." {
		t.Errorf("got %q, want %q", turn.Response, "Task not found.")
	}
	if turn.RefreshTasks {
		t.Error("failed delete should not signal refresh")
	}
	if len(fx.store.tasks) != 1 {
		t.Error("no task should have been deleted")
	}
}

func TestUpdateTurn(t *testing.T) {
	fx := newFixture()
	fx.seed(t, "Buy milk")

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "update buy milk to two gallons")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if !strings.Contains(turn.Response, "Task updated successfully.") {
		t.Errorf("unexpected response: %q", turn.Response)
	}
	if !turn.RefreshTasks || !turn.Optimistic {
		t.Errorf("update should signal refresh and optimistic, got %+v", turn)
	}
	if fx.store.tasks[0].Description != "two gallons" {
		t.Fatalf("description not updated: %+v", fx.store.tasks[0])
	}
}

func TestUpdateUsageHint(t *testing.T) {
	fx := newFixture()
	fx.seed(t, "Buy milk")

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "update buy milk")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.Response != "Use format: update <task> to <new description>" {
		t.Errorf("got %q", turn.Response)
	}
	if fx.store.tasks[0].Description != "" {
		t.Error("malformed update must not touch the task")
	}
}

func TestUpdateWithNoTasks(t *testing.T) {
	fx := newFixture()

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "update buy milk to two gallons")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.Response != "You have no tasks to update." {
		t.Errorf("got %q", turn.Response)
	}
}

func TestCompleteTurn(t *testing.T) {
	fx := newFixture()
	fx.seed(t, "Buy milk")

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "complete buy milk")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if !strings.Contains(turn.Response, "completed ✅") {
		t.Errorf("response should contain completion marker: %q", turn.Response)
	}
	if !fx.store.tasks[0].Completed {
		t.Fatal("task should be completed")
	}
}

func TestCompleteNegation(t *testing.T) {
	fx := newFixture()
	fx.seed(t, "Buy milk")
	fx.store.tasks[0].Completed = true

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "mark buy milk as not done")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if !strings.Contains(turn.Response, "marked pending") {
		t.Errorf("response should mention pending: %q", turn.Response)
	}
	if fx.store.tasks[0].Completed {
		t.Fatal("task should be pending again")
	}
}

func TestCompleteNegationNeedsWholeWord(t *testing.T) {
	fx := newFixture()
	fx.seed(t, "Prepare lunch")

	// "lunch" contains "un" but is not a negation.
	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "complete prepare lunch")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if !strings.Contains(turn.Response, "completed ✅") {
		t.Errorf("expected completion, got %q", turn.Response)
	}
	if !fx.store.tasks[0].Completed {
		t.Fatal("task should be completed")
	}
}

func TestListTurn(t *testing.T) {
	fx := newFixture()
	fx.seed(t, "Buy milk", "Clean house")
	fx.store.tasks[0].Completed = true

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "show my tasks")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if !strings.Contains(turn.Response, "• Buy milk (Done)") {
		t.Errorf("missing done entry: %q", turn.Response)
	}
	if !strings.Contains(turn.Response, "• Clean house (Pending)") {
		t.Errorf("missing pending entry: %q", turn.Response)
	}
	if turn.RefreshTasks {
		t.Error("list should not signal refresh")
	}
}

func TestListEmpty(t *testing.T) {
	fx := newFixture()

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "show my tasks")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.Response != "No tasks found." {
		t.Errorf("got %q", turn.Response)
	}
}

func TestGibberishFallsThroughToChat(t *testing.T) {
	fx := newFixture()

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "asdkjalksdj")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if fx.provider.calls != 1 {
		t.Fatalf("expected one completion call, got %d", fx.provider.calls)
	}
	if turn.Response != "sure, happy to chat" {
		t.Errorf("chat reply should be verbatim, got %q", turn.Response)
	}
	if len(fx.store.tasks) != 0 {
		t.Error("gibberish must not create tasks")
	}
}

func TestChatPromptIncludesHistory(t *testing.T) {
	fx := newFixture()

	if _, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "hello there"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "what was my greeting"); err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if !strings.HasPrefix(fx.provider.lastPrompt, "Conversation:\n") {
		t.Errorf("prompt should open with conversation block: %q", fx.provider.lastPrompt)
	}
	if !strings.Contains(fx.provider.lastPrompt, "hello there") {
		t.Errorf("prompt should carry prior history: %q", fx.provider.lastPrompt)
	}
	if !strings.HasSuffix(fx.provider.lastPrompt, "User: what was my greeting") {
		t.Errorf("prompt should end with the new utterance: %q", fx.provider.lastPrompt)
	}
}

func TestTurnRecordsUserAndAssistantMessages(t *testing.T) {
	fx := newFixture()

	if _, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "add buy milk"); err != nil {
		t.Fatalf("process turn: %v", err)
	}

	if len(fx.mem.messages) != 2 {
		t.Fatalf("expected exactly 2 persisted messages, got %d", len(fx.mem.messages))
	}
	if fx.mem.messages[0].Role != memory.RoleUser || fx.mem.messages[0].Content != "add buy milk" {
		t.Errorf("first message should be the user utterance: %+v", fx.mem.messages[0])
	}
	if fx.mem.messages[1].Role != memory.RoleAssistant {
		t.Errorf("second message should be the assistant reply: %+v", fx.mem.messages[1])
	}
}

func TestMemoryFailureDoesNotBlockTurn(t *testing.T) {
	fx := newFixture()
	fx.mem.appendErr = errors.New("disk full")

	turn, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "add buy milk")
	if err != nil {
		t.Fatalf("turn should survive memory failure: %v", err)
	}
	if !strings.Contains(turn.Response, "created") {
		t.Errorf("unexpected response: %q", turn.Response)
	}
	if len(fx.store.tasks) != 1 {
		t.Error("task should still be created")
	}
}

func TestStoreFaultPropagates(t *testing.T) {
	fx := newFixture()
	fx.store.listErr = errors.New("database locked")

	_, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "delete buy milk")
	if err == nil {
		t.Fatal("collaborator fault must propagate to the caller")
	}
}

func TestProviderFaultPropagates(t *testing.T) {
	fx := newFixture()
	fx.provider.err = errors.New("upstream 503")

	_, err := fx.orch.ProcessTurn(context.Background(), "s1", "u1", "tell me a joke")
	if err == nil {
		t.Fatal("provider fault must propagate to the caller")
	}
}
