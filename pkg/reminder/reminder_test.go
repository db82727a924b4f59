package reminder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dotsetgreg/taskwise/pkg/bus"
	"github.com/dotsetgreg/taskwise/pkg/config"
	"github.com/dotsetgreg/taskwise/pkg/tasks"
)

type staticSource struct {
	due []tasks.Task
}

func (s *staticSource) DuePending(_ context.Context, _ int64) ([]tasks.Task, error) {
	return s.due, nil
}

func newTestService(t *testing.T, source TaskSource) (*Service, *bus.MessageBus) {
	t.Helper()
	b := bus.NewMessageBus()
	svc, err := NewService(source, b, config.RemindersConfig{
		Enabled:  true,
		Schedule: "* * * * *",
		Channel:  "discord",
		ChatID:   "chan-1",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, b
}

func TestInvalidScheduleRejected(t *testing.T) {
	_, err := NewService(&staticSource{}, bus.NewMessageBus(), config.RemindersConfig{
		Schedule: "not a cron line",
	})
	if err == nil {
		t.Fatal("expected an error for a bad schedule")
	}
}

func TestSweepPublishesOverdueReminder(t *testing.T) {
	source := &staticSource{due: []tasks.Task{
		{ID: "tsk-1", Title: "Buy milk", DueAtMS: 1000},
	}}
	svc, b := newTestService(t, source)

	svc.sweep(context.Background(), time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msg, ok := b.SubscribeOutbound(ctx)
	if !ok {
		t.Fatal("expected a reminder on the bus")
	}
	if msg.Channel != "discord" || msg.ChatID != "chan-1" {
		t.Errorf("reminder routed to %s/%s", msg.Channel, msg.ChatID)
	}
	if !strings.Contains(msg.Content, "Buy milk") || !strings.Contains(msg.Content, "overdue") {
		t.Errorf("unexpected reminder text: %q", msg.Content)
	}
}

func TestSweepNotifiesEachTaskOnce(t *testing.T) {
	source := &staticSource{due: []tasks.Task{
		{ID: "tsk-1", Title: "Buy milk", DueAtMS: 1000},
	}}
	svc, b := newTestService(t, source)

	svc.sweep(context.Background(), time.Now())
	svc.sweep(context.Background(), time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, ok := b.SubscribeOutbound(ctx); !ok {
		t.Fatal("first reminder missing")
	}
	cancel()

	drained, cancel2 := context.WithCancel(context.Background())
	cancel2()
	if _, ok := b.SubscribeOutbound(drained); ok {
		t.Error("second sweep should not repeat the reminder")
	}
}

func TestStartStop(t *testing.T) {
	svc, _ := newTestService(t, &staticSource{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	svc.Stop()
	svc.Stop() // idempotent
}
