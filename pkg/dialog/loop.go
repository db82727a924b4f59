package dialog

import (
	"context"
	"sync"

	"github.com/dotsetgreg/taskwise/pkg/bus"
	"github.com/dotsetgreg/taskwise/pkg/logger"
	"github.com/dotsetgreg/taskwise/pkg/utils"
)

const failureReply = "Sorry, something went wrong handling that. Please try again."

// Loop consumes inbound utterances from the bus, runs them through the
// orchestrator, and publishes the responses. Turns for different sessions
// run concurrently; the orchestrator itself is stateless across turns.
type Loop struct {
	orch *Orchestrator
	bus  *bus.MessageBus
	wg   sync.WaitGroup
}

func NewLoop(orch *Orchestrator, mb *bus.MessageBus) *Loop {
	return &Loop{orch: orch, bus: mb}
}

// Run blocks until ctx is cancelled or the bus closes, then waits for
// in-flight turns to finish.
func (l *Loop) Run(ctx context.Context) {
	logger.InfoC("dialog", "Dialogue loop started")
	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			break
		}
		l.wg.Add(1)
		go func(msg bus.InboundMessage) {
			defer l.wg.Done()
			l.handle(ctx, msg)
		}(msg)
	}
	l.wg.Wait()
	logger.InfoC("dialog", "Dialogue loop stopped")
}

func (l *Loop) handle(ctx context.Context, msg bus.InboundMessage) {
	logger.DebugCF("dialog", "Handling inbound message", map[string]any{
		"channel":     msg.Channel,
		"session_key": msg.SessionKey,
		"preview":     utils.Truncate(msg.Content, 50),
	})

	turn, err := l.orch.ProcessTurn(ctx, msg.SessionKey, msg.UserID, msg.Content)
	content := turn.Response
	if err != nil {
		logger.ErrorCF("dialog", "Turn failed", map[string]any{
			"session_key": msg.SessionKey,
			"error":       err.Error(),
		})
		content = failureReply
	}

	l.bus.PublishOutbound(bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: content,
	})
}
