package memory

import (
	"context"

	"github.com/dotsetgreg/taskwise/pkg/logger"
	"github.com/dotsetgreg/taskwise/pkg/utils"
)

// Gateway is the conversation-history surface the dialogue layer talks to.
// Storage failures are logged and swallowed so a broken history store never
// blocks a user-facing turn; the affected entry is simply lost.
type Gateway struct {
	store Store
}

func NewGateway(store Store) *Gateway {
	return &Gateway{store: store}
}

// Append records one message. Never returns an error.
func (g *Gateway) Append(ctx context.Context, sessionID string, role Role, content string) {
	if _, err := g.store.Append(ctx, sessionID, role, content); err != nil {
		logger.WarnCF("memory", "Failed to append message, entry lost", map[string]any{
			"session_id": sessionID,
			"role":       string(role),
			"preview":    utils.Truncate(content, 50),
			"error":      err.Error(),
		})
	}
}

// Recent returns up to limit messages in chronological order. On storage
// failure it logs and returns an empty history.
func (g *Gateway) Recent(ctx context.Context, sessionID string, limit int) []Message {
	msgs, err := g.store.Recent(ctx, sessionID, limit)
	if err != nil {
		logger.WarnCF("memory", "Failed to fetch recent messages", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil
	}
	return msgs
}

// Truncate drops the session's history.
func (g *Gateway) Truncate(ctx context.Context, sessionID string) (int, error) {
	return g.store.Truncate(ctx, sessionID)
}
