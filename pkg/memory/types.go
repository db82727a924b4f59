// Package memory stores per-session conversation history.
package memory

import (
	"context"
	"fmt"
)

// Role identifies who produced a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one entry in a session's conversation log.
type Message struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	CreatedAtMS int64  `json:"created_at_ms"`
}

// Session is the aggregate view of one conversation.
type Session struct {
	ID           string `json:"id"`
	CreatedAtMS  int64  `json:"created_at_ms"`
	UpdatedAtMS  int64  `json:"updated_at_ms"`
	MessageCount int    `json:"message_count"`
}

// NewMessage validates the role and builds an unsaved message.
func NewMessage(sessionID string, role Role, content string) (Message, error) {
	if !role.Valid() {
		return Message{}, fmt.Errorf("invalid message role %q", role)
	}
	return Message{SessionID: sessionID, Role: role, Content: content}, nil
}

// Store provides durable persistence for conversation history.
type Store interface {
	Close() error
	Append(ctx context.Context, sessionID string, role Role, content string) (Message, error)
	Recent(ctx context.Context, sessionID string, limit int) ([]Message, error)
	Truncate(ctx context.Context, sessionID string) (int, error)
	ListSessions(ctx context.Context, limit int) ([]Session, error)
}
