// Package bus decouples chat channels from the dialogue loop with buffered
// inbound/outbound queues.
package bus

// InboundMessage is a user utterance arriving from a channel.
type InboundMessage struct {
	Channel    string            // originating channel name, e.g. "discord", "cli"
	SenderID   string            // channel-level sender identifier
	ChatID     string            // channel-level conversation identifier
	UserID     string            // task-store owner the sender maps to
	SessionKey string            // "<channel>:<chat_id>", keys conversation memory
	Content    string
	Metadata   map[string]string
}

// OutboundMessage is a rendered assistant response headed back to a channel.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
}
