package domain

import "context"

// InboundMessage is a text message from a user. Command is set (without the
// leading slash) when the message is a bot command.
type InboundMessage struct {
	UserID  int64
	ChatID  int64
	Text    string
	Command string
}

// InboundCallback is a pressed inline button, already decoded at the transport boundary.
type InboundCallback struct {
	ID       string
	UserID   int64
	Message  MessageRef
	Callback Callback
}

// Conversation is the inbound side of the bot: one call per chat event.
type Conversation interface {
	HandleMessage(ctx context.Context, msg InboundMessage)
	HandleCallback(ctx context.Context, cb InboundCallback)
}
