package domain

import "context"

// Button is one inline control. Token is opaque to the transport.
type Button struct {
	Text  string
	Token string
}

// Keyboard is a grid of inline buttons, row by row. A nil keyboard removes controls.
type Keyboard [][]Button

// Outgoing is a message to render. When MediaPath is set the text becomes the caption.
type Outgoing struct {
	Text      string
	MediaPath string
	Keyboard  Keyboard
}

// MessageRef identifies a rendered message so it can be edited or deleted later.
type MessageRef struct {
	ChatID    int64
	MessageID int
	Media     bool
}

// ChatTransport is the outbound side of the chat platform.
type ChatTransport interface {
	Send(ctx context.Context, chatID int64, msg Outgoing) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string, keyboard Keyboard) error
	Delete(ctx context.Context, ref MessageRef) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// MediaResolver maps a label and language to an animation on disk.
type MediaResolver interface {
	Path(label Emotion, lang Language) (string, bool)
}
