package domain

// ConversationState is where a user stands in the feedback cycle.
type ConversationState int

const (
	StateIdle ConversationState = iota
	StateAwaitingFeedback
	StateAwaitingCorrection
)

func (s ConversationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFeedback:
		return "awaiting_feedback"
	case StateAwaitingCorrection:
		return "awaiting_correction"
	default:
		return "unknown"
	}
}

// Session tracks one unresolved feedback cycle. At most one exists per user.
type Session struct {
	UserID   int64
	Text     string // normalized
	Proposed Emotion
	Language Language
	Message  MessageRef
	State    ConversationState
}
