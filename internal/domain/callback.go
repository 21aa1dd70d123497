package domain

import (
	"fmt"
	"strings"
)

// CallbackKind is the closed set of inline-button actions.
type CallbackKind int

const (
	CallbackConfirm CallbackKind = iota + 1
	CallbackReject
	CallbackSelect
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackConfirm:
		return "confirm"
	case CallbackReject:
		return "reject"
	case CallbackSelect:
		return "select"
	default:
		return "unknown"
	}
}

// Callback is a parsed inline-button token. Label is only set for CallbackSelect.
type Callback struct {
	Kind  CallbackKind
	Label Emotion
}

const (
	tokenConfirm      = "feedback_yes"
	tokenReject       = "feedback_no"
	tokenSelectPrefix = "emotion_"
)

// ParseCallback decodes an opaque button token. Unknown tokens return ErrUnknownCallback.
func ParseCallback(token string) (Callback, error) {
	switch {
	case token == tokenConfirm:
		return Callback{Kind: CallbackConfirm}, nil
	case token == tokenReject:
		return Callback{Kind: CallbackReject}, nil
	case strings.HasPrefix(token, tokenSelectPrefix):
		label, err := ParseEmotion(strings.TrimPrefix(token, tokenSelectPrefix))
		if err != nil {
			return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, token)
		}
		return Callback{Kind: CallbackSelect, Label: label}, nil
	default:
		return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, token)
	}
}

// Token encodes the callback for an inline button.
func (c Callback) Token() string {
	switch c.Kind {
	case CallbackConfirm:
		return tokenConfirm
	case CallbackReject:
		return tokenReject
	case CallbackSelect:
		return tokenSelectPrefix + c.Label.String()
	default:
		return ""
	}
}
