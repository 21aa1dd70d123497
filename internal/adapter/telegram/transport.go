package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pscheid92/moodpulse/internal/domain"
)

// botAPI is the part of *tgbotapi.BotAPI the transport needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ domain.ChatTransport = (*Transport)(nil)

// Transport implements domain.ChatTransport on the Telegram Bot API. Every call
// is a single attempt; a failed send may already have been delivered.
type Transport struct {
	api botAPI
}

func NewTransport(api botAPI) *Transport {
	return &Transport{api: api}
}

// Send posts text, or an animation with the text as caption when MediaPath is set.
func (t *Transport) Send(_ context.Context, chatID int64, out domain.Outgoing) (domain.MessageRef, error) {
	var c tgbotapi.Chattable
	markup := toMarkup(out.Keyboard)

	if out.MediaPath != "" {
		anim := tgbotapi.NewAnimation(chatID, tgbotapi.FilePath(out.MediaPath))
		anim.Caption = out.Text
		if markup != nil {
			anim.ReplyMarkup = *markup
		}
		c = anim
	} else {
		msg := tgbotapi.NewMessage(chatID, out.Text)
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		c = msg
	}

	sent, err := t.api.Send(c)
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}

	ref := domain.MessageRef{ChatID: chatID, MessageID: sent.MessageID, Media: out.MediaPath != ""}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	return ref, nil
}

// Edit replaces the caption of a media message or the text of a plain one. A nil
// keyboard removes the buttons.
func (t *Transport) Edit(_ context.Context, ref domain.MessageRef, text string, keyboard domain.Keyboard) error {
	markup := toMarkup(keyboard)

	var c tgbotapi.Chattable
	if ref.Media {
		edit := tgbotapi.NewEditMessageCaption(ref.ChatID, ref.MessageID, text)
		edit.ReplyMarkup = markup
		c = edit
	} else {
		edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
		edit.ReplyMarkup = markup
		c = edit
	}

	_, err := t.api.Request(c)
	if isNotModified(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

func (t *Transport) Delete(_ context.Context, ref domain.MessageRef) error {
	if _, err := t.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (t *Transport) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := t.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// toMarkup converts a keyboard; empty keyboards become nil.
func toMarkup(keyboard domain.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(keyboard) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Token))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// apiError extracts the Bot API error regardless of whether it was returned by
// value or by pointer.
func apiError(err error) (tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val, true
	}
	return tgbotapi.Error{}, false
}

func isNotModified(err error) bool {
	apiErr, ok := apiError(err)
	return ok && strings.Contains(apiErr.Message, "message is not modified")
}
