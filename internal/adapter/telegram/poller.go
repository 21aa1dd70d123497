package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/metrics"
	"github.com/pscheid92/moodpulse/internal/platform/correlation"
	"github.com/pscheid92/moodpulse/internal/platform/retry"
)

const longPollTimeout = 60 // seconds

// updateSource is the long-polling half of *tgbotapi.BotAPI.
type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Poller receives updates and dispatches each one to the conversation in its own
// goroutine, bounded by a per-update timeout.
type Poller struct {
	source        updateSource
	conversation  domain.Conversation
	transport     domain.ChatTransport
	updateTimeout time.Duration
	wg            sync.WaitGroup
}

func NewPoller(source updateSource, conversation domain.Conversation, transport domain.ChatTransport, updateTimeout time.Duration) *Poller {
	return &Poller{
		source:        source,
		conversation:  conversation,
		transport:     transport,
		updateTimeout: updateTimeout,
	}
}

// Connect authenticates the bot token, retrying transient failures.
func Connect(ctx context.Context, token string) (*tgbotapi.BotAPI, error) {
	bot, err := retry.Do(ctx, retry.Startup, connectClassify, func(context.Context) (*tgbotapi.BotAPI, error) {
		bot, err := tgbotapi.NewBotAPI(token)
		return bot, wrapAPIError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	slog.Info("Connected to Telegram", "bot", bot.Self.UserName)
	return bot, nil
}

// connectClassify stops on a rejected token and other client errors, honours
// flood control and retries everything else.
func connectClassify(err error) retry.Action {
	apiErr, ok := apiError(err)
	if !ok {
		return retry.Transient(err)
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return retry.After
	case apiErr.Code >= http.StatusInternalServerError:
		return retry.Retry
	default:
		return retry.Stop
	}
}

// wrapAPIError turns flood-control replies into retry.RetryAfterError.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := apiError(err); ok && apiErr.Code == http.StatusTooManyRequests && apiErr.RetryAfter > 0 {
		return &retry.RetryAfterError{Err: err, Delay: time.Duration(apiErr.RetryAfter) * time.Second}
	}
	return err
}

// Run blocks until ctx is cancelled, then stops polling and waits for in-flight
// updates to finish.
func (p *Poller) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = longPollTimeout
	cfg.AllowedUpdates = []string{"message", "callback_query"}
	updates := p.source.GetUpdatesChan(cfg)

	slog.Info("Polling for updates")
	defer func() {
		p.source.StopReceivingUpdates()
		p.wg.Wait()
		slog.Info("Update polling stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.dispatch(ctx, update)
			}()
		}
	}
}

func (p *Poller) dispatch(parent context.Context, update tgbotapi.Update) {
	// In-flight updates finish even while shutting down.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), p.updateTimeout)
	defer cancel()
	ctx = correlation.WithUpdate(ctx, update.UpdateID)

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Panic while handling update", "panic", r)
		}
	}()

	switch {
	case update.Message != nil:
		msg, ok := toInboundMessage(update.Message)
		if !ok {
			metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
			return
		}
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		p.conversation.HandleMessage(ctx, msg)

	case update.CallbackQuery != nil:
		cb, err := toInboundCallback(update.CallbackQuery)
		if err != nil {
			metrics.UpdatesTotal.WithLabelValues("invalid_callback").Inc()
			slog.WarnContext(ctx, "Ignoring invalid callback", "error", err)
			if update.CallbackQuery.ID != "" {
				if err := p.transport.AnswerCallback(ctx, update.CallbackQuery.ID, ""); err != nil {
					slog.WarnContext(ctx, "Failed to answer callback", "error", err)
				}
			}
			return
		}
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		p.conversation.HandleCallback(ctx, cb)

	default:
		metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
	}
}

var errNoMessage = errors.New("callback without message")

// toInboundMessage keeps text messages from a known sender. Commands carry their
// name without slash or bot mention.
func toInboundMessage(m *tgbotapi.Message) (domain.InboundMessage, bool) {
	if m.From == nil || m.Chat == nil || m.Text == "" {
		return domain.InboundMessage{}, false
	}
	msg := domain.InboundMessage{
		UserID: m.From.ID,
		ChatID: m.Chat.ID,
		Text:   m.Text,
	}
	if m.IsCommand() {
		msg.Command = m.Command()
	}
	return msg, true
}

func toInboundCallback(q *tgbotapi.CallbackQuery) (domain.InboundCallback, error) {
	if q.From == nil {
		return domain.InboundCallback{}, fmt.Errorf("callback %s without sender", q.ID)
	}
	if q.Message == nil || q.Message.Chat == nil {
		return domain.InboundCallback{}, errNoMessage
	}
	parsed, err := domain.ParseCallback(q.Data)
	if err != nil {
		return domain.InboundCallback{}, err
	}
	return domain.InboundCallback{
		ID:     q.ID,
		UserID: q.From.ID,
		Message: domain.MessageRef{
			ChatID:    q.Message.Chat.ID,
			MessageID: q.Message.MessageID,
			Media:     q.Message.Animation != nil || q.Message.Document != nil,
		},
		Callback: parsed,
	}, nil
}
