package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/metrics"
)

// snapshotSaver persists State after a mutation. Failures are the saver's to log.
type snapshotSaver interface {
	Save(ctx context.Context) error
}

var _ domain.Conversation = (*Conversation)(nil)

// Conversation runs the per-user feedback cycle: analyze a text, await
// confirmation or correction, record the vote.
type Conversation struct {
	state      *State
	saver      snapshotSaver
	limiter    domain.RateLimiter
	classifier domain.Classifier
	transport  domain.ChatTransport
	media      domain.MediaResolver
	clock      clockwork.Clock
	cooldown   time.Duration
	sessions   *sessionRegistry
}

func NewConversation(state *State, saver snapshotSaver, limiter domain.RateLimiter, classifier domain.Classifier, transport domain.ChatTransport, media domain.MediaResolver, clock clockwork.Clock, cooldown time.Duration) *Conversation {
	return &Conversation{
		state:      state,
		saver:      saver,
		limiter:    limiter,
		classifier: classifier,
		transport:  transport,
		media:      media,
		clock:      clock,
		cooldown:   cooldown,
		sessions:   newSessionRegistry(),
	}
}

// HandleMessage routes commands and analyzes plain text.
func (c *Conversation) HandleMessage(ctx context.Context, msg domain.InboundMessage) {
	if msg.Command != "" {
		c.handleCommand(ctx, msg)
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	c.analyze(ctx, msg)
}

// Session returns the user's pending session, if any.
func (c *Conversation) Session(userID int64) (domain.Session, bool) {
	return c.sessions.peek(userID)
}

func (c *Conversation) analyze(ctx context.Context, msg domain.InboundMessage) {
	slot := c.sessions.acquire(msg.UserID)
	defer slot.release()

	allowed, err := c.limiter.Allow(ctx, msg.UserID, c.clock.Now())
	if err != nil {
		// Fail-open: a broken limiter must not silence the bot
		slog.WarnContext(ctx, "Rate limit check failed, allowing request", "user_id", msg.UserID, "error", err)
		allowed = true
	}
	if !allowed {
		metrics.RateLimitedTotal.Inc()
		c.send(ctx, msg.ChatID, domain.Outgoing{Text: waitText(c.cooldown)})
		return
	}

	// Latest message wins: any pending feedback cycle is abandoned.
	if slot.session != nil {
		slog.DebugContext(ctx, "Abandoning pending session", "user_id", msg.UserID, "state", slot.session.State.String())
		slot.session = nil
	}

	text := domain.NormalizeText(msg.Text)

	if tally, ok := c.state.Ledger.Lookup(text); ok {
		c.answerFromLedger(ctx, msg, text, tally)
		return
	}

	result := c.classifier.Classify(ctx, msg.Text)
	route := "oracle"
	if result.Fallback {
		route = "fallback"
	}
	metrics.ClassificationsTotal.WithLabelValues(route).Inc()
	c.state.Update(func() {
		c.state.Counters.classifications.Add(1)
		c.appendHistory(msg.UserID, msg.Text, result.Label)
	})
	c.save(ctx)

	mediaPath, hasMedia := c.media.Path(result.Label, result.Language)
	out := domain.Outgoing{
		Text:     proposalText(result, hasMedia),
		Keyboard: feedbackKeyboard(),
	}
	if hasMedia {
		out.MediaPath = mediaPath
	}

	ref, ok := c.send(ctx, msg.ChatID, out)
	if !ok {
		return
	}

	slot.session = &domain.Session{
		UserID:   msg.UserID,
		Text:     text,
		Proposed: result.Label,
		Language: result.Language,
		Message:  ref,
		State:    domain.StateAwaitingFeedback,
	}
	slog.InfoContext(ctx, "Classification proposed", "user_id", msg.UserID, "label", result.Label.String(), "confidence", result.Confidence, "fallback", result.Fallback)
}

func (c *Conversation) answerFromLedger(ctx context.Context, msg domain.InboundMessage, text string, tally domain.VoteTally) {
	label, votes, _ := tally.Winner()
	lang := domain.DetectLanguage(text)

	metrics.ClassificationsTotal.WithLabelValues("cache_hit").Inc()
	c.state.Update(func() {
		c.state.Counters.classifications.Add(1)
		c.state.Counters.cacheHits.Add(1)
		c.appendHistory(msg.UserID, msg.Text, label)
	})
	c.save(ctx)

	out := domain.Outgoing{Text: consensusText(label, votes, lang)}
	if path, ok := c.media.Path(label, lang); ok {
		out.MediaPath = path
	}
	c.send(ctx, msg.ChatID, out)
	slog.InfoContext(ctx, "Answered from consensus", "user_id", msg.UserID, "label", label.String(), "votes", votes)
}

// HandleCallback applies an inline button press to the user's pending session.
// Presses that don't fit the session are acknowledged and otherwise ignored.
func (c *Conversation) HandleCallback(ctx context.Context, cb domain.InboundCallback) {
	defer c.answerCallback(ctx, cb.ID)

	slot := c.sessions.acquire(cb.UserID)
	defer slot.release()

	s := slot.session
	if s == nil || s.Message.MessageID != cb.Message.MessageID || s.Message.ChatID != cb.Message.ChatID {
		metrics.CallbacksTotal.WithLabelValues(cb.Callback.Kind.String(), "stale").Inc()
		slog.DebugContext(ctx, "Ignoring callback without matching session", "user_id", cb.UserID, "kind", cb.Callback.Kind.String())
		return
	}

	switch {
	case cb.Callback.Kind == domain.CallbackConfirm && s.State == domain.StateAwaitingFeedback:
		slot.session = nil
		c.confirm(ctx, *s)
	case cb.Callback.Kind == domain.CallbackReject && s.State == domain.StateAwaitingFeedback:
		s.State = domain.StateAwaitingCorrection
		c.edit(ctx, s.Message, correctionPrompt, emotionKeyboard())
	case cb.Callback.Kind == domain.CallbackSelect && s.State == domain.StateAwaitingCorrection:
		slot.session = nil
		c.correct(ctx, *s, cb.Callback.Label)
	default:
		metrics.CallbacksTotal.WithLabelValues(cb.Callback.Kind.String(), "ignored").Inc()
		slog.DebugContext(ctx, "Ignoring callback in wrong state", "user_id", cb.UserID, "kind", cb.Callback.Kind.String(), "state", s.State.String())
		return
	}
	metrics.CallbacksTotal.WithLabelValues(cb.Callback.Kind.String(), "applied").Inc()
}

func (c *Conversation) confirm(ctx context.Context, s domain.Session) {
	tally := c.recordVote(ctx, s.Text, s.Proposed, "confirm")

	label, votes, _ := tally.Winner()
	c.edit(ctx, s.Message, voteCountedText(label, votes, s.Language), nil)
}

func (c *Conversation) correct(ctx context.Context, s domain.Session, selected domain.Emotion) {
	tally := c.recordVote(ctx, s.Text, selected, "correct")
	votes := tally[selected]

	if selected == s.Proposed {
		c.edit(ctx, s.Message, voteCountedText(selected, votes, s.Language), nil)
		return
	}

	c.delete(ctx, s.Message)

	out := domain.Outgoing{Text: correctionText(selected, votes, s.Language)}
	if path, ok := c.media.Path(selected, s.Language); ok {
		out.MediaPath = path
	}
	c.send(ctx, s.Message.ChatID, out)
}

func (c *Conversation) recordVote(ctx context.Context, text string, label domain.Emotion, kind string) domain.VoteTally {
	var tally domain.VoteTally
	c.state.Update(func() {
		tally = c.state.Ledger.RecordVote(text, label)
		c.state.Counters.votes.Add(1)
	})
	metrics.VotesTotal.WithLabelValues(kind).Inc()
	metrics.LedgerTexts.Set(float64(c.state.Ledger.Len()))
	c.save(ctx)

	slog.InfoContext(ctx, "Vote recorded", "label", label.String(), "kind", kind, "total", tally.Total())
	return tally
}

func (c *Conversation) appendHistory(userID int64, text string, label domain.Emotion) {
	c.state.History.Append(userID, domain.HistoryEntry{
		ID:        uuid.New(),
		Text:      text,
		Label:     label,
		Timestamp: c.clock.Now(),
	})
}

func (c *Conversation) save(ctx context.Context) {
	if err := c.saver.Save(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to persist state", "error", err)
	}
}

// --- transport helpers: failures are logged and swallowed ---

func (c *Conversation) send(ctx context.Context, chatID int64, out domain.Outgoing) (domain.MessageRef, bool) {
	ref, err := c.transport.Send(ctx, chatID, out)
	if err != nil {
		metrics.TransportErrorsTotal.WithLabelValues("send").Inc()
		slog.ErrorContext(ctx, "Failed to send message", "chat_id", chatID, "error", err)
		return domain.MessageRef{}, false
	}
	return ref, true
}

func (c *Conversation) edit(ctx context.Context, ref domain.MessageRef, text string, keyboard domain.Keyboard) {
	if err := c.transport.Edit(ctx, ref, text, keyboard); err != nil {
		metrics.TransportErrorsTotal.WithLabelValues("edit").Inc()
		slog.ErrorContext(ctx, "Failed to edit message", "chat_id", ref.ChatID, "message_id", ref.MessageID, "error", err)
	}
}

func (c *Conversation) delete(ctx context.Context, ref domain.MessageRef) {
	if err := c.transport.Delete(ctx, ref); err != nil {
		metrics.TransportErrorsTotal.WithLabelValues("delete").Inc()
		slog.ErrorContext(ctx, "Failed to delete message", "chat_id", ref.ChatID, "message_id", ref.MessageID, "error", err)
	}
}

func (c *Conversation) answerCallback(ctx context.Context, callbackID string) {
	if callbackID == "" {
		return
	}
	if err := c.transport.AnswerCallback(ctx, callbackID, ""); err != nil {
		metrics.TransportErrorsTotal.WithLabelValues("answer_callback").Inc()
		slog.WarnContext(ctx, "Failed to answer callback", "error", err)
	}
}
