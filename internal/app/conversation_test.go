package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conversationFixture struct {
	conv       *Conversation
	state      *State
	transport  *mockTransport
	classifier *mockClassifier
	saver      *mockSaver
	media      *mockMedia
	clock      *clockwork.FakeClock
}

type fixtureOption func(*conversationFixture, *domain.RateLimiter)

func withLimiter(l domain.RateLimiter) fixtureOption {
	return func(_ *conversationFixture, dst *domain.RateLimiter) { *dst = l }
}

func withClassifier(c *mockClassifier) fixtureOption {
	return func(f *conversationFixture, _ *domain.RateLimiter) { f.classifier = c }
}

func newFixture(opts ...fixtureOption) *conversationFixture {
	f := &conversationFixture{
		state:      NewState(),
		transport:  &mockTransport{},
		classifier: classifierReturning(domain.Joy, 0.92),
		saver:      &mockSaver{},
		media:      &mockMedia{},
		clock:      clockwork.NewFakeClockAt(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)),
	}
	var limiter domain.RateLimiter = &mockRateLimiter{}
	for _, opt := range opts {
		opt(f, &limiter)
	}
	f.conv = NewConversation(f.state, f.saver, limiter, f.classifier, f.transport, f.media, f.clock, DefaultCooldown)
	return f
}

func message(userID int64, text string) domain.InboundMessage {
	return domain.InboundMessage{UserID: userID, ChatID: userID, Text: text}
}

func press(userID int64, ref domain.MessageRef, cb domain.Callback) domain.InboundCallback {
	return domain.InboundCallback{
		ID:       fmt.Sprintf("cb-%d-%d", userID, ref.MessageID),
		UserID:   userID,
		Message:  ref,
		Callback: cb,
	}
}

var (
	confirm = domain.Callback{Kind: domain.CallbackConfirm}
	reject  = domain.Callback{Kind: domain.CallbackReject}
)

func selectLabel(e domain.Emotion) domain.Callback {
	return domain.Callback{Kind: domain.CallbackSelect, Label: e}
}

func TestConversation_ProposeAndConfirm(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.conv.HandleMessage(ctx, message(1, "I am so happy today"))

	require.Equal(t, 1, f.transport.sentCount())
	proposal := f.transport.lastSent()
	assert.Equal(t, "joy (уверенность: 92%)", proposal.Msg.Text)
	assert.Equal(t, feedbackKeyboard(), proposal.Msg.Keyboard)

	session, ok := f.conv.Session(1)
	require.True(t, ok)
	assert.Equal(t, domain.StateAwaitingFeedback, session.State)
	assert.Equal(t, "i am so happy today", session.Text)
	assert.Equal(t, proposal.Ref, session.Message)

	f.conv.HandleCallback(ctx, press(1, proposal.Ref, confirm))

	tally, ok := f.state.Ledger.Lookup("i am so happy today")
	require.True(t, ok)
	assert.Equal(t, domain.VoteTally{domain.Joy: 1}, tally)

	require.Len(t, f.transport.edited, 1)
	assert.Equal(t, voteCountedText(domain.Joy, 1, domain.LanguageEnglish), f.transport.edited[0].Text)
	assert.Nil(t, f.transport.edited[0].Keyboard)
	assert.Equal(t, []string{"cb-1-1"}, f.transport.answered)

	_, ok = f.conv.Session(1)
	assert.False(t, ok)

	v := f.state.Counters.Values()
	assert.Equal(t, int64(1), v.Classifications)
	assert.Equal(t, int64(1), v.Votes)
}

func TestConversation_CacheHitSkipsClassifier(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.conv.HandleMessage(ctx, message(1, "I am so happy today"))
	f.conv.HandleCallback(ctx, press(1, f.transport.lastSent().Ref, confirm))

	f.conv.HandleMessage(ctx, message(2, "i am SO happy today"))

	assert.Equal(t, int64(1), f.classifier.calls.Load(), "voted text must not reach the classifier again")
	answer := f.transport.lastSent()
	assert.Equal(t, consensusText(domain.Joy, 1, domain.LanguageEnglish), answer.Msg.Text)
	assert.Empty(t, answer.Msg.Keyboard)

	_, ok := f.conv.Session(2)
	assert.False(t, ok, "cache answers open no feedback cycle")

	history := f.state.History.Entries(2)
	require.Len(t, history, 1)
	assert.Equal(t, domain.Joy, history[0].Label)
	assert.Equal(t, "i am SO happy today", history[0].Text)
	assert.Equal(t, int64(1), f.state.Counters.Values().CacheHits)
}

func TestConversation_RejectThenSelectDifferentLabel(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.conv.HandleMessage(ctx, message(1, "thanks a lot"))
	proposal := f.transport.lastSent()

	f.conv.HandleCallback(ctx, press(1, proposal.Ref, reject))

	session, ok := f.conv.Session(1)
	require.True(t, ok)
	assert.Equal(t, domain.StateAwaitingCorrection, session.State)
	require.Len(t, f.transport.edited, 1)
	assert.Equal(t, correctionPrompt, f.transport.edited[0].Text)
	assert.Equal(t, emotionKeyboard(), f.transport.edited[0].Keyboard)

	_, ok = f.state.Ledger.Lookup("thanks a lot")
	assert.False(t, ok, "reject alone records nothing")

	f.conv.HandleCallback(ctx, press(1, proposal.Ref, selectLabel(domain.Gratitude)))

	tally, ok := f.state.Ledger.Lookup("thanks a lot")
	require.True(t, ok)
	assert.Equal(t, domain.VoteTally{domain.Gratitude: 1}, tally, "the rejected proposal gets no vote")

	assert.Equal(t, []domain.MessageRef{proposal.Ref}, f.transport.deleted)
	assert.Equal(t, correctionText(domain.Gratitude, 1, domain.LanguageEnglish), f.transport.lastSent().Msg.Text)

	_, ok = f.conv.Session(1)
	assert.False(t, ok)
}

func TestConversation_SelectSameLabelEditsInPlace(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.conv.HandleMessage(ctx, message(1, "yay"))
	proposal := f.transport.lastSent()
	f.conv.HandleCallback(ctx, press(1, proposal.Ref, reject))
	f.conv.HandleCallback(ctx, press(1, proposal.Ref, selectLabel(domain.Joy)))

	assert.Empty(t, f.transport.deleted)
	assert.Equal(t, 1, f.transport.sentCount())
	require.Len(t, f.transport.edited, 2)
	assert.Equal(t, voteCountedText(domain.Joy, 1, domain.LanguageEnglish), f.transport.edited[1].Text)
}

func TestConversation_CorrectionIsServedToNextUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.conv.HandleMessage(ctx, message(1, "спасибо большое"))
	proposal := f.transport.lastSent()
	f.conv.HandleCallback(ctx, press(1, proposal.Ref, reject))
	f.conv.HandleCallback(ctx, press(1, proposal.Ref, selectLabel(domain.Gratitude)))

	f.conv.HandleMessage(ctx, message(2, "Спасибо большое"))

	assert.Equal(t, int64(1), f.classifier.calls.Load())
	assert.Equal(t, consensusText(domain.Gratitude, 1, domain.LanguageRussian), f.transport.lastSent().Msg.Text)
}

func TestConversation_RateLimited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(withLimiter(NewMemoryRateLimiter(DefaultCooldown)))

	f.conv.HandleMessage(ctx, message(1, "first"))
	require.Equal(t, int64(1), f.classifier.calls.Load())

	f.clock.Advance(5 * time.Second)
	f.conv.HandleMessage(ctx, message(1, "second"))

	assert.Equal(t, int64(1), f.classifier.calls.Load())
	assert.Equal(t, waitText(DefaultCooldown), f.transport.lastSent().Msg.Text)
	assert.Len(t, f.state.History.Entries(1), 1)

	session, ok := f.conv.Session(1)
	require.True(t, ok, "a rejected message leaves the pending session alone")
	assert.Equal(t, "first", session.Text)

	f.clock.Advance(5 * time.Second)
	f.conv.HandleMessage(ctx, message(1, "third"))
	assert.Equal(t, int64(2), f.classifier.calls.Load())
}

func TestConversation_RateLimiterErrorFailsOpen(t *testing.T) {
	limiter := &mockRateLimiter{allowFn: func(context.Context, int64, time.Time) (bool, error) {
		return false, errors.New("redis down")
	}}
	f := newFixture(withLimiter(limiter))

	f.conv.HandleMessage(context.Background(), message(1, "hello"))

	assert.Equal(t, int64(1), f.classifier.calls.Load())
	_, ok := f.conv.Session(1)
	assert.True(t, ok)
}

func TestConversation_LatestMessageWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.conv.HandleMessage(ctx, message(1, "first text"))
	first := f.transport.lastSent()
	f.conv.HandleMessage(ctx, message(1, "second text"))
	second := f.transport.lastSent()

	session, ok := f.conv.Session(1)
	require.True(t, ok)
	assert.Equal(t, "second text", session.Text)

	f.conv.HandleCallback(ctx, press(1, first.Ref, confirm))
	_, ok = f.state.Ledger.Lookup("first text")
	assert.False(t, ok, "button on an abandoned proposal records nothing")
	assert.Empty(t, f.transport.edited)
	assert.Len(t, f.transport.answered, 1, "stale presses are still acknowledged")

	f.conv.HandleCallback(ctx, press(1, second.Ref, confirm))
	_, ok = f.state.Ledger.Lookup("second text")
	assert.True(t, ok)
}

func TestConversation_CallbackWithoutSession(t *testing.T) {
	f := newFixture()

	ref := domain.MessageRef{ChatID: 1, MessageID: 42}
	f.conv.HandleCallback(context.Background(), press(1, ref, confirm))

	assert.Zero(t, f.state.Ledger.Len())
	assert.Empty(t, f.transport.edited)
	assert.Equal(t, []string{"cb-1-42"}, f.transport.answered)
}

func TestConversation_CallbackInWrongState(t *testing.T) {
	tests := []struct {
		name      string
		rejectFst bool
		cb        domain.Callback
		wantState domain.ConversationState
	}{
		{"select while awaiting feedback", false, selectLabel(domain.Fear), domain.StateAwaitingFeedback},
		{"confirm while awaiting correction", true, confirm, domain.StateAwaitingCorrection},
		{"reject while awaiting correction", true, reject, domain.StateAwaitingCorrection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()

			f.conv.HandleMessage(ctx, message(1, "some text"))
			ref := f.transport.lastSent().Ref
			if tt.rejectFst {
				f.conv.HandleCallback(ctx, press(1, ref, reject))
			}

			f.conv.HandleCallback(ctx, press(1, ref, tt.cb))

			assert.Zero(t, f.state.Ledger.Len())
			session, ok := f.conv.Session(1)
			require.True(t, ok)
			assert.Equal(t, tt.wantState, session.State)
		})
	}
}

func TestConversation_SendFailureOpensNoSession(t *testing.T) {
	f := newFixture()
	f.transport.sendFn = func(context.Context, int64, domain.Outgoing) (domain.MessageRef, error) {
		return domain.MessageRef{}, errors.New("network down")
	}

	f.conv.HandleMessage(context.Background(), message(1, "hello"))

	_, ok := f.conv.Session(1)
	assert.False(t, ok)
	assert.Len(t, f.state.History.Entries(1), 1, "analysis is recorded even if the reply is lost")
}

func TestConversation_EditFailureKeepsVote(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.transport.editFn = func(context.Context, domain.MessageRef, string, domain.Keyboard) error {
		return errors.New("message is not modified")
	}

	f.conv.HandleMessage(ctx, message(1, "hello"))
	f.conv.HandleCallback(ctx, press(1, f.transport.lastSent().Ref, confirm))

	tally, ok := f.state.Ledger.Lookup("hello")
	require.True(t, ok)
	assert.Equal(t, 1, tally[domain.Joy])
}

func TestConversation_MediaProposal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.media.pathFn = func(label domain.Emotion, lang domain.Language) (string, bool) {
		return fmt.Sprintf("assets/%s/%s.gif", lang, label), true
	}

	f.conv.HandleMessage(ctx, message(1, "я так рад"))

	sent := f.transport.lastSent()
	assert.Equal(t, "assets/ru/joy.gif", sent.Msg.MediaPath)
	assert.Equal(t, "Я думаю, это радость...", sent.Msg.Text)
	assert.True(t, sent.Ref.Media)
}

func TestConversation_BlankTextIgnored(t *testing.T) {
	f := newFixture()

	f.conv.HandleMessage(context.Background(), message(1, "   \n\t"))

	assert.Zero(t, f.classifier.calls.Load())
	assert.Zero(t, f.transport.sentCount())
}

func TestConversation_SavesAfterMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.conv.HandleMessage(ctx, message(1, "hello"))
	assert.Equal(t, int64(1), f.saver.saves.Load())

	f.conv.HandleCallback(ctx, press(1, f.transport.lastSent().Ref, confirm))
	assert.Equal(t, int64(2), f.saver.saves.Load())
}

func TestConversation_SaveFailureDoesNotBlockReply(t *testing.T) {
	f := newFixture()
	f.saver.saveFn = func(context.Context) error { return errors.New("disk full") }

	f.conv.HandleMessage(context.Background(), message(1, "hello"))

	assert.Equal(t, 1, f.transport.sentCount())
}

func TestConversation_ConcurrentConfirmsAllCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	const users = 50
	refs := make([]domain.MessageRef, users)
	for i := range users {
		f.conv.HandleMessage(ctx, message(int64(i+1), "same words"))
		refs[i] = f.transport.lastSent().Ref
	}

	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(userID int64, ref domain.MessageRef) {
			defer wg.Done()
			f.conv.HandleCallback(ctx, press(userID, ref, confirm))
		}(int64(i+1), refs[i])
	}
	wg.Wait()

	tally, ok := f.state.Ledger.Lookup("same words")
	require.True(t, ok)
	assert.Equal(t, users, tally[domain.Joy])
	assert.Equal(t, int64(users), f.state.Counters.Values().Votes)
}

func TestConversation_ClassifierFallbackProposesNeutral(t *testing.T) {
	f := newFixture(withClassifier(&mockClassifier{}))

	f.conv.HandleMessage(context.Background(), message(1, "привет"))

	assert.Equal(t, "нейтрально (уверенность: 50%)", f.transport.lastSent().Msg.Text)
	session, ok := f.conv.Session(1)
	require.True(t, ok)
	assert.Equal(t, domain.Neutral, session.Proposed)
}
