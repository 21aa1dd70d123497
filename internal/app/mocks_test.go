package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
)

// --- Mock Classifier ---

type mockClassifier struct {
	classifyFn func(ctx context.Context, text string) domain.Classification
	calls      atomic.Int64
}

func (m *mockClassifier) Classify(ctx context.Context, text string) domain.Classification {
	m.calls.Add(1)
	if m.classifyFn != nil {
		return m.classifyFn(ctx, text)
	}
	return domain.FallbackClassification(text)
}

func classifierReturning(label domain.Emotion, confidence float64) *mockClassifier {
	return &mockClassifier{
		classifyFn: func(_ context.Context, text string) domain.Classification {
			lang := domain.DetectLanguage(text)
			return domain.Classification{
				Label:        label,
				Confidence:   confidence,
				Language:     lang,
				DisplayLabel: label.Display(lang),
			}
		},
	}
}

// --- Mock ChatTransport ---

type sentMessage struct {
	ChatID int64
	Msg    domain.Outgoing
	Ref    domain.MessageRef
}

type editedMessage struct {
	Ref      domain.MessageRef
	Text     string
	Keyboard domain.Keyboard
}

type mockTransport struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	edited   []editedMessage
	deleted  []domain.MessageRef
	answered []string

	sendFn   func(ctx context.Context, chatID int64, msg domain.Outgoing) (domain.MessageRef, error)
	editFn   func(ctx context.Context, ref domain.MessageRef, text string, keyboard domain.Keyboard) error
	deleteFn func(ctx context.Context, ref domain.MessageRef) error
}

func (m *mockTransport) Send(ctx context.Context, chatID int64, msg domain.Outgoing) (domain.MessageRef, error) {
	if m.sendFn != nil {
		if ref, err := m.sendFn(ctx, chatID, msg); err != nil {
			return ref, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ref := domain.MessageRef{ChatID: chatID, MessageID: m.nextID, Media: msg.MediaPath != ""}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Msg: msg, Ref: ref})
	return ref, nil
}

func (m *mockTransport) Edit(ctx context.Context, ref domain.MessageRef, text string, keyboard domain.Keyboard) error {
	if m.editFn != nil {
		if err := m.editFn(ctx, ref, text, keyboard); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited = append(m.edited, editedMessage{Ref: ref, Text: text, Keyboard: keyboard})
	return nil
}

func (m *mockTransport) Delete(ctx context.Context, ref domain.MessageRef) error {
	if m.deleteFn != nil {
		if err := m.deleteFn(ctx, ref); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *mockTransport) AnswerCallback(_ context.Context, callbackID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

func (m *mockTransport) lastSent() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func (m *mockTransport) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// --- Mock MediaResolver ---

type mockMedia struct {
	pathFn func(label domain.Emotion, lang domain.Language) (string, bool)
}

func (m *mockMedia) Path(label domain.Emotion, lang domain.Language) (string, bool) {
	if m.pathFn != nil {
		return m.pathFn(label, lang)
	}
	return "", false
}

// --- Mock RateLimiter ---

type mockRateLimiter struct {
	allowFn func(ctx context.Context, userID int64, now time.Time) (bool, error)
}

func (m *mockRateLimiter) Allow(ctx context.Context, userID int64, now time.Time) (bool, error) {
	if m.allowFn != nil {
		return m.allowFn(ctx, userID, now)
	}
	return true, nil
}

// --- Mock saver ---

type mockSaver struct {
	saves  atomic.Int64
	saveFn func(ctx context.Context) error
}

func (m *mockSaver) Save(ctx context.Context) error {
	m.saves.Add(1)
	if m.saveFn != nil {
		return m.saveFn(ctx)
	}
	return nil
}

// --- Mock SnapshotStore ---

type mockSnapshotStore struct {
	mu     sync.Mutex
	data   []byte
	loadFn func(ctx context.Context) ([]byte, error)
	saveFn func(ctx context.Context, document []byte) error
}

func (m *mockSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return m.data, nil
}

func (m *mockSnapshotStore) Save(ctx context.Context, document []byte) error {
	if m.saveFn != nil {
		if err := m.saveFn(ctx, document); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), document...)
	return nil
}
