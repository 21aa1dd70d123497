package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pscheid92/moodpulse/internal/domain"
)

// --- Mock botAPI ---

type mockBotAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable

	sendFn    func(c tgbotapi.Chattable) (tgbotapi.Message, error)
	requestFn func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

func (m *mockBotAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	m.sent = append(m.sent, c)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(c)
	}
	return tgbotapi.Message{MessageID: 100, Chat: &tgbotapi.Chat{ID: 1}}, nil
}

func (m *mockBotAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, c)
	m.mu.Unlock()
	if m.requestFn != nil {
		return m.requestFn(c)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// --- Mock updateSource ---

type mockSource struct {
	updates chan tgbotapi.Update
	config  tgbotapi.UpdateConfig
	stopped chan struct{}
	once    sync.Once
}

func newMockSource() *mockSource {
	return &mockSource{updates: make(chan tgbotapi.Update, 16), stopped: make(chan struct{})}
}

func (m *mockSource) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	m.config = config
	return m.updates
}

func (m *mockSource) StopReceivingUpdates() {
	m.once.Do(func() { close(m.stopped) })
}

// --- Mock Conversation ---

type mockConversation struct {
	mu        sync.Mutex
	messages  []domain.InboundMessage
	callbacks []domain.InboundCallback
	handled   chan struct{}

	handleMessageFn func(ctx context.Context, msg domain.InboundMessage)
}

func newMockConversation() *mockConversation {
	return &mockConversation{handled: make(chan struct{}, 16)}
}

func (m *mockConversation) HandleMessage(ctx context.Context, msg domain.InboundMessage) {
	if m.handleMessageFn != nil {
		m.handleMessageFn(ctx, msg)
	}
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
	m.handled <- struct{}{}
}

func (m *mockConversation) HandleCallback(_ context.Context, cb domain.InboundCallback) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, cb)
	m.mu.Unlock()
	m.handled <- struct{}{}
}

// --- Mock ChatTransport ---

type mockTransport struct {
	mu       sync.Mutex
	answered []string
}

func (m *mockTransport) Send(context.Context, int64, domain.Outgoing) (domain.MessageRef, error) {
	return domain.MessageRef{}, nil
}

func (m *mockTransport) Edit(context.Context, domain.MessageRef, string, domain.Keyboard) error {
	return nil
}

func (m *mockTransport) Delete(context.Context, domain.MessageRef) error { return nil }

func (m *mockTransport) AnswerCallback(_ context.Context, callbackID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}
