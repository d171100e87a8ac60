//go:build !integration

package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-relay-bot/internal/domain/model"
)

// fakeBot records every call the adapter makes to the Bot API.
type fakeBot struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update

	sendErr    error
	requestErr error
	// stall, when set, holds Send and Request until it is closed.
	stall chan struct{}
}

var _ BotAPI = (*fakeBot)(nil)

func newFakeBot() *fakeBot {
	return &fakeBot{nextID: 500, updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) wait() {
	f.mu.Lock()
	stall := f.stall
	f.mu.Unlock()
	if stall != nil {
		<-stall
	}
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBot) StopReceivingUpdates() {}

func (f *fakeBot) Requests() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), f.requests...)
}

// recordingHandler collects handled events.
type recordingHandler struct {
	mu     sync.Mutex
	events []model.Event
	seen   chan struct{}
	err    error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{seen: make(chan struct{}, 10)}
}

func (h *recordingHandler) Handle(ctx context.Context, ev model.Event) error {
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()
	h.seen <- struct{}{}
	return h.err
}

func (h *recordingHandler) Events() []model.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.Event(nil), h.events...)
}
