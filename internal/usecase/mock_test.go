//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/domain/ports/adapter"
	"telegram-relay-bot/internal/domain/ports/repository"
	"telegram-relay-bot/internal/infra/i18n"
	"telegram-relay-bot/internal/usecase"
)

// =============================
// Transport
// =============================

type sentMessage struct {
	ID  int
	Msg adapter.OutboundMessage
}

type editedButtons struct {
	ChatID    int64
	MessageID int
	Rows      [][]adapter.InlineButton
}

// MockTransport records every send and hands out increasing message ids.
type MockTransport struct {
	mu     sync.Mutex
	nextID int
	Sent   []sentMessage
	Edits  []editedButtons

	SendFunc        func(ctx context.Context, msg adapter.OutboundMessage) (int, error)
	EditButtonsFunc func(ctx context.Context, chatID int64, messageID int, rows [][]adapter.InlineButton) error
}

var _ adapter.Transport = (*MockTransport)(nil)

func NewMockTransport() *MockTransport { return &MockTransport{nextID: 1000} }

func (m *MockTransport) Send(ctx context.Context, msg adapter.OutboundMessage) (int, error) {
	if m.SendFunc != nil {
		if _, err := m.SendFunc(ctx, msg); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.Sent = append(m.Sent, sentMessage{ID: m.nextID, Msg: msg})
	return m.nextID, nil
}

func (m *MockTransport) EditButtons(ctx context.Context, chatID int64, messageID int, rows [][]adapter.InlineButton) error {
	if m.EditButtonsFunc != nil {
		return m.EditButtonsFunc(ctx, chatID, messageID, rows)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits = append(m.Edits, editedButtons{ChatID: chatID, MessageID: messageID, Rows: rows})
	return nil
}

// To returns the messages sent to chatID, in order.
func (m *MockTransport) To(chatID int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.Sent {
		if s.Msg.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Texts returns the visible text (body or caption) of the messages sent to chatID.
func (m *MockTransport) Texts(chatID int64) []string {
	var out []string
	for _, s := range m.To(chatID) {
		if s.Msg.Content.Kind == model.KindText {
			out = append(out, s.Msg.Content.Text)
		} else {
			out = append(out, s.Msg.Content.Caption)
		}
	}
	return out
}

func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = nil
	m.Edits = nil
}

// =============================
// Repositories
// =============================

type MockBlocklistRepo struct {
	mu    sync.Mutex
	ids   []int64
	saves int

	LoadFunc func(ctx context.Context) ([]int64, error)
	SaveFunc func(ctx context.Context, ids []int64) error
}

var _ repository.BlocklistRepository = (*MockBlocklistRepo)(nil)

func NewMockBlocklistRepo(ids ...int64) *MockBlocklistRepo {
	return &MockBlocklistRepo{ids: ids}
}

func (m *MockBlocklistRepo) Load(ctx context.Context) ([]int64, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.ids...), nil
}

func (m *MockBlocklistRepo) Save(ctx context.Context, ids []int64) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append([]int64(nil), ids...)
	m.saves++
	return nil
}

func (m *MockBlocklistRepo) Saved() ([]int64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.ids...), m.saves
}

type MockPendingRepo struct {
	mu    sync.Mutex
	state map[int64]model.PendingReply

	GetFunc func(ctx context.Context, operatorID int64) (*model.PendingReply, error)
}

var _ repository.PendingReplyRepository = (*MockPendingRepo)(nil)

func NewMockPendingRepo() *MockPendingRepo {
	return &MockPendingRepo{state: make(map[int64]model.PendingReply)}
}

func (m *MockPendingRepo) SetPending(_ context.Context, operatorID int64, p *model.PendingReply) error {
	if p == nil {
		return errors.New("nil pending reply")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[operatorID] = *p
	return nil
}

func (m *MockPendingRepo) GetPending(ctx context.Context, operatorID int64) (*model.PendingReply, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, operatorID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state[operatorID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MockPendingRepo) ClearPending(_ context.Context, operatorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, operatorID)
	return nil
}

// =============================
// Helpers
// =============================

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() usecase.Translator {
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}
	return tr
}

const operatorID int64 = 144262846

type relayFixture struct {
	uc        usecase.RelayUseCase
	tg        *MockTransport
	repo      *MockBlocklistRepo
	pending   *MockPendingRepo
	blocklist *usecase.Blocklist
	table     *usecase.CorrelationTable
	tr        usecase.Translator
}

func newRelayFixture(blocked ...int64) *relayFixture {
	logger := newTestLogger()
	f := &relayFixture{
		tg:      NewMockTransport(),
		repo:    NewMockBlocklistRepo(blocked...),
		pending: NewMockPendingRepo(),
		table:   usecase.NewCorrelationTable(0),
		tr:      newTestTranslator(),
	}
	f.blocklist = usecase.NewBlocklist(f.repo, operatorID, logger)
	f.blocklist.Load(context.Background())
	f.uc = usecase.NewRelayUseCase(operatorID, f.blocklist, f.table, f.pending, f.tg, f.tr, logger)
	return f
}

func user(id int64) model.Sender {
	return model.Sender{ID: id, FirstName: "User", LastName: "Test", Username: "user_test"}
}

func operator() model.Sender {
	return model.Sender{ID: operatorID, FirstName: "Owner"}
}

func textMessage(from model.Sender, msgID int, text string) model.ContentMessage {
	return model.ContentMessage{
		Sender:    from,
		ChatID:    from.ID,
		MessageID: msgID,
		Content:   model.Content{Kind: model.KindText, Text: text},
	}
}

func command(from model.Sender, name string, args ...string) model.Command {
	return model.Command{Name: name, Args: args, Sender: from, ChatID: from.ID, MessageID: 1}
}
