package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/domain/ports/adapter"
	"telegram-relay-bot/internal/domain/ports/repository"
	"telegram-relay-bot/internal/infra/logging"
	"telegram-relay-bot/internal/infra/metrics"
)

// Compile-time check
var _ RelayUseCase = (*relayUC)(nil)

// Translator renders a catalogue key with printf-style arguments.
type Translator interface {
	T(key string, args ...interface{}) string
}

// RelayUseCase routes every inbound event between end-users and the operator.
type RelayUseCase interface {
	Handle(ctx context.Context, ev model.Event) error
}

type relayUC struct {
	// mu makes the handling of one event atomic with respect to the
	// blocklist, the correlation table and the pending-reply state.
	mu sync.Mutex

	operatorID int64
	blocklist  *Blocklist
	table      *CorrelationTable
	pending    repository.PendingReplyRepository
	tg         adapter.Transport
	tr         Translator
	log        *zerolog.Logger

	commands map[string]commandHandler
}

func NewRelayUseCase(
	operatorID int64,
	blocklist *Blocklist,
	table *CorrelationTable,
	pending repository.PendingReplyRepository,
	tg adapter.Transport,
	tr Translator,
	logger *zerolog.Logger,
) *relayUC {
	r := &relayUC{
		operatorID: operatorID,
		blocklist:  blocklist,
		table:      table,
		pending:    pending,
		tg:         tg,
		tr:         tr,
		log:        logger,
	}
	r.commands = r.commandRoutes()
	return r
}

// Handle processes one event to completion. Failures, panics included, are
// logged and answered with a generic notice in the event's chat; the returned
// error is informational only.
func (r *relayUC) Handle(ctx context.Context, ev model.Event) (err error) {
	defer logging.TraceDuration(r.log, "RelayUC.Handle")()
	kind := model.EventType(ev)
	metrics.IncUpdate(kind)

	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			metrics.IncHandlerPanic()
			err = fmt.Errorf("panic while handling %s event: %v", kind, rec)
		}
		if err != nil {
			logging.With(ctx, r.log).Error().Err(err).
				Str("event", kind).
				Int64("chat_id", ev.Chat()).
				Int64("from", ev.From().ID).
				Msg("event handling failed")
			r.notifyFailure(ctx, ev.Chat())
		}
	}()

	switch e := ev.(type) {
	case model.Command:
		return r.handleCommand(ctx, e)
	case model.ContentMessage:
		if r.isOperator(e.Sender.ID) {
			return r.consumePending(ctx, e.MessageID, e.Content)
		}
		return r.forward(ctx, e.Sender, e.ChatID, e.MessageID, e.Content)
	case model.ProtocolReply:
		if !r.isOperator(e.Sender.ID) {
			return r.forward(ctx, e.Sender, e.ChatID, e.MessageID, e.Content)
		}
		return r.handleOperatorReply(ctx, e)
	case model.ButtonPress:
		return r.handleButton(ctx, e)
	default:
		r.log.Warn().Str("event", kind).Msg("unhandled event type")
		return nil
	}
}

func (r *relayUC) isOperator(id int64) bool { return id == r.operatorID }

// handleOperatorReply routes a reply to a tracked message back to its sender.
// A reply to anything else behaves like a plain operator message.
func (r *relayUC) handleOperatorReply(ctx context.Context, e model.ProtocolReply) error {
	entry, ok := r.table.Lookup(e.RepliedToID)
	if !ok {
		return r.consumePending(ctx, e.MessageID, e.Content)
	}
	return r.deliverReply(ctx, e.MessageID, entry.SenderID, e.Content)
}

// consumePending delivers content to the target chosen with the "Reply" button,
// if any, and clears the intent.
func (r *relayUC) consumePending(ctx context.Context, operatorMsgID int, c model.Content) error {
	p, err := r.pending.GetPending(ctx, r.operatorID)
	if err != nil {
		return fmt.Errorf("get pending reply: %w", err)
	}
	if p == nil {
		r.log.Debug().Int("message_id", operatorMsgID).Msg("operator message without reply target ignored")
		return nil
	}
	if err := r.pending.ClearPending(ctx, r.operatorID); err != nil {
		r.log.Warn().Err(err).Msg("clear pending reply failed")
	}
	return r.deliverReply(ctx, operatorMsgID, p.TargetID, c)
}

// say sends a plain text message and logs, rather than returns, a failure.
func (r *relayUC) say(ctx context.Context, chatID int64, replyTo int, text string) int {
	id, err := r.tg.Send(ctx, adapter.OutboundMessage{
		ChatID:  chatID,
		Content: model.Content{Kind: model.KindText, Text: text},
		ReplyTo: replyTo,
	})
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Int64("chat_id", chatID).Msg("send text failed")
		return 0
	}
	return id
}

func (r *relayUC) notifyFailure(ctx context.Context, chatID int64) {
	if chatID == 0 {
		return
	}
	// the event's own deadline may be what failed
	sendCtx := context.WithoutCancel(ctx)
	if _, err := r.tg.Send(sendCtx, adapter.OutboundMessage{
		ChatID:  chatID,
		Content: model.Content{Kind: model.KindText, Text: r.tr.T("error_generic")},
	}); err != nil && !errors.Is(err, context.Canceled) {
		r.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failure notice not delivered")
	}
}
