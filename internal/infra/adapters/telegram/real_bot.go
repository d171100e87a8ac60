package telegram

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-relay-bot/internal/config"
	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/domain/ports/adapter"
	"telegram-relay-bot/internal/infra/logging"
)

var _ adapter.Transport = (*RealTelegramBotAdapter)(nil)

const (
	// pollTimeout is the long-poll window in seconds.
	pollTimeout = 60
	// clientTimeout bounds every Bot API request; it must outlast a long poll.
	clientTimeout = (pollTimeout + 30) * time.Second
)

// BotAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// EventHandler consumes classified updates.
type EventHandler interface {
	Handle(ctx context.Context, ev model.Event) error
}

// RealTelegramBotAdapter polls Telegram, turns updates into events and
// implements the outbound Transport.
type RealTelegramBotAdapter struct {
	bot BotAPI
	cfg *config.BotConfig
	log *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	client := &http.Client{Timeout: clientTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("telegram bot authorized")
	return newAdapter(bot, cfg, logger), nil
}

func newAdapter(bot BotAPI, cfg *config.BotConfig, logger *zerolog.Logger) *RealTelegramBotAdapter {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		log:           logger,
		updateWorkers: workers,
	}
}

// StartPolling feeds updates to handler from a pool of workers until ctx is
// cancelled or StopPolling is called.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, handler EventHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel
	defer cancel()

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for up := range updateChan {
				r.handleUpdate(ctx, handler, up)
			}
		}()
	}
	r.log.Info().Int("workers", r.updateWorkers).Msg("telegram polling started")

	defer func() {
		r.bot.StopReceivingUpdates()
		close(updateChan)
		wg.Wait()
		r.log.Info().Msg("telegram polling stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			select {
			case updateChan <- up:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// handleUpdate maps one update and runs the handler under the per-update timeout.
func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, handler EventHandler, up tgbotapi.Update) {
	if q := up.CallbackQuery; q != nil {
		// stop the client-side spinner whatever the outcome
		defer func() {
			if _, err := r.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
				r.log.Debug().Err(err).Str("callback_id", q.ID).Msg("answer callback failed")
			}
		}()
	}

	ev, ok := MapUpdate(up)
	if !ok {
		return
	}

	ctx = logging.WithTraceID(ctx, ulid.Make().String())
	ctx = logging.WithUpdateID(ctx, up.UpdateID)
	ctx = logging.WithTgID(ctx, ev.From().ID)
	if r.cfg.HandleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.HandleTimeout)
		defer cancel()
	}

	start := time.Now()
	err := handler.Handle(ctx, ev)
	log := logging.With(ctx, r.log)
	if err != nil {
		log.Debug().Err(err).Str("event", model.EventType(ev)).Msg("update handled with error")
		return
	}
	log.Debug().Str("event", model.EventType(ev)).Dur("took", time.Since(start)).Msg("update handled")
}
