package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/domain/ports/adapter"
	"telegram-relay-bot/internal/infra/metrics"
)

// Send implements adapter.Transport.
func (r *RealTelegramBotAdapter) Send(ctx context.Context, msg adapter.OutboundMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	c, err := chattableFor(msg)
	if err != nil {
		return 0, err
	}
	op := "send_" + msg.Content.Kind.String()
	start := time.Now()
	sent, err := callWithContext(ctx, func() (tgbotapi.Message, error) { return r.bot.Send(c) })
	metrics.ObserveTransportLatency(op, time.Since(start).Milliseconds())
	if err != nil {
		metrics.IncTransportError(op)
		return 0, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return sent.MessageID, nil
}

// EditButtons implements adapter.Transport. Empty rows remove the keyboard.
func (r *RealTelegramBotAdapter) EditButtons(ctx context.Context, chatID int64, messageID int, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	markup := emptyKeyboard()
	if kb := buildKeyboard(rows); kb != nil {
		markup = *kb
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)

	start := time.Now()
	_, err := callWithContext(ctx, func() (*tgbotapi.APIResponse, error) { return r.bot.Request(edit) })
	metrics.ObserveTransportLatency("edit_buttons", time.Since(start).Milliseconds())
	if err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		metrics.IncTransportError("edit_buttons")
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return nil
}

type callResult[T any] struct {
	v   T
	err error
}

// callWithContext runs a Bot API call, which takes no context, and gives up
// when ctx ends. The abandoned request is still bounded by the HTTP client timeout.
func callWithContext[T any](ctx context.Context, call func() (T, error)) (T, error) {
	done := make(chan callResult[T], 1)
	go func() {
		v, err := call()
		done <- callResult[T]{v: v, err: err}
	}()
	select {
	case res := <-done:
		return res.v, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// chattableFor maps one outbound message to its Telegram send call.
func chattableFor(msg adapter.OutboundMessage) (tgbotapi.Chattable, error) {
	c := msg.Content
	file := tgbotapi.FileID(c.FileID)
	if c.Kind.HasFile() && c.FileID == "" {
		return nil, fmt.Errorf("%w: %s without file id", domain.ErrInvalidArgument, c.Kind)
	}

	switch c.Kind {
	case model.KindText:
		cfg := tgbotapi.NewMessage(msg.ChatID, c.Text)
		cfg.ParseMode = msg.ParseMode
		applyBase(&cfg.BaseChat, msg)
		return cfg, nil
	case model.KindPhoto:
		cfg := tgbotapi.NewPhoto(msg.ChatID, file)
		cfg.Caption, cfg.ParseMode = c.Caption, msg.ParseMode
		applyBase(&cfg.BaseChat, msg)
		return cfg, nil
	case model.KindDocument:
		cfg := tgbotapi.NewDocument(msg.ChatID, file)
		cfg.Caption, cfg.ParseMode = c.Caption, msg.ParseMode
		applyBase(&cfg.BaseChat, msg)
		return cfg, nil
	case model.KindVideo:
		cfg := tgbotapi.NewVideo(msg.ChatID, file)
		cfg.Caption, cfg.ParseMode = c.Caption, msg.ParseMode
		applyBase(&cfg.BaseChat, msg)
		return cfg, nil
	case model.KindVoice:
		cfg := tgbotapi.NewVoice(msg.ChatID, file)
		cfg.Caption, cfg.ParseMode = c.Caption, msg.ParseMode
		applyBase(&cfg.BaseChat, msg)
		return cfg, nil
	case model.KindAudio:
		cfg := tgbotapi.NewAudio(msg.ChatID, file)
		cfg.Caption, cfg.ParseMode = c.Caption, msg.ParseMode
		applyBase(&cfg.BaseChat, msg)
		return cfg, nil
	case model.KindSticker:
		cfg := tgbotapi.NewSticker(msg.ChatID, file)
		applyBase(&cfg.BaseChat, msg)
		return cfg, nil
	}
	return nil, fmt.Errorf("%w: cannot send content kind %q", domain.ErrInvalidArgument, c.Kind)
}

func applyBase(base *tgbotapi.BaseChat, msg adapter.OutboundMessage) {
	base.ReplyToMessageID = msg.ReplyTo
	if kb := buildKeyboard(msg.Buttons); kb != nil {
		base.ReplyMarkup = *kb
	}
}
