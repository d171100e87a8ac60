//go:build !integration

package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-relay-bot/internal/config"
	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/domain/ports/adapter"
	"telegram-relay-bot/internal/infra/logging"
)

func newTestAdapter(bot *fakeBot) *RealTelegramBotAdapter {
	return newAdapter(bot, &config.BotConfig{Workers: 2, HandleTimeout: time.Second}, logging.Nop())
}

func TestSend_TextWithButtons(t *testing.T) {
	bot := newFakeBot()
	a := newTestAdapter(bot)

	id, err := a.Send(context.Background(), adapter.OutboundMessage{
		ChatID:    42,
		Content:   model.Content{Kind: model.KindText, Text: "<b>hi</b>"},
		ParseMode: adapter.ParseModeHTML,
		ReplyTo:   9,
		Buttons: [][]adapter.InlineButton{{
			{Text: "Reply", Data: "reply:555:10"},
			{Text: "Block", Data: "block:555"},
		}},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != 501 {
		t.Errorf("expected message id 501, got %d", id)
	}
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected MessageConfig, got %T", bot.sent[0])
	}
	if msg.ChatID != 42 || msg.Text != "<b>hi</b>" || msg.ParseMode != "HTML" || msg.ReplyToMessageID != 9 {
		t.Errorf("unexpected message %+v", msg)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected keyboard %+v", msg.ReplyMarkup)
	}
	if d := kb.InlineKeyboard[0][1].CallbackData; d == nil || *d != "block:555" {
		t.Errorf("unexpected callback data %v", d)
	}
}

func TestSend_MediaKinds(t *testing.T) {
	bot := newFakeBot()
	a := newTestAdapter(bot)
	ctx := context.Background()

	kinds := []model.Content{
		{Kind: model.KindPhoto, FileID: "p", Caption: "c"},
		{Kind: model.KindDocument, FileID: "d", Caption: "c"},
		{Kind: model.KindVideo, FileID: "v", Caption: "c"},
		{Kind: model.KindVoice, FileID: "vo", Caption: "c"},
		{Kind: model.KindAudio, FileID: "a", Caption: "c"},
		{Kind: model.KindSticker, FileID: "s"},
	}
	for _, c := range kinds {
		if _, err := a.Send(ctx, adapter.OutboundMessage{ChatID: 1, Content: c}); err != nil {
			t.Fatalf("send %s: %v", c.Kind, err)
		}
	}
	wantTypes := []interface{}{
		tgbotapi.PhotoConfig{}, tgbotapi.DocumentConfig{}, tgbotapi.VideoConfig{},
		tgbotapi.VoiceConfig{}, tgbotapi.AudioConfig{}, tgbotapi.StickerConfig{},
	}
	for i, want := range wantTypes {
		if got := bot.sent[i]; typeName(got) != typeName(want) {
			t.Errorf("kind %s: got %T, want %T", kinds[i].Kind, got, want)
		}
	}
	if photo := bot.sent[0].(tgbotapi.PhotoConfig); photo.Caption != "c" {
		t.Errorf("caption lost: %+v", photo)
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case tgbotapi.PhotoConfig:
		return "photo"
	case tgbotapi.DocumentConfig:
		return "document"
	case tgbotapi.VideoConfig:
		return "video"
	case tgbotapi.VoiceConfig:
		return "voice"
	case tgbotapi.AudioConfig:
		return "audio"
	case tgbotapi.StickerConfig:
		return "sticker"
	}
	return "other"
}

func TestSend_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("transport failure is wrapped", func(t *testing.T) {
		bot := newFakeBot()
		bot.sendErr = errors.New("Forbidden: bot was blocked by the user")
		a := newTestAdapter(bot)
		_, err := a.Send(ctx, adapter.OutboundMessage{ChatID: 1, Content: model.Content{Kind: model.KindText, Text: "x"}})
		if !errors.Is(err, domain.ErrTransport) {
			t.Fatalf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("unsupported kind is refused", func(t *testing.T) {
		a := newTestAdapter(newFakeBot())
		_, err := a.Send(ctx, adapter.OutboundMessage{ChatID: 1, Content: model.Content{Kind: model.KindUnsupported}})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("media without file id is refused", func(t *testing.T) {
		a := newTestAdapter(newFakeBot())
		_, err := a.Send(ctx, adapter.OutboundMessage{ChatID: 1, Content: model.Content{Kind: model.KindPhoto}})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		bot := newFakeBot()
		a := newTestAdapter(bot)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := a.Send(cctx, adapter.OutboundMessage{ChatID: 1, Content: model.Content{Kind: model.KindText, Text: "x"}})
		if !errors.Is(err, domain.ErrTransport) || len(bot.sent) != 0 {
			t.Fatalf("expected no send and ErrTransport, got %v", err)
		}
	})
}

func TestSend_StalledCallEndsAtDeadline(t *testing.T) {
	bot := newFakeBot()
	bot.stall = make(chan struct{})
	defer close(bot.stall)
	a := newTestAdapter(bot)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := a.Send(ctx, adapter.OutboundMessage{ChatID: 1, Content: model.Content{Kind: model.KindText, Text: "x"}})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if took := time.Since(start); took > time.Second {
		t.Fatalf("send returned after %v, want close to the deadline", took)
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if err := a.EditButtons(ctx2, 1, 2, nil); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport from stalled edit, got %v", err)
	}
}

func TestEditButtons(t *testing.T) {
	bot := newFakeBot()
	a := newTestAdapter(bot)

	if err := a.EditButtons(context.Background(), 42, 1001, nil); err != nil {
		t.Fatalf("edit: %v", err)
	}
	edit, ok := bot.Requests()[0].(tgbotapi.EditMessageReplyMarkupConfig)
	if !ok {
		t.Fatalf("expected EditMessageReplyMarkupConfig, got %T", bot.Requests()[0])
	}
	if edit.ChatID != 42 || edit.MessageID != 1001 {
		t.Errorf("unexpected target %+v", edit.BaseEdit)
	}
	if edit.ReplyMarkup == nil || len(edit.ReplyMarkup.InlineKeyboard) != 0 {
		t.Errorf("expected an empty keyboard, got %+v", edit.ReplyMarkup)
	}

	bot.requestErr = errors.New("Bad Request: message is not modified")
	if err := a.EditButtons(context.Background(), 42, 1001, nil); err != nil {
		t.Errorf("not-modified must be ignored, got %v", err)
	}
}

func TestStartPolling_DispatchesAndAnswersCallbacks(t *testing.T) {
	bot := newFakeBot()
	a := newTestAdapter(bot)
	h := newRecordingHandler()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.StartPolling(ctx, h) }()

	bot.updates <- tgbotapi.Update{UpdateID: 1, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    tgUser(144262846),
		Data:    "block:555",
		Message: &tgbotapi.Message{MessageID: 1001, Chat: &tgbotapi.Chat{ID: 144262846}},
	}}

	select {
	case <-h.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop")
	}

	if evs := h.Events(); len(evs) != 1 || model.EventType(evs[0]) != "button" {
		t.Errorf("unexpected events %+v", evs)
	}
	var answered bool
	for _, r := range bot.Requests() {
		if cb, ok := r.(tgbotapi.CallbackConfig); ok && cb.CallbackQueryID == "cb-1" {
			answered = true
		}
	}
	if !answered {
		t.Error("callback query was not answered")
	}
}
