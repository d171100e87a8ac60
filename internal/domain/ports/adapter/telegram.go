// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-relay-bot/internal/domain/model"
)

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// ParseModeHTML asks the transport to render Text/Caption as Telegram HTML.
const ParseModeHTML = "HTML"

// OutboundMessage is one send. The transport picks the Telegram call from Content.Kind;
// for KindText the body is Content.Text, for media kinds it is Content.Caption.
type OutboundMessage struct {
	ChatID    int64
	Content   model.Content
	Buttons   [][]InlineButton
	ParseMode string
	ReplyTo   int
}

// Transport is the port the relay uses to talk to the chat network.
type Transport interface {
	// Send delivers msg and returns the id Telegram assigned to the delivered copy.
	Send(ctx context.Context, msg OutboundMessage) (int, error)
	// EditButtons replaces the inline keyboard of a message; nil rows remove it.
	EditButtons(ctx context.Context, chatID int64, messageID int, rows [][]InlineButton) error
}
