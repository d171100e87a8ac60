package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-relay-bot/internal/domain/ports/adapter"
)

// buildKeyboard converts port buttons to a tgbotapi inline keyboard.
//   - If btn.URL is set, the button opens a link
//   - Else if btn.Data is set, the button sends callback data
//   - Else the label doubles as callback data
//
// It returns nil when no row has a button.
func buildKeyboard(rows [][]adapter.InlineButton) *tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, r)
	}
	if len(kbRows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &markup
}

// emptyKeyboard is what Telegram expects to remove an inline keyboard.
func emptyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}
