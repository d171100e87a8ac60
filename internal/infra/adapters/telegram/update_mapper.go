package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-relay-bot/internal/domain/model"
)

// MapUpdate classifies a raw update. Updates the relay does not care about
// (edits, channel posts, anonymous messages) report false.
func MapUpdate(up tgbotapi.Update) (model.Event, bool) {
	if q := up.CallbackQuery; q != nil {
		if q.From == nil {
			return nil, false
		}
		ev := model.ButtonPress{
			CallbackID: q.ID,
			Data:       strings.TrimSpace(q.Data),
			Presser:    senderOf(q.From),
			ChatID:     q.From.ID,
		}
		if q.Message != nil {
			ev.AnchorMessageID = q.Message.MessageID
			if q.Message.Chat != nil {
				ev.ChatID = q.Message.Chat.ID
			}
		}
		return ev, true
	}

	msg := up.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil, false
	}
	sender := senderOf(msg.From)

	if msg.IsCommand() {
		cmd := model.Command{
			Name:      msg.Command(),
			Args:      strings.Fields(msg.CommandArguments()),
			Text:      msg.Text,
			Sender:    sender,
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
		}
		if msg.ReplyToMessage != nil {
			cmd.RepliedToID = msg.ReplyToMessage.MessageID
		}
		return cmd, true
	}

	content := ContentOf(msg)
	if msg.ReplyToMessage != nil {
		return model.ProtocolReply{
			Sender:      sender,
			ChatID:      msg.Chat.ID,
			MessageID:   msg.MessageID,
			RepliedToID: msg.ReplyToMessage.MessageID,
			Content:     content,
		}, true
	}
	return model.ContentMessage{
		Sender:    sender,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Content:   content,
	}, true
}

// ContentOf picks the content kind of msg, text first.
func ContentOf(msg *tgbotapi.Message) model.Content {
	switch {
	case msg.Text != "":
		return model.Content{Kind: model.KindText, Text: msg.Text}
	case len(msg.Photo) > 0:
		// the last size is the largest
		best := msg.Photo[len(msg.Photo)-1]
		return model.Content{Kind: model.KindPhoto, FileID: best.FileID, Caption: msg.Caption}
	case msg.Document != nil:
		return model.Content{Kind: model.KindDocument, FileID: msg.Document.FileID, FileName: msg.Document.FileName, Caption: msg.Caption}
	case msg.Video != nil:
		return model.Content{Kind: model.KindVideo, FileID: msg.Video.FileID, Caption: msg.Caption}
	case msg.Voice != nil:
		return model.Content{Kind: model.KindVoice, FileID: msg.Voice.FileID, Caption: msg.Caption}
	case msg.Audio != nil:
		return model.Content{Kind: model.KindAudio, FileID: msg.Audio.FileID, Title: msg.Audio.Title, Caption: msg.Caption}
	case msg.Sticker != nil:
		return model.Content{Kind: model.KindSticker, FileID: msg.Sticker.FileID}
	default:
		return model.Content{Kind: model.KindUnsupported}
	}
}

func senderOf(u *tgbotapi.User) model.Sender {
	return model.Sender{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}
