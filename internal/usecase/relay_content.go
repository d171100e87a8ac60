package usecase

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf16"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/domain/ports/adapter"
	"telegram-relay-bot/internal/infra/logging"
	"telegram-relay-bot/internal/infra/metrics"
)

// contentRoute describes how one content kind travels in both directions.
type contentRoute struct {
	// forwardLine is the line under the sender header in the operator chat.
	// Its result is HTML.
	forwardLine func(tr Translator, c model.Content) string
	// replyText accompanies the operator's answer delivered to the end-user.
	// Empty means the content is sent bare.
	replyText func(tr Translator, c model.Content) string
	// detached kinds cannot carry a caption or keyboard; the header and the
	// controls follow in a separate text message.
	detached bool
	// userField points at the user-supplied text shown by forwardLine, if any.
	userField func(c *model.Content) *string
}

// Bot API limits, counted in UTF-16 units of the rendered text.
const (
	maxTextLen    = 4096
	maxCaptionLen = 1024
)

const ellipsis = "…"

var contentRoutes = map[model.ContentKind]contentRoute{
	model.KindText: {
		forwardLine: func(tr Translator, c model.Content) string { return tr.T("forward_text", html.EscapeString(c.Text)) },
		replyText:   func(tr Translator, c model.Content) string { return tr.T("reply_prefix", c.Text) },
		userField:   func(c *model.Content) *string { return &c.Text },
	},
	model.KindPhoto: {
		forwardLine: func(tr Translator, c model.Content) string {
			return tr.T("forward_photo", html.EscapeString(orDefault(tr, c.Caption, "no_caption")))
		},
		replyText: func(tr Translator, c model.Content) string {
			return tr.T("reply_prefix", orDefault(tr, c.Caption, "no_caption"))
		},
		userField: func(c *model.Content) *string { return &c.Caption },
	},
	model.KindDocument: {
		forwardLine: func(tr Translator, c model.Content) string {
			return tr.T("forward_document", html.EscapeString(orDefault(tr, c.FileName, "no_name")))
		},
		replyText: func(tr Translator, c model.Content) string { return tr.T("reply_prefix", c.Caption) },
		userField: func(c *model.Content) *string { return &c.FileName },
	},
	model.KindVideo: {
		forwardLine: func(tr Translator, c model.Content) string {
			return tr.T("forward_video", html.EscapeString(orDefault(tr, c.Caption, "no_caption")))
		},
		replyText: func(tr Translator, c model.Content) string { return tr.T("reply_prefix", c.Caption) },
		userField: func(c *model.Content) *string { return &c.Caption },
	},
	model.KindVoice: {
		forwardLine: func(tr Translator, _ model.Content) string { return tr.T("forward_voice") },
		replyText:   func(tr Translator, _ model.Content) string { return tr.T("reply_voice") },
	},
	model.KindAudio: {
		forwardLine: func(tr Translator, c model.Content) string {
			return tr.T("forward_audio", html.EscapeString(orDefault(tr, c.Title, "no_title")))
		},
		replyText: func(tr Translator, c model.Content) string { return tr.T("reply_audio", c.Caption) },
		userField: func(c *model.Content) *string { return &c.Title },
	},
	model.KindSticker: {
		forwardLine: func(tr Translator, _ model.Content) string { return tr.T("forward_sticker") },
		replyText:   func(Translator, model.Content) string { return "" },
		detached:    true,
	},
	model.KindUnsupported: {
		forwardLine: func(tr Translator, _ model.Content) string { return tr.T("forward_unsupported") },
		replyText:   func(tr Translator, _ model.Content) string { return tr.T("reply_unsupported") },
	},
}

func routeFor(kind model.ContentKind) contentRoute {
	if route, ok := contentRoutes[kind]; ok {
		return route
	}
	return contentRoutes[model.KindUnsupported]
}

// withBody returns the payload that carries body alongside c: text kinds become
// plain text, captioned media keep their file, stickers go bare.
func withBody(c model.Content, body string) model.Content {
	switch {
	case c.Kind.AcceptsCaption():
		c.Caption = body
		return c
	case c.Kind == model.KindSticker:
		return model.Content{Kind: model.KindSticker, FileID: c.FileID}
	default:
		return model.Content{Kind: model.KindText, Text: body}
	}
}

// forward relays an end-user message to the operator and records the copy.
func (r *relayUC) forward(ctx context.Context, s model.Sender, chatID int64, msgID int, c model.Content) error {
	if r.blocklist.Contains(s.ID) {
		metrics.IncRejection("blocked")
		r.say(ctx, chatID, msgID, r.tr.T("blocked_send"))
		return nil
	}

	route := routeFor(c.Kind)
	body := r.forwardBody(s, c, route)
	controls := r.controls(s.ID, msgID)

	out := adapter.OutboundMessage{ChatID: r.operatorID, ParseMode: adapter.ParseModeHTML}
	if route.detached {
		out.Content = withBody(c, "")
		out.ParseMode = ""
	} else {
		out.Content = withBody(c, body)
		out.Buttons = controls
	}
	fwdID, err := r.tg.Send(ctx, out)
	if err != nil {
		return fmt.Errorf("forward %s from %d: %w", c.Kind, s.ID, err)
	}
	r.record(ctx, fwdID, s.ID, msgID)

	if route.detached {
		infoID, err := r.tg.Send(ctx, adapter.OutboundMessage{
			ChatID:    r.operatorID,
			Content:   model.Content{Kind: model.KindText, Text: body},
			Buttons:   controls,
			ParseMode: adapter.ParseModeHTML,
			ReplyTo:   fwdID,
		})
		if err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Int("forwarded_id", fwdID).Msg("sender info for detached content not sent")
		} else {
			r.record(ctx, infoID, s.ID, msgID)
		}
	}
	metrics.IncForwarded(c.Kind.String())

	if c.Kind == model.KindUnsupported {
		r.say(ctx, chatID, msgID, r.tr.T("unsupported_to_user"))
	}
	r.say(ctx, chatID, msgID, r.tr.T("transmitted"))
	return nil
}

func (r *relayUC) record(ctx context.Context, fwdID int, senderID int64, msgID int) {
	err := r.table.Record(fwdID, senderID, msgID)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).
			Int("forwarded_id", fwdID).
			Int64("sender_id", senderID).
			Msg("correlation entry dropped")
		return
	}
	metrics.SetCorrelationEntries(r.table.Len())
}

// deliverReply sends the operator's content to target. Delivery problems are
// reported to the operator, never returned.
func (r *relayUC) deliverReply(ctx context.Context, operatorMsgID int, target int64, c model.Content) error {
	if r.blocklist.Contains(target) {
		metrics.IncRejection("target_blocked")
		r.say(ctx, r.operatorID, operatorMsgID, r.tr.T("target_blocked", target, target))
		return nil
	}

	route := routeFor(c.Kind)
	limit := maxTextLen
	if c.Kind.AcceptsCaption() {
		limit = maxCaptionLen
	}
	_, err := r.tg.Send(ctx, adapter.OutboundMessage{
		ChatID:  target,
		Content: withBody(c, clipText(route.replyText(r.tr, c), limit)),
	})
	if err != nil {
		metrics.IncReplyDelivered(c.Kind.String(), false)
		logging.With(ctx, r.log).Warn().Err(err).Int64("target", target).Msg("reply delivery failed")
		r.say(ctx, r.operatorID, operatorMsgID, r.tr.T("reply_failed", transportReason(err)))
		return nil
	}
	metrics.IncReplyDelivered(c.Kind.String(), true)
	r.say(ctx, r.operatorID, operatorMsgID, r.tr.T("reply_sent", target))
	return nil
}

// forwardBody renders the sender header and content line, shortening the
// user-supplied part so the copy fits the limit of the message that carries it.
func (r *relayUC) forwardBody(s model.Sender, c model.Content, route contentRoute) string {
	header := r.senderHeader(s)
	body := header + route.forwardLine(r.tr, c)
	limit := maxTextLen
	if c.Kind.AcceptsCaption() && !route.detached {
		limit = maxCaptionLen
	}
	if route.userField == nil {
		return body
	}
	// escaping can move the rendered length, so re-measure after each cut
	for i := 0; i < 3; i++ {
		excess := visibleLen(body) - limit
		if excess <= 0 {
			break
		}
		field := route.userField(&c)
		keep := utf16Len(*field) - excess - utf16Len(ellipsis)
		*field = clipUnits(*field, keep) + ellipsis
		body = header + route.forwardLine(r.tr, c)
	}
	return body
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// visibleLen is the length Telegram counts for an HTML message: tags removed,
// entities decoded.
func visibleLen(htmlText string) int {
	return utf16Len(html.UnescapeString(htmlTag.ReplaceAllString(htmlText, "")))
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// clipUnits returns the longest prefix of s that fits in n UTF-16 units.
func clipUnits(s string, n int) string {
	used := 0
	for i, r := range s {
		l := utf16.RuneLen(r)
		if used+l > n {
			return s[:i]
		}
		used += l
	}
	return s
}

// clipText shortens plain text to limit units, marking the cut.
func clipText(s string, limit int) string {
	if utf16Len(s) <= limit {
		return s
	}
	return clipUnits(s, limit-utf16Len(ellipsis)) + ellipsis
}

// senderHeader renders the HTML block that identifies the sender.
func (r *relayUC) senderHeader(s model.Sender) string {
	name := s.DisplayName()
	if name == "" {
		name = fmt.Sprintf("%d", s.ID)
	}
	link := fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, s.ID, html.EscapeString(name))
	username := r.tr.T("no_username")
	if s.Username != "" {
		username = "@" + s.Username
	}

	var b strings.Builder
	b.WriteString(r.tr.T("sender_from", link))
	b.WriteByte('\n')
	b.WriteString(r.tr.T("sender_username", html.EscapeString(username)))
	b.WriteByte('\n')
	b.WriteString(r.tr.T("sender_id", s.ID))
	b.WriteString("\n----------------------------\n")
	return b.String()
}

func orDefault(tr Translator, v, key string) string {
	if strings.TrimSpace(v) == "" {
		return tr.T(key)
	}
	return v
}

// transportReason strips the error class prefix for display.
func transportReason(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrTransport.Error()+": ")
}
