package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/domain/ports/adapter"
	"telegram-relay-bot/internal/infra/metrics"
)

const (
	actionReply = "reply"
	actionBlock = "block"
)

// ButtonAction is a decoded inline-button payload.
type ButtonAction struct {
	Action            string
	SenderID          int64
	OriginalMessageID int
}

// EncodeReplyData and EncodeBlockData build the callback payloads attached to
// forwarded messages.
func EncodeReplyData(senderID int64, originalMessageID int) string {
	return fmt.Sprintf("%s:%d:%d", actionReply, senderID, originalMessageID)
}

func EncodeBlockData(senderID int64) string {
	return fmt.Sprintf("%s:%d", actionBlock, senderID)
}

// ParseButtonData decodes "reply:<sender>:<message>" and "block:<sender>".
func ParseButtonData(data string) (ButtonAction, bool) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return ButtonAction{}, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return ButtonAction{}, false
	}
	switch parts[0] {
	case actionReply:
		if len(parts) != 3 {
			return ButtonAction{}, false
		}
		msgID, err := strconv.Atoi(parts[2])
		if err != nil {
			return ButtonAction{}, false
		}
		return ButtonAction{Action: actionReply, SenderID: id, OriginalMessageID: msgID}, true
	case actionBlock:
		if len(parts) != 2 {
			return ButtonAction{}, false
		}
		return ButtonAction{Action: actionBlock, SenderID: id}, true
	}
	return ButtonAction{}, false
}

func (r *relayUC) controls(senderID int64, originalMessageID int) [][]adapter.InlineButton {
	return [][]adapter.InlineButton{{
		{Text: r.tr.T("button_reply"), Data: EncodeReplyData(senderID, originalMessageID)},
		{Text: r.tr.T("button_block"), Data: EncodeBlockData(senderID)},
	}}
}

func (r *relayUC) handleButton(ctx context.Context, e model.ButtonPress) error {
	if !r.isOperator(e.Presser.ID) {
		metrics.IncRejection("button_not_operator")
		r.stripButtons(ctx, e)
		r.say(ctx, e.Presser.ID, 0, r.tr.T("buttons_operator_only"))
		return nil
	}

	act, ok := ParseButtonData(e.Data)
	if !ok {
		r.log.Warn().Str("data", e.Data).Msg("unknown button payload ignored")
		return nil
	}

	switch act.Action {
	case actionReply:
		r.stripButtons(ctx, e)
		if err := r.pending.SetPending(ctx, r.operatorID, &model.PendingReply{
			TargetID:        act.SenderID,
			AnchorMessageID: e.AnchorMessageID,
		}); err != nil {
			return fmt.Errorf("set pending reply: %w", err)
		}
		r.say(ctx, r.operatorID, e.AnchorMessageID, r.tr.T("reply_prompt", act.SenderID))
	case actionBlock:
		if r.isOperator(act.SenderID) {
			metrics.IncRejection("self_block")
			r.say(ctx, r.operatorID, 0, r.tr.T("cannot_block_self"))
			return nil
		}
		r.stripButtons(ctx, e)
		return r.blockAndReport(ctx, act.SenderID)
	}
	return nil
}

func (r *relayUC) stripButtons(ctx context.Context, e model.ButtonPress) {
	if e.AnchorMessageID == 0 {
		return
	}
	if err := r.tg.EditButtons(ctx, e.ChatID, e.AnchorMessageID, nil); err != nil {
		r.log.Warn().Err(err).Int("message_id", e.AnchorMessageID).Msg("strip buttons failed")
	}
}
