package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, cmd model.Command) error

func (r *relayUC) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":     r.handleStart,
		"help":      r.handleHelp,
		"block":     r.operatorOnly(r.handleBlock),
		"unblock":   r.operatorOnly(r.handleUnblock),
		"blocklist": r.operatorOnly(r.handleBlocklist),
		"cancel":    r.operatorOnly(r.handleCancel),
	}
}

func (r *relayUC) handleCommand(ctx context.Context, cmd model.Command) error {
	name := strings.ToLower(cmd.Name)
	if h, ok := r.commands[name]; ok {
		return h(ctx, cmd)
	}
	if r.isOperator(cmd.Sender.ID) {
		if cmd.RepliedToID != 0 {
			// "/etc is fine" typed as a reply is an answer, not a command
			return r.handleOperatorReply(ctx, model.ProtocolReply{
				Sender:      cmd.Sender,
				ChatID:      cmd.ChatID,
				MessageID:   cmd.MessageID,
				RepliedToID: cmd.RepliedToID,
				Content:     model.Content{Kind: model.KindText, Text: commandText(cmd)},
			})
		}
		r.log.Debug().Str("command", name).Msg("unknown operator command ignored")
		return nil
	}
	// end-users get every message relayed, unknown commands included
	return r.forward(ctx, cmd.Sender, cmd.ChatID, cmd.MessageID, model.Content{
		Kind: model.KindText,
		Text: commandText(cmd),
	})
}

func (r *relayUC) operatorOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, cmd model.Command) error {
		if !r.isOperator(cmd.Sender.ID) {
			metrics.IncRejection("command_not_operator")
			r.say(ctx, cmd.ChatID, 0, r.tr.T("operator_only_command"))
			return nil
		}
		return next(ctx, cmd)
	}
}

func (r *relayUC) rejectBlocked(ctx context.Context, cmd model.Command) bool {
	if r.isOperator(cmd.Sender.ID) || !r.blocklist.Contains(cmd.Sender.ID) {
		return false
	}
	metrics.IncRejection("blocked")
	r.say(ctx, cmd.ChatID, 0, r.tr.T("blocked"))
	return true
}

func (r *relayUC) handleStart(ctx context.Context, cmd model.Command) error {
	if r.rejectBlocked(ctx, cmd) {
		return nil
	}
	r.say(ctx, cmd.ChatID, 0, r.tr.T("welcome", cmd.Sender.FirstName))
	if r.isOperator(cmd.Sender.ID) {
		return nil
	}
	username := cmd.Sender.Username
	if username == "" {
		username = r.tr.T("no_username")
	}
	r.say(ctx, r.operatorID, 0, r.tr.T("new_user", cmd.Sender.DisplayName(), username, cmd.Sender.ID))
	return nil
}

func (r *relayUC) handleHelp(ctx context.Context, cmd model.Command) error {
	if r.rejectBlocked(ctx, cmd) {
		return nil
	}
	text := r.tr.T("help_basic")
	if r.isOperator(cmd.Sender.ID) {
		text += r.tr.T("help_operator")
	}
	r.say(ctx, cmd.ChatID, 0, text)
	return nil
}

func (r *relayUC) handleBlock(ctx context.Context, cmd model.Command) error {
	id, ok := parseUserID(cmd.Args)
	if !ok {
		r.say(ctx, cmd.ChatID, 0, r.tr.T("usage_block"))
		return nil
	}
	return r.blockAndReport(ctx, id)
}

// blockAndReport is shared by /block and the "Block" button.
func (r *relayUC) blockAndReport(ctx context.Context, id int64) error {
	changed, err := r.blocklist.Block(ctx, id)
	switch {
	case errors.Is(err, domain.ErrSelfBlock):
		metrics.IncRejection("self_block")
		r.say(ctx, r.operatorID, 0, r.tr.T("cannot_block_self"))
		return nil
	case errors.Is(err, domain.ErrInvalidArgument):
		r.say(ctx, r.operatorID, 0, r.tr.T("usage_block"))
		return nil
	}
	key := "user_blocked"
	if !changed {
		key = "user_already_blocked"
	}
	r.say(ctx, r.operatorID, 0, r.tr.T(key, id))
	r.warnStorage(ctx, err)
	return nil
}

func (r *relayUC) handleUnblock(ctx context.Context, cmd model.Command) error {
	id, ok := parseUserID(cmd.Args)
	if !ok {
		r.say(ctx, cmd.ChatID, 0, r.tr.T("usage_unblock"))
		return nil
	}
	changed, err := r.blocklist.Unblock(ctx, id)
	if errors.Is(err, domain.ErrSelfBlock) {
		metrics.IncRejection("self_unblock")
		r.say(ctx, cmd.ChatID, 0, r.tr.T("cannot_unblock_self"))
		return nil
	}
	key := "user_unblocked"
	if !changed {
		key = "user_not_blocked"
	}
	r.say(ctx, cmd.ChatID, 0, r.tr.T(key, id))
	r.warnStorage(ctx, err)
	return nil
}

func (r *relayUC) handleBlocklist(ctx context.Context, cmd model.Command) error {
	ids := r.blocklist.IDs()
	if len(ids) == 0 {
		r.say(ctx, cmd.ChatID, 0, r.tr.T("blocklist_empty"))
		return nil
	}
	var b strings.Builder
	b.WriteString(r.tr.T("blocklist_header"))
	for _, id := range ids {
		b.WriteByte('\n')
		b.WriteString(r.tr.T("blocklist_item", id))
	}
	r.say(ctx, cmd.ChatID, 0, b.String())
	return nil
}

func (r *relayUC) handleCancel(ctx context.Context, cmd model.Command) error {
	p, err := r.pending.GetPending(ctx, r.operatorID)
	if err != nil {
		return err
	}
	if p == nil {
		r.say(ctx, cmd.ChatID, 0, r.tr.T("nothing_to_cancel"))
		return nil
	}
	if err := r.pending.ClearPending(ctx, r.operatorID); err != nil {
		return err
	}
	r.say(ctx, cmd.ChatID, 0, r.tr.T("pending_cancelled"))
	return nil
}

// warnStorage tells the operator a mutation was applied in memory only.
func (r *relayUC) warnStorage(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if !errors.Is(err, domain.ErrStorage) {
		r.log.Error().Err(err).Msg("unexpected blocklist error")
	}
	r.say(ctx, r.operatorID, 0, r.tr.T("storage_warning"))
}

func parseUserID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func commandText(cmd model.Command) string {
	if cmd.Text != "" {
		return cmd.Text
	}
	parts := append([]string{"/" + cmd.Name}, cmd.Args...)
	return strings.Join(parts, " ")
}
