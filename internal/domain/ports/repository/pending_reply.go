package repository

import (
	"context"

	"telegram-relay-bot/internal/domain/model"
)

// PendingReplyRepository keeps the operator's "reply to" intent between the
// button press and the message that consumes it.
type PendingReplyRepository interface {
	// SetPending replaces any previous intent of the operator.
	SetPending(ctx context.Context, operatorID int64, p *model.PendingReply) error
	// GetPending returns nil, nil when there is no live intent.
	GetPending(ctx context.Context, operatorID int64) (*model.PendingReply, error)
	ClearPending(ctx context.Context, operatorID int64) error
}
