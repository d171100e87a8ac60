package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/domain/ports/repository"
)

var _ repository.PendingReplyRepository = (*PendingReplyRepo)(nil)

// PendingReplyRepo keeps the operator's reply intent in Redis so it survives
// a restart and expires on its own.
type PendingReplyRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewPendingReplyRepo(client RedisClient, ttl time.Duration) *PendingReplyRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PendingReplyRepo{client: client, ttl: ttl}
}

func (s *PendingReplyRepo) key(operatorID int64) string {
	return fmt.Sprintf("pending_reply:%d", operatorID)
}

func (s *PendingReplyRepo) SetPending(ctx context.Context, operatorID int64, p *model.PendingReply) error {
	if p == nil {
		return domain.ErrInvalidArgument
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(operatorID), data, s.ttl); err != nil {
		return fmt.Errorf("%w: set pending reply: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *PendingReplyRepo) GetPending(ctx context.Context, operatorID int64) (*model.PendingReply, error) {
	data, err := s.client.Get(ctx, s.key(operatorID))
	if isNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get pending reply: %v", domain.ErrStorage, err)
	}

	var p model.PendingReply
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("%w: decode pending reply: %v", domain.ErrStorage, err)
	}
	return &p, nil
}

func (s *PendingReplyRepo) ClearPending(ctx context.Context, operatorID int64) error {
	if err := s.client.Del(ctx, s.key(operatorID)); err != nil {
		return fmt.Errorf("%w: clear pending reply: %v", domain.ErrStorage, err)
	}
	return nil
}
