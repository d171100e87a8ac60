// Package memory holds process-local fallbacks for stores that normally live in Redis.
package memory

import (
	"context"
	"sync"
	"time"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/domain/ports/repository"
)

var _ repository.PendingReplyRepository = (*PendingReplyRepo)(nil)

type pendingEntry struct {
	reply     model.PendingReply
	expiresAt time.Time
}

// PendingReplyRepo is a map with lazy expiry, used when no Redis is configured.
type PendingReplyRepo struct {
	mu    sync.Mutex
	items map[int64]pendingEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewPendingReplyRepo(ttl time.Duration) *PendingReplyRepo {
	return &PendingReplyRepo{
		items: make(map[int64]pendingEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *PendingReplyRepo) SetPending(_ context.Context, operatorID int64, p *model.PendingReply) error {
	if p == nil {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := pendingEntry{reply: *p}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	r.items[operatorID] = e
	return nil
}

func (r *PendingReplyRepo) GetPending(_ context.Context, operatorID int64) (*model.PendingReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[operatorID]
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && r.now().After(e.expiresAt) {
		delete(r.items, operatorID)
		return nil, nil
	}
	p := e.reply
	return &p, nil
}

func (r *PendingReplyRepo) ClearPending(_ context.Context, operatorID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, operatorID)
	return nil
}
