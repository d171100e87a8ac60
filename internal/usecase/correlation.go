package usecase

import (
	"context"
	"sync"
	"time"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/model"
	"telegram-relay-bot/internal/infra/metrics"
)

// CorrelationTable maps a message the bot placed in the operator chat back to
// the end-user message it stands for.
type CorrelationTable struct {
	mu      sync.RWMutex
	entries map[int]model.CorrelationEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCorrelationTable builds an empty table. ttl <= 0 disables Sweep.
func NewCorrelationTable(ttl time.Duration) *CorrelationTable {
	return &CorrelationTable{
		entries: make(map[int]model.CorrelationEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Record stores forwardedID -> (senderID, originalMessageID). Entries are
// immutable: a second Record for the same forwardedID fails with
// domain.ErrDuplicateKey.
func (c *CorrelationTable) Record(forwardedID int, senderID int64, originalMessageID int) error {
	if forwardedID <= 0 || senderID <= 0 {
		return domain.ErrInvalidArgument
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[forwardedID]; ok {
		return domain.ErrDuplicateKey
	}
	c.entries[forwardedID] = model.CorrelationEntry{
		ForwardedID:       forwardedID,
		SenderID:          senderID,
		OriginalMessageID: originalMessageID,
		CreatedAt:         c.now(),
	}
	return nil
}

func (c *CorrelationTable) Lookup(forwardedID int) (model.CorrelationEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[forwardedID]
	return e, ok
}

func (c *CorrelationTable) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep drops entries older than the retention window and returns how many
// were removed.
func (c *CorrelationTable) Sweep(now time.Time) int {
	if c.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, e := range c.entries {
		if e.CreatedAt.Before(cutoff) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// SweepExpired is the scheduled form of Sweep; it also refreshes the size gauge.
func (c *CorrelationTable) SweepExpired(_ context.Context) (int, error) {
	n := c.Sweep(c.now())
	metrics.SetCorrelationEntries(c.Len())
	return n, nil
}
