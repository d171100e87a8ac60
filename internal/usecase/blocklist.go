package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/ports/repository"
	"telegram-relay-bot/internal/infra/logging"
	"telegram-relay-bot/internal/infra/metrics"
)

// Blocklist is the in-memory set of blocked end-user IDs, mirrored to a
// BlocklistRepository after every change.
type Blocklist struct {
	mu sync.RWMutex
	// writeMu keeps each mutation and its save together so saves land in
	// mutation order.
	writeMu    sync.Mutex
	ids        map[int64]struct{}
	repo       repository.BlocklistRepository
	operatorID int64
	log        *zerolog.Logger
}

func NewBlocklist(repo repository.BlocklistRepository, operatorID int64, logger *zerolog.Logger) *Blocklist {
	return &Blocklist{
		ids:        make(map[int64]struct{}),
		repo:       repo,
		operatorID: operatorID,
		log:        logger,
	}
}

// Load replaces the in-memory set with the persisted one and returns its size.
// A read failure is logged and leaves the set empty.
func (b *Blocklist) Load(ctx context.Context) int {
	defer logging.TraceDuration(b.log, "Blocklist.Load")()

	ids, err := b.repo.Load(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids = make(map[int64]struct{}, len(ids))
	if err != nil {
		b.log.Error().Err(err).Msg("blocklist load failed, starting empty")
		return 0
	}
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if id == b.operatorID {
			b.log.Warn().Int64("user_id", id).Msg("operator id found in blocklist, dropping it")
			continue
		}
		b.ids[id] = struct{}{}
	}
	b.log.Info().Int("count", len(b.ids)).Msg("blocklist loaded")
	return len(b.ids)
}

func (b *Blocklist) Contains(id int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.ids[id]
	return ok
}

// Block adds id. changed is false when id was already present. The operator
// can never be blocked. A persist failure is returned wrapped in
// domain.ErrStorage while the in-memory change stays in effect.
func (b *Blocklist) Block(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, domain.ErrInvalidArgument
	}
	if id == b.operatorID {
		return false, domain.ErrSelfBlock
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.mu.Lock()
	if _, ok := b.ids[id]; ok {
		b.mu.Unlock()
		return false, nil
	}
	b.ids[id] = struct{}{}
	snapshot := b.sortedLocked()
	b.mu.Unlock()

	metrics.IncBlocklistMutation("block")
	return true, b.persist(ctx, snapshot)
}

// Unblock removes id. changed is false when id was not present. The operator
// is refused like in Block.
func (b *Blocklist) Unblock(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, domain.ErrInvalidArgument
	}
	if id == b.operatorID {
		return false, domain.ErrSelfBlock
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.mu.Lock()
	if _, ok := b.ids[id]; !ok {
		b.mu.Unlock()
		return false, nil
	}
	delete(b.ids, id)
	snapshot := b.sortedLocked()
	b.mu.Unlock()

	metrics.IncBlocklistMutation("unblock")
	return true, b.persist(ctx, snapshot)
}

// IDs returns the blocked IDs in ascending order.
func (b *Blocklist) IDs() []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedLocked()
}

func (b *Blocklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ids)
}

func (b *Blocklist) sortedLocked() []int64 {
	out := make([]int64, 0, len(b.ids))
	for id := range b.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (b *Blocklist) persist(ctx context.Context, ids []int64) error {
	if err := b.repo.Save(ctx, ids); err != nil {
		b.log.Error().Err(err).Int("count", len(ids)).Msg("blocklist save failed")
		return fmt.Errorf("%w: save blocklist: %v", domain.ErrStorage, err)
	}
	return nil
}
