// Package file stores the blocklist as a human-readable JSON array.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/ports/repository"
	"telegram-relay-bot/internal/infra/logging"
)

// Compile-time check
var _ repository.BlocklistRepository = (*BlocklistRepo)(nil)

type BlocklistRepo struct {
	path string
	log  *zerolog.Logger
}

func NewBlocklistRepo(path string, logger *zerolog.Logger) *BlocklistRepo {
	return &BlocklistRepo{path: path, log: logger}
}

// Load returns the stored ids; a missing file is an empty blocklist.
func (r *BlocklistRepo) Load(ctx context.Context) ([]int64, error) {
	defer logging.TraceDuration(r.log, "BlocklistFile.Load")()

	b, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.log.Info().Str("path", r.path).Msg("no blocklist file yet")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStorage, r.path, err)
	}
	var ids []int64
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrStorage, r.path, err)
	}
	return ids, nil
}

// Save rewrites the whole file through a temp file renamed over the target,
// so a crash mid-write leaves the previous version intact.
func (r *BlocklistRepo) Save(ctx context.Context, ids []int64) error {
	defer logging.TraceDuration(r.log, "BlocklistFile.Save")()

	sorted := append([]int64{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	b, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("%w: encode blocklist: %v", domain.ErrStorage, err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %v", domain.ErrStorage, dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorage, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync %s: %v", domain.ErrStorage, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close %s: %v", domain.ErrStorage, tmpName, err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: rename into %s: %v", domain.ErrStorage, r.path, err)
	}
	r.log.Debug().Str("path", r.path).Int("count", len(sorted)).Msg("blocklist saved")
	return nil
}
