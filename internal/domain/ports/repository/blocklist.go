package repository

import "context"

// BlocklistRepository is the durable backend of the blocked-sender set.
// Save overwrites the whole set; implementations must not leave a half-written set behind.
type BlocklistRepository interface {
	Load(ctx context.Context) ([]int64, error)
	Save(ctx context.Context, ids []int64) error
}
