package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/domain/ports/repository"
	"telegram-relay-bot/internal/infra/logging"
)

// Compile-time check
var _ repository.BlocklistRepository = (*blocklistRepo)(nil)

const blocklistSchema = `
CREATE TABLE IF NOT EXISTS blocked_users (
	user_id    BIGINT PRIMARY KEY,
	blocked_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type blocklistRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
	log  *zerolog.Logger
}

func NewBlocklistRepo(pool *pgxpool.Pool, tm repository.TransactionManager, logger *zerolog.Logger) *blocklistRepo {
	return &blocklistRepo{pool: pool, tm: tm, log: logger}
}

// EnsureSchema creates the blocked_users table when it does not exist.
func (r *blocklistRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, blocklistSchema); err != nil {
		return fmt.Errorf("%w: create blocked_users: %v", domain.ErrStorage, err)
	}
	return nil
}

func (r *blocklistRepo) Load(ctx context.Context) ([]int64, error) {
	defer logging.TraceDuration(r.log, "BlocklistRepo.Load")()

	exec, err := getExecutor(r.pool, repository.NoTX)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, `SELECT user_id FROM blocked_users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: select blocked_users: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan blocked_users: %v", domain.ErrStorage, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate blocked_users: %v", domain.ErrStorage, err)
	}
	return ids, nil
}

// Save makes the table hold exactly ids, in one transaction.
func (r *blocklistRepo) Save(ctx context.Context, ids []int64) error {
	defer logging.TraceDuration(r.log, "BlocklistRepo.Save")()

	err := r.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		exec, err := getExecutor(r.pool, tx)
		if err != nil {
			return err
		}
		if ids == nil {
			ids = []int64{}
		}
		if _, err := exec.Exec(ctx, `DELETE FROM blocked_users WHERE NOT (user_id = ANY($1))`, ids); err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, `
			INSERT INTO blocked_users (user_id)
			SELECT unnest($1::BIGINT[])
			ON CONFLICT (user_id) DO NOTHING`, ids); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save blocked_users: %v", domain.ErrStorage, err)
	}
	return nil
}
