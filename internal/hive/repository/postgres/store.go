package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/indexer"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"github.com/goodnatureofminers/hiveindexer-backend/pkg/safe"
)

var (
	_ indexer.Store = (*Store)(nil)
	_ indexer.Tx    = (*Tx)(nil)
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL projection.
type Store struct {
	pool    *pgxpool.Pool
	metrics Metrics
}

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool, metrics Metrics) (*Store, error) {
	if pool == nil {
		return nil, errors.New("postgres pool is required")
	}
	if metrics == nil {
		return nil, errors.New("postgres metrics is required")
	}
	return &Store{pool: pool, metrics: metrics}, nil
}

func observe(m Metrics, operation string, started time.Time, err *error) {
	m.Observe(operation, *err, started)
}

// Begin opens a read-write transaction.
func (s *Store) Begin(ctx context.Context) (_ indexer.Tx, err error) {
	defer observe(s.metrics, "begin", time.Now(), &err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx, metrics: s.metrics}, nil
}

// HeadBlock returns the newest block row.
func (s *Store) HeadBlock(ctx context.Context) (_ model.BlockRecord, err error) {
	defer observe(s.metrics, "head_block", time.Now(), &err)
	return headBlock(ctx, s.pool)
}

// Block returns the block row at num, or nil.
func (s *Store) Block(ctx context.Context, num uint64) (_ *model.BlockRecord, err error) {
	defer observe(s.metrics, "block", time.Now(), &err)
	return blockAt(ctx, s.pool, num)
}

// IsInitialSync reports whether the initial sync has not finished yet.
func (s *Store) IsInitialSync(ctx context.Context) (initial bool, err error) {
	defer observe(s.metrics, "is_initial_sync", time.Now(), &err)

	if err = s.pool.QueryRow(ctx, `SELECT initial_sync FROM hive_state LIMIT 1`).Scan(&initial); err != nil {
		return false, fmt.Errorf("read initial sync flag: %w", err)
	}
	return initial, nil
}

// FinishInitialSync clears the initial sync flag.
func (s *Store) FinishInitialSync(ctx context.Context) (err error) {
	defer observe(s.metrics, "finish_initial_sync", time.Now(), &err)

	if _, err = s.pool.Exec(ctx, `UPDATE hive_state SET initial_sync = FALSE`); err != nil {
		return fmt.Errorf("clear initial sync flag: %w", err)
	}
	return nil
}

const (
	rebuildFeedPostsQuery = `
INSERT INTO hive_feed_cache (post_id, account_id, created_at)
SELECT p.id, a.id, p.created_at
FROM hive_posts p
JOIN hive_accounts a ON a.name = p.author
WHERE p.depth = 0 AND NOT p.is_deleted
ON CONFLICT (post_id, account_id) DO NOTHING`

	rebuildFeedReblogsQuery = `
INSERT INTO hive_feed_cache (post_id, account_id, created_at)
SELECT r.post_id, a.id, r.created_at
FROM hive_reblogs r
JOIN hive_accounts a ON a.name = r.account
ON CONFLICT (post_id, account_id) DO NOTHING`

	recountFollowsQuery = `
UPDATE hive_accounts SET
	followers = (SELECT COUNT(*) FROM hive_follows f WHERE f.following = hive_accounts.id AND f.state = 1),
	following = (SELECT COUNT(*) FROM hive_follows f WHERE f.follower = hive_accounts.id AND f.state = 1)`
)

// RebuildFeedCache recreates the feed from top-level posts and reblogs.
func (s *Store) RebuildFeedCache(ctx context.Context) (err error) {
	defer observe(s.metrics, "rebuild_feed_cache", time.Now(), &err)

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, query := range []string{`DELETE FROM hive_feed_cache`, rebuildFeedPostsQuery, rebuildFeedReblogsQuery} {
			if _, err := tx.Exec(ctx, query); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild feed cache: %w", err)
	}
	return nil
}

// RecountFollows recomputes follower counters from the follow edges.
func (s *Store) RecountFollows(ctx context.Context) (err error) {
	defer observe(s.metrics, "recount_follows", time.Now(), &err)

	if _, err = s.pool.Exec(ctx, recountFollowsQuery); err != nil {
		return fmt.Errorf("recount follows: %w", err)
	}
	return nil
}

// UpdateChainState stores the latest chain properties.
func (s *Store) UpdateChainState(ctx context.Context, chain model.ChainState) (err error) {
	defer observe(s.metrics, "update_chain_state", time.Now(), &err)

	num, err := safe.Int64(chain.Props.HeadBlockNumber)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
UPDATE hive_state SET
	block_num = $1,
	steem_per_mvest = $2::numeric,
	usd_per_steem = $3::numeric,
	sbd_per_steem = $4::numeric,
	dgpo = $5`,
		num,
		chain.SteemPerMVest.String(),
		chain.USDPerSteem.String(),
		chain.SBDPerSteem.String(),
		string(chain.Props.Raw),
	)
	if err != nil {
		return fmt.Errorf("update chain state: %w", err)
	}
	return nil
}

const blockColumns = `num, hash, COALESCE(prev, ''), txs, ops, created_at`

func headBlock(ctx context.Context, q querier) (model.BlockRecord, error) {
	row := q.QueryRow(ctx, `SELECT `+blockColumns+` FROM hive_blocks ORDER BY num DESC LIMIT 1`)
	block, err := scanBlock(row)
	if err != nil {
		return model.BlockRecord{}, fmt.Errorf("read head block: %w", err)
	}
	return block, nil
}

func blockAt(ctx context.Context, q querier, num uint64) (*model.BlockRecord, error) {
	n, err := safe.Int64(num)
	if err != nil {
		return nil, err
	}
	block, err := scanBlock(q.QueryRow(ctx, `SELECT `+blockColumns+` FROM hive_blocks WHERE num = $1`, n))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read block %d: %w", num, err)
	}
	return &block, nil
}

func scanBlock(row pgx.Row) (model.BlockRecord, error) {
	var (
		num       int64
		block     model.BlockRecord
		createdAt time.Time
	)
	if err := row.Scan(&num, &block.Hash, &block.Prev, &block.TxCount, &block.OpCount, &createdAt); err != nil {
		return model.BlockRecord{}, err
	}
	height, err := safe.Uint64(num)
	if err != nil {
		return model.BlockRecord{}, err
	}
	block.Num = height
	block.CreatedAt = createdAt.UTC()
	return block, nil
}
