package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"github.com/goodnatureofminers/hiveindexer-backend/pkg/safe"
)

// Tx is a projection transaction over pgx.Tx.
type Tx struct {
	tx      pgx.Tx
	metrics Metrics
}

// exec runs a statement and returns the number of affected rows.
func (t *Tx) exec(ctx context.Context, operation, query string, args ...any) (int64, error) {
	started := time.Now()
	tag, err := t.tx.Exec(ctx, query, args...)
	t.metrics.Observe(operation, err, started)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	return tag.RowsAffected(), nil
}

func (t *Tx) Commit(ctx context.Context) (err error) {
	defer observe(t.metrics, "commit", time.Now(), &err)
	return t.tx.Commit(ctx)
}

func (t *Tx) Rollback(ctx context.Context) (err error) {
	defer observe(t.metrics, "rollback", time.Now(), &err)
	return t.tx.Rollback(ctx)
}

func (t *Tx) HeadBlock(ctx context.Context) (_ model.BlockRecord, err error) {
	defer observe(t.metrics, "head_block", time.Now(), &err)
	return headBlock(ctx, t.tx)
}

func (t *Tx) InsertBlock(ctx context.Context, block model.BlockRecord) error {
	num, err := safe.Int64(block.Num)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "insert_block", `
INSERT INTO hive_blocks (num, hash, prev, txs, ops, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		num, block.Hash, block.Prev, block.TxCount, block.OpCount, block.CreatedAt)
	return err
}

// DeleteBlock removes the head block. Block 0 is never removed.
func (t *Tx) DeleteBlock(ctx context.Context, num uint64) error {
	n, err := safe.Int64(num)
	if err != nil {
		return err
	}
	deleted, err := t.exec(ctx, "delete_block", `
DELETE FROM hive_blocks
WHERE num = $1 AND num > 0 AND num = (SELECT MAX(num) FROM hive_blocks)`, n)
	if err != nil {
		return err
	}
	if deleted != 1 {
		return fmt.Errorf("block %d is not the head block", num)
	}
	return nil
}

func (t *Tx) RegisterAccounts(ctx context.Context, names []string, createdAt time.Time) error {
	if len(names) == 0 {
		return nil
	}
	_, err := t.exec(ctx, "register_accounts", `
INSERT INTO hive_accounts (name, created_at)
SELECT name, $2::timestamptz FROM unnest($1::varchar[]) WITH ORDINALITY AS n(name, ord)
ORDER BY ord
ON CONFLICT (name) DO NOTHING`, names, createdAt)
	return err
}

func (t *Tx) AccountID(ctx context.Context, name string) (_ int64, _ bool, err error) {
	defer observe(t.metrics, "account_id", time.Now(), &err)

	var id int64
	err = t.tx.QueryRow(ctx, `SELECT id FROM hive_accounts WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read account %q: %w", name, err)
	}
	return id, true, nil
}

func (t *Tx) Post(ctx context.Context, author, permlink string) (_ *model.Post, err error) {
	defer observe(t.metrics, "post", time.Now(), &err)

	var post model.Post
	err = t.tx.QueryRow(ctx, `
SELECT id, COALESCE(parent_id, 0), author, permlink, category, community, depth, created_at, is_deleted
FROM hive_posts
WHERE author = $1 AND permlink = $2`, author, permlink).Scan(
		&post.ID, &post.ParentID, &post.Author, &post.Permlink, &post.Category,
		&post.Community, &post.Depth, &post.CreatedAt, &post.IsDeleted,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read post %s/%s: %w", author, permlink, err)
	}
	post.CreatedAt = post.CreatedAt.UTC()
	return &post, nil
}

func (t *Tx) InsertPost(ctx context.Context, post model.Post) (id int64, err error) {
	defer observe(t.metrics, "insert_post", time.Now(), &err)

	err = t.tx.QueryRow(ctx, `
INSERT INTO hive_posts (parent_id, author, permlink, category, community, depth, created_at)
VALUES (NULLIF($1, 0), $2, $3, $4, $5, $6, $7)
RETURNING id`,
		post.ParentID, post.Author, post.Permlink, post.Category, post.Community, post.Depth, post.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert post %s/%s: %w", post.Author, post.Permlink, err)
	}
	return id, nil
}

func (t *Tx) UndeletePost(ctx context.Context, post model.Post) error {
	_, err := t.exec(ctx, "undelete_post", `
UPDATE hive_posts
SET is_deleted = FALSE, parent_id = NULLIF($2, 0), category = $3, community = $4, depth = $5
WHERE id = $1`,
		post.ID, post.ParentID, post.Category, post.Community, post.Depth)
	return err
}

func (t *Tx) MarkPostDeleted(ctx context.Context, postID int64) error {
	_, err := t.exec(ctx, "mark_post_deleted", `UPDATE hive_posts SET is_deleted = TRUE WHERE id = $1`, postID)
	return err
}

func (t *Tx) ReplacePostTags(ctx context.Context, postID int64, tags []string) error {
	if _, err := t.exec(ctx, "delete_post_tags", `DELETE FROM hive_post_tags WHERE post_id = $1`, postID); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	_, err := t.exec(ctx, "insert_post_tags", `
INSERT INTO hive_post_tags (post_id, tag)
SELECT $1::int, unnest($2::varchar[])
ON CONFLICT (tag, post_id) DO NOTHING`, postID, tags)
	return err
}

func (t *Tx) RecordVote(ctx context.Context, postID int64, at time.Time) error {
	_, err := t.exec(ctx, "record_vote", `
UPDATE hive_posts SET vote_count = vote_count + 1, last_vote_at = $2 WHERE id = $1`, postID, at)
	return err
}

func (t *Tx) InsertFeed(ctx context.Context, postID, accountID int64, at time.Time) error {
	_, err := t.exec(ctx, "insert_feed", `
INSERT INTO hive_feed_cache (post_id, account_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (post_id, account_id) DO NOTHING`, postID, accountID, at)
	return err
}

func (t *Tx) DeleteFeed(ctx context.Context, postID int64) error {
	_, err := t.exec(ctx, "delete_feed", `DELETE FROM hive_feed_cache WHERE post_id = $1`, postID)
	return err
}

func (t *Tx) DeleteAccountFeed(ctx context.Context, postID, accountID int64) error {
	_, err := t.exec(ctx, "delete_account_feed",
		`DELETE FROM hive_feed_cache WHERE post_id = $1 AND account_id = $2`, postID, accountID)
	return err
}

func (t *Tx) FollowState(ctx context.Context, follower, following int64) (state int, found bool, err error) {
	defer observe(t.metrics, "follow_state", time.Now(), &err)

	err = t.tx.QueryRow(ctx,
		`SELECT state FROM hive_follows WHERE follower = $1 AND following = $2`, follower, following).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read follow %d->%d: %w", follower, following, err)
	}
	return state, true, nil
}

func (t *Tx) InsertFollow(ctx context.Context, follow model.Follow) error {
	_, err := t.exec(ctx, "insert_follow", `
INSERT INTO hive_follows (follower, following, state, created_at)
VALUES ($1, $2, $3, $4)`, follow.Follower, follow.Following, follow.State, follow.CreatedAt)
	return err
}

func (t *Tx) UpdateFollowState(ctx context.Context, follower, following int64, state int) error {
	_, err := t.exec(ctx, "update_follow_state",
		`UPDATE hive_follows SET state = $3 WHERE follower = $1 AND following = $2`, follower, following, state)
	return err
}

func (t *Tx) ApplyFollowDeltas(ctx context.Context, deltas []model.FollowDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	ids := make([]int64, len(deltas))
	followers := make([]int32, len(deltas))
	following := make([]int32, len(deltas))
	for i, d := range deltas {
		ids[i] = d.AccountID
		var err error
		if followers[i], err = safe.Int32(d.Followers); err != nil {
			return err
		}
		if following[i], err = safe.Int32(d.Following); err != nil {
			return err
		}
	}

	updated, err := t.exec(ctx, "apply_follow_deltas", `
UPDATE hive_accounts a
SET followers = a.followers + d.followers, following = a.following + d.following
FROM unnest($1::int[], $2::int[], $3::int[]) AS d(id, followers, following)
WHERE a.id = d.id`, ids, followers, following)
	if err != nil {
		return err
	}
	if int(updated) != len(deltas) {
		return fmt.Errorf("follow deltas updated %d of %d accounts", updated, len(deltas))
	}
	return nil
}

func (t *Tx) InsertReblog(ctx context.Context, account string, postID int64, at time.Time) error {
	_, err := t.exec(ctx, "insert_reblog", `
INSERT INTO hive_reblogs (account, post_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (account, post_id) DO NOTHING`, account, postID, at)
	return err
}

func (t *Tx) DeleteReblog(ctx context.Context, account string, postID int64) error {
	_, err := t.exec(ctx, "delete_reblog",
		`DELETE FROM hive_reblogs WHERE account = $1 AND post_id = $2`, account, postID)
	return err
}

func (t *Tx) PostIDsSince(ctx context.Context, since time.Time) (_ []int64, err error) {
	defer observe(t.metrics, "post_ids_since", time.Now(), &err)

	rows, err := t.tx.Query(ctx, `SELECT id FROM hive_posts WHERE created_at >= $1 ORDER BY id`, since)
	if err != nil {
		return nil, fmt.Errorf("list posts since %s: %w", since, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan post ids: %w", err)
	}
	return ids, nil
}

func (t *Tx) DeleteFeedCacheSince(ctx context.Context, since time.Time) (int64, error) {
	return t.exec(ctx, "delete_feed_cache_since", `DELETE FROM hive_feed_cache WHERE created_at >= $1`, since)
}

func (t *Tx) DeleteReblogsSince(ctx context.Context, since time.Time) (int64, error) {
	return t.exec(ctx, "delete_reblogs_since", `DELETE FROM hive_reblogs WHERE created_at >= $1`, since)
}

func (t *Tx) DeleteFollowsSince(ctx context.Context, since time.Time) (int64, error) {
	return t.exec(ctx, "delete_follows_since", `DELETE FROM hive_follows WHERE created_at >= $1`, since)
}

func (t *Tx) DeletePostTags(ctx context.Context, postIDs []int64) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	return t.exec(ctx, "delete_post_tags", `DELETE FROM hive_post_tags WHERE post_id = ANY($1)`, postIDs)
}

func (t *Tx) DeletePosts(ctx context.Context, postIDs []int64) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	return t.exec(ctx, "delete_posts", `DELETE FROM hive_posts WHERE id = ANY($1)`, postIDs)
}
