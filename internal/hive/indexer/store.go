package indexer

import (
	"context"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

// Store is the persisted projection the applier writes to.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	// HeadBlock returns the newest persisted block. A fresh store returns the
	// block 0 sentinel.
	HeadBlock(ctx context.Context) (model.BlockRecord, error)
	// Block returns the persisted block at num, or nil.
	Block(ctx context.Context, num uint64) (*model.BlockRecord, error)
}

// Tx is a unit of work against the Store. Nothing is visible to readers
// until Commit.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	HeadBlock(ctx context.Context) (model.BlockRecord, error)
	InsertBlock(ctx context.Context, block model.BlockRecord) error
	DeleteBlock(ctx context.Context, num uint64) error

	// RegisterAccounts inserts names that do not exist yet.
	RegisterAccounts(ctx context.Context, names []string, createdAt time.Time) error
	AccountID(ctx context.Context, name string) (int64, bool, error)

	// Post returns the post by author and permlink, or nil.
	Post(ctx context.Context, author, permlink string) (*model.Post, error)
	InsertPost(ctx context.Context, post model.Post) (int64, error)
	// UndeletePost reuses the row of a deleted post for a new one.
	UndeletePost(ctx context.Context, post model.Post) error
	MarkPostDeleted(ctx context.Context, postID int64) error
	ReplacePostTags(ctx context.Context, postID int64, tags []string) error
	RecordVote(ctx context.Context, postID int64, at time.Time) error

	InsertFeed(ctx context.Context, postID, accountID int64, at time.Time) error
	// DeleteFeed removes the post from every feed.
	DeleteFeed(ctx context.Context, postID int64) error
	DeleteAccountFeed(ctx context.Context, postID, accountID int64) error

	FollowState(ctx context.Context, follower, following int64) (int, bool, error)
	InsertFollow(ctx context.Context, follow model.Follow) error
	UpdateFollowState(ctx context.Context, follower, following int64, state int) error
	ApplyFollowDeltas(ctx context.Context, deltas []model.FollowDelta) error

	InsertReblog(ctx context.Context, account string, postID int64, at time.Time) error
	DeleteReblog(ctx context.Context, account string, postID int64) error

	PostIDsSince(ctx context.Context, since time.Time) ([]int64, error)
	DeleteFeedCacheSince(ctx context.Context, since time.Time) (int64, error)
	DeleteReblogsSince(ctx context.Context, since time.Time) (int64, error)
	DeleteFollowsSince(ctx context.Context, since time.Time) (int64, error)
	DeletePostTags(ctx context.Context, postIDs []int64) (int64, error)
	DeletePosts(ctx context.Context, postIDs []int64) (int64, error)
}
