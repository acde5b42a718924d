package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

// ErrTxDone is returned for any use of a committed or rolled back transaction.
var ErrTxDone = errors.New("transaction already finished")

// Tx writes straight into the store state and journals the prior value of
// every key it touches, so Rollback costs the size of the transaction and
// not the size of the projection.
type Tx struct {
	store *Store
	state *state
	undo  *undo
	done  bool
}

// Commit keeps the transaction's writes and releases the writer slot.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.finish()
	return nil
}

// Rollback restores every touched key and releases the writer slot.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.store.mu.Lock()
	t.undo.restore(t.state)
	t.store.mu.Unlock()
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	t.undo = nil
	t.store.writer.Unlock()
}

func (t *Tx) check() error {
	if t.done {
		return ErrTxDone
	}
	return nil
}

func (t *Tx) HeadBlock(_ context.Context) (model.BlockRecord, error) {
	if err := t.check(); err != nil {
		return model.BlockRecord{}, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.state.blocks[t.state.head], nil
}

func (t *Tx) InsertBlock(_ context.Context, block model.BlockRecord) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, exists := t.state.blocks[block.Num]; exists {
		return fmt.Errorf("block %d already exists", block.Num)
	}
	if block.Num != t.state.head+1 || t.state.blocks[t.state.head].Hash != block.Prev {
		return fmt.Errorf("block %d prev %s does not reference head", block.Num, block.Prev)
	}
	t.undo.blocks.touch(t.state.blocks, block.Num)
	t.state.blocks[block.Num] = block
	t.state.head = block.Num
	return nil
}

func (t *Tx) DeleteBlock(_ context.Context, num uint64) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if num != t.state.head || num == 0 {
		return fmt.Errorf("block %d is referenced or missing", num)
	}
	t.undo.blocks.touch(t.state.blocks, num)
	delete(t.state.blocks, num)
	t.state.head = num - 1
	return nil
}

func (t *Tx) RegisterAccounts(_ context.Context, names []string, createdAt time.Time) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, name := range names {
		if _, exists := t.state.accounts[name]; !exists {
			t.undo.accounts.touch(t.state.accounts, name)
			t.state.addAccount(name, createdAt)
		}
	}
	return nil
}

func (t *Tx) AccountID(_ context.Context, name string) (int64, bool, error) {
	if err := t.check(); err != nil {
		return 0, false, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	a, ok := t.state.accounts[name]
	if !ok {
		return 0, false, nil
	}
	return a.ID, true, nil
}

func (t *Tx) Post(_ context.Context, author, permlink string) (*model.Post, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	id, ok := t.state.postKeys[postKey(author, permlink)]
	if !ok {
		return nil, nil
	}
	p := t.state.posts[id].Post
	return &p, nil
}

func (t *Tx) InsertPost(_ context.Context, post model.Post) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	key := postKey(post.Author, post.Permlink)
	if _, exists := t.state.postKeys[key]; exists {
		return 0, fmt.Errorf("post %s already exists", key)
	}
	if _, ok := t.state.accounts[post.Author]; !ok {
		return 0, fmt.Errorf("post author %q does not exist", post.Author)
	}
	post.ID = t.state.nextPostID
	t.state.nextPostID++
	t.undo.posts.touch(t.state.posts, post.ID)
	t.undo.postKeys.touch(t.state.postKeys, key)
	t.state.posts[post.ID] = &PostRow{Post: post}
	t.state.postKeys[key] = post.ID
	return post.ID, nil
}

func (t *Tx) UndeletePost(_ context.Context, post model.Post) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.state.posts[post.ID]; !ok {
		return fmt.Errorf("post %d does not exist", post.ID)
	}
	row := t.touchPost(post.ID)
	row.IsDeleted = false
	row.ParentID = post.ParentID
	row.Category = post.Category
	row.Community = post.Community
	row.Depth = post.Depth
	return nil
}

func (t *Tx) MarkPostDeleted(_ context.Context, postID int64) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.state.posts[postID]; ok {
		t.touchPost(postID).IsDeleted = true
	}
	return nil
}

func (t *Tx) ReplacePostTags(_ context.Context, postID int64, tags []string) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.undo.tags.touch(t.state.tags, postID)
	if len(tags) == 0 {
		delete(t.state.tags, postID)
		return nil
	}
	t.state.tags[postID] = append([]string(nil), tags...)
	return nil
}

func (t *Tx) RecordVote(_ context.Context, postID int64, at time.Time) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.state.posts[postID]; ok {
		row := t.touchPost(postID)
		row.VoteCount++
		row.LastVoteAt = at
	}
	return nil
}

func (t *Tx) InsertFeed(_ context.Context, postID, accountID int64, at time.Time) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	key := feedKey{postID: postID, accountID: accountID}
	if _, exists := t.state.feed[key]; !exists {
		t.undo.feed.touch(t.state.feed, key)
		t.state.feed[key] = at
	}
	return nil
}

func (t *Tx) DeleteFeed(_ context.Context, postID int64) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for k := range t.state.feed {
		if k.postID == postID {
			t.undo.feed.touch(t.state.feed, k)
			delete(t.state.feed, k)
		}
	}
	return nil
}

func (t *Tx) DeleteAccountFeed(_ context.Context, postID, accountID int64) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	key := feedKey{postID: postID, accountID: accountID}
	t.undo.feed.touch(t.state.feed, key)
	delete(t.state.feed, key)
	return nil
}

func (t *Tx) FollowState(_ context.Context, follower, following int64) (int, bool, error) {
	if err := t.check(); err != nil {
		return 0, false, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	f, ok := t.state.follows[followKey{follower: follower, following: following}]
	if !ok {
		return 0, false, nil
	}
	return f.State, true, nil
}

func (t *Tx) InsertFollow(_ context.Context, follow model.Follow) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	key := followKey{follower: follow.Follower, following: follow.Following}
	if _, exists := t.state.follows[key]; exists {
		return fmt.Errorf("follow %d->%d already exists", follow.Follower, follow.Following)
	}
	t.undo.follows.touch(t.state.follows, key)
	t.state.follows[key] = follow
	return nil
}

func (t *Tx) UpdateFollowState(_ context.Context, follower, following int64, st int) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	key := followKey{follower: follower, following: following}
	f, ok := t.state.follows[key]
	if !ok {
		return nil
	}
	t.undo.follows.touch(t.state.follows, key)
	f.State = st
	t.state.follows[key] = f
	return nil
}

func (t *Tx) ApplyFollowDeltas(_ context.Context, deltas []model.FollowDelta) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, d := range deltas {
		a := t.state.accountByID(d.AccountID)
		if a == nil {
			return fmt.Errorf("account %d does not exist", d.AccountID)
		}
		t.undo.accounts.touch(t.state.accounts, a.Name)
		a = t.state.accounts[a.Name]
		a.Followers += d.Followers
		a.Following += d.Following
	}
	return nil
}

func (t *Tx) InsertReblog(_ context.Context, account string, postID int64, at time.Time) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	key := reblogKey{account: account, postID: postID}
	if _, exists := t.state.reblogs[key]; !exists {
		t.undo.reblogs.touch(t.state.reblogs, key)
		t.state.reblogs[key] = at
	}
	return nil
}

func (t *Tx) DeleteReblog(_ context.Context, account string, postID int64) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	key := reblogKey{account: account, postID: postID}
	t.undo.reblogs.touch(t.state.reblogs, key)
	delete(t.state.reblogs, key)
	return nil
}

func (t *Tx) PostIDsSince(_ context.Context, since time.Time) ([]int64, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var ids []int64
	for id, p := range t.state.posts {
		if !p.CreatedAt.Before(since) {
			ids = append(ids, id)
		}
	}
	return sortedIDs(ids), nil
}

func (t *Tx) DeleteFeedCacheSince(_ context.Context, since time.Time) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var n int64
	for k, at := range t.state.feed {
		if !at.Before(since) {
			t.undo.feed.touch(t.state.feed, k)
			delete(t.state.feed, k)
			n++
		}
	}
	return n, nil
}

func (t *Tx) DeleteReblogsSince(_ context.Context, since time.Time) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var n int64
	for k, at := range t.state.reblogs {
		if !at.Before(since) {
			t.undo.reblogs.touch(t.state.reblogs, k)
			delete(t.state.reblogs, k)
			n++
		}
	}
	return n, nil
}

func (t *Tx) DeleteFollowsSince(_ context.Context, since time.Time) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var n int64
	for k, f := range t.state.follows {
		if !f.CreatedAt.Before(since) {
			t.undo.follows.touch(t.state.follows, k)
			delete(t.state.follows, k)
			n++
		}
	}
	return n, nil
}

func (t *Tx) DeletePostTags(_ context.Context, postIDs []int64) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var n int64
	for _, id := range postIDs {
		n += int64(len(t.state.tags[id]))
		t.undo.tags.touch(t.state.tags, id)
		delete(t.state.tags, id)
	}
	return n, nil
}

func (t *Tx) DeletePosts(_ context.Context, postIDs []int64) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var n int64
	for _, id := range postIDs {
		row, ok := t.state.posts[id]
		if !ok {
			continue
		}
		key := postKey(row.Author, row.Permlink)
		t.undo.postKeys.touch(t.state.postKeys, key)
		t.undo.posts.touch(t.state.posts, id)
		delete(t.state.postKeys, key)
		delete(t.state.posts, id)
		n++
	}
	return n, nil
}

// touchPost journals a post and returns the row that is safe to modify.
func (t *Tx) touchPost(id int64) *PostRow {
	t.undo.posts.touch(t.state.posts, id)
	return t.state.posts[id]
}
