// Package memory is an in-process projection store. Transactions write in
// place under a rollback journal; the store admits one open transaction at a
// time and its read helpers see that transaction's writes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/indexer"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

var (
	_ indexer.Store = (*Store)(nil)
	_ indexer.Tx    = (*Tx)(nil)
)

// Store keeps the projection in memory. It supports a single writer.
type Store struct {
	// writer is held by the open transaction from Begin to Commit or Rollback.
	writer sync.Mutex
	mu     sync.RWMutex
	state  *state
}

// NewStore returns a store holding only the genesis sentinel and seed accounts.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Begin starts a transaction, waiting for the previous one to finish.
func (s *Store) Begin(_ context.Context) (indexer.Tx, error) {
	s.writer.Lock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Tx{store: s, state: s.state, undo: newUndo(s.state)}, nil
}

// HeadBlock returns the newest block.
func (s *Store) HeadBlock(_ context.Context) (model.BlockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.blocks[s.state.head], nil
}

// Block returns the block at num, or nil.
func (s *Store) Block(_ context.Context, num uint64) (*model.BlockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.blocks[num]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// IsInitialSync reports whether the initial sync has not finished yet.
func (s *Store) IsInitialSync(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.initialSync, nil
}

// FinishInitialSync marks the initial sync as complete.
func (s *Store) FinishInitialSync(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.initialSync = false
	return nil
}

// RebuildFeedCache recreates the feed from top-level posts and reblogs.
func (s *Store) RebuildFeedCache(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.feed = make(map[feedKey]time.Time)
	for _, p := range st.posts {
		if p.Depth != 0 || p.IsDeleted {
			continue
		}
		author, ok := st.accounts[p.Author]
		if !ok {
			continue
		}
		st.feed[feedKey{postID: p.ID, accountID: author.ID}] = p.CreatedAt
	}
	for k, at := range st.reblogs {
		account, ok := st.accounts[k.account]
		if !ok {
			continue
		}
		key := feedKey{postID: k.postID, accountID: account.ID}
		if _, exists := st.feed[key]; !exists {
			st.feed[key] = at
		}
	}
	return nil
}

// RecountFollows recomputes follower counters from the follow edges.
func (s *Store) RecountFollows(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	for _, a := range st.accounts {
		a.Followers, a.Following = 0, 0
	}
	for _, f := range st.follows {
		if f.State != model.FollowStateBlog {
			continue
		}
		if a := st.accountByID(f.Follower); a != nil {
			a.Following++
		}
		if a := st.accountByID(f.Following); a != nil {
			a.Followers++
		}
	}
	return nil
}

// UpdateChainState stores the latest chain properties.
func (s *Store) UpdateChainState(_ context.Context, chain model.ChainState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.chain = &chain
	return nil
}

// ChainState returns the stored chain properties, or nil.
func (s *Store) ChainState() *model.ChainState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.chain == nil {
		return nil
	}
	chain := *s.state.chain
	return &chain
}

// Blocks returns all blocks ordered by height, the sentinel included.
func (s *Store) Blocks() []model.BlockRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.BlockRecord, 0, len(s.state.blocks))
	for _, b := range s.state.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Num < out[j].Num })
	return out
}

// Account returns a copy of the named account, or nil.
func (s *Store) Account(name string) *Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.accounts[name]
	if !ok {
		return nil
	}
	out := *a
	return &out
}

// Posts returns all posts ordered by id.
func (s *Store) Posts() []PostRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PostRow, 0, len(s.state.posts))
	for _, p := range s.state.posts {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PostTags returns the tags of a post.
func (s *Store) PostTags(postID int64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state.tags[postID]...)
}

// Follows returns all follow edges ordered by follower and following.
func (s *Store) Follows() []model.Follow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Follow, 0, len(s.state.follows))
	for _, f := range s.state.follows {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Follower != out[j].Follower {
			return out[i].Follower < out[j].Follower
		}
		return out[i].Following < out[j].Following
	})
	return out
}

// Reblogs returns all reblogs ordered by post and account.
func (s *Store) Reblogs() []Reblog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reblog, 0, len(s.state.reblogs))
	for k, at := range s.state.reblogs {
		out = append(out, Reblog{Account: k.account, PostID: k.postID, CreatedAt: at})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostID != out[j].PostID {
			return out[i].PostID < out[j].PostID
		}
		return out[i].Account < out[j].Account
	})
	return out
}

// Feed returns the feed cache ordered by post and account.
func (s *Store) Feed() []FeedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FeedEntry, 0, len(s.state.feed))
	for k, at := range s.state.feed {
		out = append(out, FeedEntry{PostID: k.postID, AccountID: k.accountID, CreatedAt: at})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostID != out[j].PostID {
			return out[i].PostID < out[j].PostID
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out
}
