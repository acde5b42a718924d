package memory

import (
	"sort"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

// GenesisTime is the timestamp of the block 0 sentinel.
var GenesisTime = time.Date(2016, 3, 24, 16, 4, 57, 0, time.UTC)

// seedAccounts exist before the first block.
var seedAccounts = []string{"miners", "null", "temp", "initminer"}

// Account is a row of the accounts table.
type Account struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	Followers int
	Following int
}

// PostRow is a post together with its vote bookkeeping.
type PostRow struct {
	model.Post
	VoteCount  int
	LastVoteAt time.Time
}

// Reblog is a row of the reblogs table.
type Reblog struct {
	Account   string
	PostID    int64
	CreatedAt time.Time
}

// FeedEntry is a row of the feed cache.
type FeedEntry struct {
	PostID    int64
	AccountID int64
	CreatedAt time.Time
}

type followKey struct {
	follower, following int64
}

type reblogKey struct {
	account string
	postID  int64
}

type feedKey struct {
	postID, accountID int64
}

type state struct {
	blocks map[uint64]model.BlockRecord
	head   uint64

	accounts      map[string]*Account
	nextAccountID int64

	posts      map[int64]*PostRow
	postKeys   map[string]int64
	nextPostID int64
	tags       map[int64][]string

	follows map[followKey]model.Follow
	reblogs map[reblogKey]time.Time
	feed    map[feedKey]time.Time

	initialSync bool
	chain       *model.ChainState
}

func newState() *state {
	s := &state{
		blocks:        make(map[uint64]model.BlockRecord),
		accounts:      make(map[string]*Account),
		nextAccountID: 1,
		posts:         make(map[int64]*PostRow),
		postKeys:      make(map[string]int64),
		nextPostID:    1,
		tags:          make(map[int64][]string),
		follows:       make(map[followKey]model.Follow),
		reblogs:       make(map[reblogKey]time.Time),
		feed:          make(map[feedKey]time.Time),
		initialSync:   true,
	}
	s.blocks[0] = model.BlockRecord{Num: 0, Hash: model.ZeroHash, CreatedAt: GenesisTime}
	for _, name := range seedAccounts {
		s.addAccount(name, GenesisTime.Add(3*time.Second))
	}
	return s
}

func (s *state) addAccount(name string, createdAt time.Time) {
	s.accounts[name] = &Account{ID: s.nextAccountID, Name: name, CreatedAt: createdAt}
	s.nextAccountID++
}

func (s *state) accountByID(id int64) *Account {
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// prior is the value a key held before a transaction first touched it.
type prior[V any] struct {
	v  V
	ok bool
}

// journal keeps the first-seen value of every key touched in one map.
type journal[K comparable, V any] struct {
	saved map[K]prior[V]
	// copy, when set, gives the transaction a private value to modify so the
	// saved one stays intact.
	copy func(V) V
}

func newJournal[K comparable, V any](copyFn func(V) V) *journal[K, V] {
	return &journal[K, V]{saved: make(map[K]prior[V]), copy: copyFn}
}

func (j *journal[K, V]) touch(m map[K]V, k K) {
	if _, seen := j.saved[k]; seen {
		return
	}
	v, ok := m[k]
	j.saved[k] = prior[V]{v: v, ok: ok}
	if ok && j.copy != nil {
		m[k] = j.copy(v)
	}
}

func (j *journal[K, V]) restore(m map[K]V) {
	for k, e := range j.saved {
		if e.ok {
			m[k] = e.v
		} else {
			delete(m, k)
		}
	}
}

// undo is the rollback journal of one transaction.
type undo struct {
	head          uint64
	nextAccountID int64
	nextPostID    int64

	blocks   *journal[uint64, model.BlockRecord]
	accounts *journal[string, *Account]
	posts    *journal[int64, *PostRow]
	postKeys *journal[string, int64]
	tags     *journal[int64, []string]
	follows  *journal[followKey, model.Follow]
	reblogs  *journal[reblogKey, time.Time]
	feed     *journal[feedKey, time.Time]
}

func newUndo(s *state) *undo {
	return &undo{
		head:          s.head,
		nextAccountID: s.nextAccountID,
		nextPostID:    s.nextPostID,
		blocks:        newJournal[uint64, model.BlockRecord](nil),
		accounts: newJournal[string, *Account](func(a *Account) *Account {
			c := *a
			return &c
		}),
		posts: newJournal[int64, *PostRow](func(p *PostRow) *PostRow {
			c := *p
			return &c
		}),
		postKeys: newJournal[string, int64](nil),
		tags:     newJournal[int64, []string](nil),
		follows:  newJournal[followKey, model.Follow](nil),
		reblogs:  newJournal[reblogKey, time.Time](nil),
		feed:     newJournal[feedKey, time.Time](nil),
	}
}

func (u *undo) restore(s *state) {
	s.head = u.head
	s.nextAccountID = u.nextAccountID
	s.nextPostID = u.nextPostID
	u.blocks.restore(s.blocks)
	u.accounts.restore(s.accounts)
	u.posts.restore(s.posts)
	u.postKeys.restore(s.postKeys)
	u.tags.restore(s.tags)
	u.follows.restore(s.follows)
	u.reblogs.restore(s.reblogs)
	u.feed.restore(s.feed)
}

func postKey(author, permlink string) string {
	return author + "/" + permlink
}

func sortedIDs(ids []int64) []int64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
