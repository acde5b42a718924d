package indexer_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/indexer"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/repository/memory"
)

var t0 = time.Date(2018, 3, 1, 12, 0, 0, 0, time.UTC)

func blockID(num uint64, branch int) string {
	return fmt.Sprintf("%08x%032x", num, branch)
}

func blockTime(num uint64) time.Time {
	return t0.Add(time.Duration(num) * 3 * time.Second)
}

// newBlock builds block num on branch whose parent is on prevBranch.
func newBlock(num uint64, branch, prevBranch int, ops ...model.Operation) *model.Block {
	prev := model.ZeroHash
	if num > 1 {
		prev = blockID(num-1, prevBranch)
	}
	b := &model.Block{
		Num:       num,
		ID:        blockID(num, branch),
		Previous:  prev,
		Timestamp: model.Time{Time: blockTime(num)},
		Witness:   "initminer",
	}
	if len(ops) > 0 {
		b.Transactions = []model.Transaction{{Operations: ops}}
	}
	return b
}

func accounts(names ...string) []model.Operation {
	ops := make([]model.Operation, 0, len(names))
	for _, name := range names {
		ops = append(ops, model.AccountCreateOperation{Type: "account_create", Account: name})
	}
	return ops
}

func post(author, permlink, category, metadata string) model.CommentOperation {
	return model.CommentOperation{
		ParentPermlink: category,
		Author:         author,
		Permlink:       permlink,
		JSONMetadata:   metadata,
	}
}

func reply(author, permlink, parentAuthor, parentPermlink string) model.CommentOperation {
	return model.CommentOperation{
		ParentAuthor:   parentAuthor,
		ParentPermlink: parentPermlink,
		Author:         author,
		Permlink:       permlink,
	}
}

func followOp(follower, following string, what ...string) model.CustomJSONOperation {
	if what == nil {
		what = []string{}
	}
	w, _ := json.Marshal(what)
	return model.CustomJSONOperation{
		ID:                   "follow",
		RequiredPostingAuths: []string{follower},
		JSON:                 fmt.Sprintf(`["follow",{"follower":%q,"following":%q,"what":%s}]`, follower, following, w),
	}
}

func reblogOp(account, author, permlink string, del bool) model.CustomJSONOperation {
	extra := ""
	if del {
		extra = `,"delete":"delete"`
	}
	return model.CustomJSONOperation{
		ID:                   "follow",
		RequiredPostingAuths: []string{account},
		JSON:                 fmt.Sprintf(`["reblog",{"account":%q,"author":%q,"permlink":%q%s}]`, account, author, permlink, extra),
	}
}

type fixture struct {
	store    *memory.Store
	upstream *indexer.MockUpstream
	metrics  *indexer.MockMetrics
	applier  *indexer.Applier
}

func newFixture(t *testing.T, cfg indexer.Config) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:    memory.NewStore(),
		upstream: indexer.NewMockUpstream(ctrl),
		metrics:  indexer.NewMockMetrics(ctrl),
	}
	var err error
	f.applier, err = indexer.New(f.store, f.upstream, f.metrics, cfg, zap.NewNop())
	require.NoError(t, err)
	return f
}

// allowMetrics accepts any metric calls.
func (f *fixture) allowMetrics() {
	f.metrics.EXPECT().ObserveProcess(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	f.metrics.EXPECT().ObserveRollback(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
}
