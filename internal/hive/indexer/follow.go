package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"go.uber.org/zap"
)

const (
	followPluginID = "follow"
	// before this height follow payloads were sent as a bare object
	legacyFollowHeight = 6_000_000
)

var followStates = map[string]int{
	"":       model.FollowStateNone,
	"blog":   model.FollowStateBlog,
	"ignore": model.FollowStateIgnore,
}

// customJSON handles follow plugin ops. Every other id is ignored.
func (b *blockOps) customJSON(ctx context.Context, op model.CustomJSONOperation) error {
	if op.ID != followPluginID {
		return nil
	}
	if len(op.RequiredPostingAuths) != 1 {
		b.logger.Warn("unexpected auths on follow op", zap.Strings("posting_auths", op.RequiredPostingAuths))
		return nil
	}
	account := op.RequiredPostingAuths[0]

	var payload any
	if err := json.Unmarshal([]byte(op.JSON), &payload); err != nil {
		b.logger.Debug("follow op with invalid json", zap.String("account", account), zap.Error(err))
		return nil
	}
	if _, isList := payload.([]any); !isList && b.num < legacyFollowHeight {
		payload = []any{"follow", payload}
	}

	list, ok := payload.([]any)
	if !ok || len(list) != 2 {
		return nil
	}
	cmd, _ := list[0].(string)
	body, ok := list[1].(map[string]any)
	if !ok {
		return nil
	}

	switch cmd {
	case "follow":
		return b.follow(ctx, account, body)
	case "reblog":
		return b.reblog(ctx, account, body)
	default:
		return nil
	}
}

func (b *blockOps) follow(ctx context.Context, account string, body map[string]any) error {
	what, ok := body["what"].([]any)
	if !ok {
		return nil
	}
	follower, ok1 := body["follower"].(string)
	following, ok2 := body["following"].(string)
	if !ok1 || !ok2 {
		return nil
	}

	state := ""
	if len(what) > 0 && what[0] != nil {
		s, ok := what[0].(string)
		if !ok {
			return nil
		}
		state = s
	}
	newState, ok := followStates[state]
	if !ok {
		return nil
	}
	if follower == following || follower != account {
		return nil
	}

	flr, flrOK, err := b.tx.AccountID(ctx, follower)
	if err != nil {
		return err
	}
	flg, flgOK, err := b.tx.AccountID(ctx, following)
	if err != nil {
		return err
	}
	if !flrOK || !flgOK {
		return nil
	}

	oldState, found, err := b.tx.FollowState(ctx, flr, flg)
	if err != nil {
		return fmt.Errorf("read follow state %d->%d: %w", flr, flg, err)
	}
	if newState == oldState {
		return nil
	}

	if found {
		err = b.tx.UpdateFollowState(ctx, flr, flg, newState)
	} else {
		err = b.tx.InsertFollow(ctx, model.Follow{Follower: flr, Following: flg, State: newState, CreatedAt: b.date})
	}
	if err != nil {
		return fmt.Errorf("write follow %d->%d: %w", flr, flg, err)
	}

	if !b.initialSync {
		if newState == model.FollowStateBlog {
			b.deltas.follow(flr, flg)
		}
		if oldState == model.FollowStateBlog {
			b.deltas.unfollow(flr, flg)
		}
	}
	return nil
}

func (b *blockOps) reblog(ctx context.Context, account string, body map[string]any) error {
	blogger, ok1 := body["account"].(string)
	author, ok2 := body["author"].(string)
	permlink, ok3 := body["permlink"].(string)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	if blogger != account {
		return nil
	}

	bloggerID, bloggerOK, err := b.tx.AccountID(ctx, blogger)
	if err != nil {
		return err
	}
	_, authorOK, err := b.tx.AccountID(ctx, author)
	if err != nil {
		return err
	}
	if !bloggerOK || !authorOK {
		return nil
	}

	post, err := b.tx.Post(ctx, author, permlink)
	if err != nil {
		return fmt.Errorf("look up post %s/%s: %w", author, permlink, err)
	}
	if post == nil {
		b.logger.Debug("reblog of unknown post", zap.String("author", author), zap.String("permlink", permlink))
		return nil
	}
	if post.Depth > 0 {
		return nil
	}

	if del, _ := body["delete"].(string); del == "delete" {
		if err := b.tx.DeleteReblog(ctx, blogger, post.ID); err != nil {
			return fmt.Errorf("delete reblog: %w", err)
		}
		if !b.initialSync {
			return b.tx.DeleteAccountFeed(ctx, post.ID, bloggerID)
		}
		return nil
	}

	if err := b.tx.InsertReblog(ctx, blogger, post.ID, b.date); err != nil {
		return fmt.Errorf("insert reblog: %w", err)
	}
	if !b.initialSync {
		return b.tx.InsertFeed(ctx, post.ID, bloggerID, b.date)
	}
	return nil
}

// followDeltas accumulates follower/following counter changes until flushed.
type followDeltas struct {
	followers map[int64]int
	following map[int64]int
}

func newFollowDeltas() *followDeltas {
	return &followDeltas{
		followers: make(map[int64]int),
		following: make(map[int64]int),
	}
}

func (d *followDeltas) follow(follower, following int64) {
	d.following[follower]++
	d.followers[following]++
}

func (d *followDeltas) unfollow(follower, following int64) {
	d.following[follower]--
	d.followers[following]--
}

// drain returns the non-zero deltas ordered by account id and resets d.
func (d *followDeltas) drain() []model.FollowDelta {
	byAccount := make(map[int64]*model.FollowDelta)
	get := func(id int64) *model.FollowDelta {
		if delta, ok := byAccount[id]; ok {
			return delta
		}
		delta := &model.FollowDelta{AccountID: id}
		byAccount[id] = delta
		return delta
	}
	for id, n := range d.followers {
		get(id).Followers += n
	}
	for id, n := range d.following {
		get(id).Following += n
	}

	out := make([]model.FollowDelta, 0, len(byAccount))
	for _, delta := range byAccount {
		if delta.Followers != 0 || delta.Following != 0 {
			out = append(out, *delta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })

	d.followers = make(map[int64]int)
	d.following = make(map[int64]int)
	return out
}

func (d *followDeltas) flush(ctx context.Context, tx Tx) error {
	deltas := d.drain()
	if len(deltas) == 0 {
		return nil
	}
	if err := tx.ApplyFollowDeltas(ctx, deltas); err != nil {
		return fmt.Errorf("flush follow deltas: %w", err)
	}
	return nil
}
