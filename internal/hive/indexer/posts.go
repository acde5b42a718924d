package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"go.uber.org/zap"
)

const (
	maxTags   = 5
	maxTagLen = 32
)

// comment inserts a new post, ignores an edit or reinstates a deleted post.
func (b *blockOps) comment(ctx context.Context, op model.CommentOperation) error {
	existing, err := b.tx.Post(ctx, op.Author, op.Permlink)
	if err != nil {
		return fmt.Errorf("look up post %s/%s: %w", op.Author, op.Permlink, err)
	}

	switch {
	case existing == nil:
		return b.insertPost(ctx, op)
	case !existing.IsDeleted:
		b.logger.Debug("post edited", zap.String("author", op.Author), zap.String("permlink", op.Permlink))
		return nil
	default:
		return b.undeletePost(ctx, op, existing.ID)
	}
}

func (b *blockOps) insertPost(ctx context.Context, op model.CommentOperation) error {
	post, err := b.buildPost(ctx, op)
	if err != nil {
		return err
	}
	id, err := b.tx.InsertPost(ctx, post)
	if err != nil {
		return fmt.Errorf("insert post %s/%s: %w", op.Author, op.Permlink, err)
	}
	post.ID = id
	return b.afterPostWrite(ctx, op, post)
}

func (b *blockOps) undeletePost(ctx context.Context, op model.CommentOperation, id int64) error {
	post, err := b.buildPost(ctx, op)
	if err != nil {
		return err
	}
	post.ID = id
	if err := b.tx.UndeletePost(ctx, post); err != nil {
		return fmt.Errorf("undelete post %d: %w", id, err)
	}
	return b.afterPostWrite(ctx, op, post)
}

func (b *blockOps) afterPostWrite(ctx context.Context, op model.CommentOperation, post model.Post) error {
	if post.Depth != 0 {
		return nil
	}
	if err := b.tx.ReplacePostTags(ctx, post.ID, postTags(post.Category, op.JSONMetadata)); err != nil {
		return fmt.Errorf("write tags of post %d: %w", post.ID, err)
	}
	if b.initialSync {
		return nil
	}
	authorID, ok, err := b.tx.AccountID(ctx, post.Author)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("author %q of post %d is not registered", post.Author, post.ID)
	}
	return b.tx.InsertFeed(ctx, post.ID, authorID, b.date)
}

// buildPost derives depth, category and community. Comments inherit them
// from their parent.
func (b *blockOps) buildPost(ctx context.Context, op model.CommentOperation) (model.Post, error) {
	post := model.Post{
		Author:    op.Author,
		Permlink:  op.Permlink,
		CreatedAt: b.date,
	}

	if op.ParentAuthor == "" {
		post.Category = op.ParentPermlink
		post.Community = op.Author
		community, err := b.opCommunity(ctx, op.JSONMetadata)
		if err != nil {
			return model.Post{}, err
		}
		if community != "" {
			post.Community = community
		}
		return post, nil
	}

	parent, err := b.tx.Post(ctx, op.ParentAuthor, op.ParentPermlink)
	if err != nil {
		return model.Post{}, fmt.Errorf("look up parent %s/%s: %w", op.ParentAuthor, op.ParentPermlink, err)
	}
	if parent == nil {
		return model.Post{}, fmt.Errorf("%w: %s/%s", ErrParentNotFound, op.ParentAuthor, op.ParentPermlink)
	}
	post.ParentID = parent.ID
	post.Depth = parent.Depth + 1
	post.Category = parent.Category
	post.Community = parent.Community
	return post, nil
}

// opCommunity reads json_metadata.community when it names an existing account.
func (b *blockOps) opCommunity(ctx context.Context, metadata string) (string, error) {
	md := jsonObject(metadata)
	community, ok := md["community"].(string)
	if !ok || community == "" {
		return "", nil
	}
	_, exists, err := b.tx.AccountID(ctx, community)
	if err != nil || !exists {
		return "", err
	}
	return community, nil
}

func (b *blockOps) deleteComment(ctx context.Context, op model.DeleteCommentOperation) error {
	post, err := b.tx.Post(ctx, op.Author, op.Permlink)
	if err != nil {
		return fmt.Errorf("look up post %s/%s: %w", op.Author, op.Permlink, err)
	}
	if post == nil {
		b.logger.Warn("delete of unknown post", zap.String("author", op.Author), zap.String("permlink", op.Permlink))
		return nil
	}
	if err := b.tx.MarkPostDeleted(ctx, post.ID); err != nil {
		return fmt.Errorf("delete post %d: %w", post.ID, err)
	}
	if !b.initialSync && post.Depth == 0 {
		return b.tx.DeleteFeed(ctx, post.ID)
	}
	return nil
}

func (b *blockOps) vote(ctx context.Context, op model.VoteOperation) error {
	post, err := b.tx.Post(ctx, op.Author, op.Permlink)
	if err != nil {
		return fmt.Errorf("look up post %s/%s: %w", op.Author, op.Permlink, err)
	}
	if post == nil {
		return nil
	}
	return b.tx.RecordVote(ctx, post.ID, b.date)
}

// postTags returns the category followed by json_metadata.tags, trimmed,
// lowercased and deduplicated, at most five.
func postTags(category, metadata string) []string {
	candidates := []string{category}
	if raw, ok := jsonObject(metadata)["tags"].([]any); ok {
		for _, t := range raw {
			switch v := t.(type) {
			case string:
				candidates = append(candidates, v)
			case float64:
				candidates = append(candidates, fmt.Sprint(v))
			}
		}
	}
	if len(candidates) > maxTags {
		candidates = candidates[:maxTags]
	}

	tags := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		tag := strings.ToLower(strings.Trim(c, "# "))
		if r := []rune(tag); len(r) > maxTagLen {
			tag = string(r[:maxTagLen])
		}
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func jsonObject(s string) map[string]any {
	if s == "" {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}
