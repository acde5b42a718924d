package model

import "time"

// Follow states as stored in hive_follows.state.
const (
	FollowStateNone   = 0
	FollowStateBlog   = 1
	FollowStateIgnore = 2
)

// Post is a row of hive_posts.
type Post struct {
	ID        int64
	ParentID  int64
	Author    string
	Permlink  string
	Category  string
	Community string
	Depth     int
	CreatedAt time.Time
	IsDeleted bool
}

// Follow is a row of hive_follows.
type Follow struct {
	Follower  int64
	Following int64
	State     int
	CreatedAt time.Time
}

// FollowDelta is a pending change to an account's follow counters.
type FollowDelta struct {
	AccountID int64
	Followers int
	Following int
}

// PopResult summarizes the rows removed while popping one block.
type PopResult struct {
	Num        uint64
	Posts      int64
	FeedCache  int64
	Reblogs    int64
	Follows    int64
	PostTags   int64
	BlockCount int64
}
