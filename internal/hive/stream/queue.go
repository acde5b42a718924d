package stream

import (
	"fmt"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

// MaxTrailBlocks bounds the queue capacity.
const MaxTrailBlocks = 100

// Queue verifies hash links and holds back the newest blocks so that shallow
// forks never reach the applier.
type Queue struct {
	capacity int
	prev     string
	buf      []*model.Block
}

// NewQueue returns a Queue that expects the next block to link to prevHash.
// A capacity of 0 releases every block as soon as its link is verified.
func NewQueue(capacity int, prevHash string) (*Queue, error) {
	if capacity < 0 || capacity > MaxTrailBlocks {
		return nil, fmt.Errorf("trail blocks must be within 0..%d, got %d", MaxTrailBlocks, capacity)
	}
	return &Queue{
		capacity: capacity,
		prev:     prevHash,
		buf:      make([]*model.Block, 0, capacity+1),
	}, nil
}

// Push appends block and returns the oldest block once the buffer overflows.
func (q *Queue) Push(block *model.Block) (*model.Block, error) {
	if block.Previous != q.prev {
		kind := ErrFork
		if len(q.buf) > 0 {
			kind = ErrMicroFork
		}
		return nil, &ForkError{
			Height:   block.Num,
			Expected: q.prev,
			Received: block.Previous,
			Hash:     block.ID,
			Buffered: len(q.buf),
			err:      kind,
		}
	}

	q.prev = block.ID
	q.buf = append(q.buf, block)
	if len(q.buf) <= q.capacity {
		return nil, nil
	}
	released := q.buf[0]
	q.buf[0] = nil
	q.buf = q.buf[1:]
	return released, nil
}

// Len returns the number of unreleased blocks.
func (q *Queue) Len() int {
	return len(q.buf)
}
