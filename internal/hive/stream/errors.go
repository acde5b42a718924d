package stream

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMicroFork is returned when a fork is confined to unreleased blocks.
	// Restarting the stream from the persisted head recovers from it.
	ErrMicroFork = errors.New("micro fork")
	// ErrFork is returned when a fork reaches blocks that were already released.
	ErrFork = errors.New("fork")
	// ErrGapExceeded is returned when the stream falls max gap blocks behind head.
	ErrGapExceeded = errors.New("gap to head exceeded")
)

// ForkError describes a broken hash link. It wraps ErrMicroFork or ErrFork.
type ForkError struct {
	Height   uint64
	Expected string
	Received string
	Hash     string
	Buffered int
	err      error
}

func (e *ForkError) Error() string {
	return fmt.Sprintf("%v at block %d: expected prev %s, got %s->%s (buffered %d)",
		e.err, e.Height, e.Expected, e.Received, e.Hash, e.Buffered)
}

func (e *ForkError) Unwrap() error {
	return e.err
}

// ClockSkewError means the chain head is ahead of the local clock.
type ClockSkewError struct {
	Height uint64
	Ahead  time.Duration
}

func (e *ClockSkewError) Error() string {
	return fmt.Sprintf("system clock is %s behind chain at block %d", e.Ahead, e.Height)
}

// StaleHeadError means the upstream head is too old, usually a node that stopped syncing.
type StaleHeadError struct {
	Height uint64
	Behind time.Duration
}

func (e *StaleHeadError) Error() string {
	return fmt.Sprintf("head block %d is %s old", e.Height, e.Behind)
}
