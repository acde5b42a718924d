package model

import "time"

// Fork kinds recorded in the archive.
const (
	ForkKindMicro = "micro"
	ForkKindFork  = "fork"
	ForkKindHead  = "head"
)

// ForkEvent describes a fork observed by the sync driver.
type ForkEvent struct {
	DetectedAt   time.Time
	Kind         string
	Height       uint64
	ExpectedPrev string
	ReceivedPrev string
	Popped       int
}
