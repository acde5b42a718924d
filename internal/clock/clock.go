// Package clock abstracts wall time so pacing code can run on a manual clock in tests.
package clock

import (
	"context"
	"time"
)

// Clock is the time source used by pacing code.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the wall clock.
type Real struct{}

// Now returns the current local time.
func (Real) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d or until ctx is done.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Manual is a Clock that only advances when slept on or moved explicitly.
type Manual struct {
	now    time.Time
	slept  []time.Duration
	onStep func(now time.Time)
}

// NewManual returns a Manual clock starting at now.
func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

// Now returns the manual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// Sleep advances the manual time by d without blocking.
func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		m.Advance(d)
	}
	m.slept = append(m.slept, d)
	return nil
}

// Advance moves the manual time forward.
func (m *Manual) Advance(d time.Duration) {
	m.now = m.now.Add(d)
	if m.onStep != nil {
		m.onStep(m.now)
	}
}

// OnAdvance registers a hook called after every time step.
func (m *Manual) OnAdvance(fn func(now time.Time)) {
	m.onStep = fn
}

// Slept returns the durations passed to Sleep so far.
func (m *Manual) Slept() []time.Duration {
	return append([]time.Duration(nil), m.slept...)
}
