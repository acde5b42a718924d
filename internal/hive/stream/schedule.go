package stream

import (
	"context"
	"errors"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/clock"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"go.uber.org/zap"
)

const (
	DefaultBlockInterval  = 3 * time.Second
	DefaultMaxClockSkew   = 60 * time.Second
	DefaultStaleHeadAfter = 60 * time.Second

	driftForwardStep  = time.Millisecond
	driftBackwardStep = 100 * time.Millisecond
	driftAfterMissed  = time.Second
)

// ScheduleConfig holds the schedule policy.
type ScheduleConfig struct {
	BlockInterval  time.Duration
	MaxClockSkew   time.Duration
	StaleHeadAfter time.Duration
}

func (c ScheduleConfig) withDefaults() ScheduleConfig {
	if c.BlockInterval <= 0 {
		c.BlockInterval = DefaultBlockInterval
	}
	if c.MaxClockSkew <= 0 {
		c.MaxClockSkew = DefaultMaxClockSkew
	}
	if c.StaleHeadAfter <= 0 {
		c.StaleHeadAfter = DefaultStaleHeadAfter
	}
	return c
}

// Schedule predicts when the next block becomes available so the stream does
// not poll faster than blocks are produced. It corrects itself for missed
// slots and late blocks.
type Schedule struct {
	cfg     ScheduleConfig
	clock   clock.Clock
	metrics ScheduleMetrics
	logger  *zap.Logger

	startBlock   uint64
	headNum      uint64
	nextExpected time.Time
	drift        time.Duration
	missed       uint64
	lastDate     time.Time
}

// NewSchedule starts a schedule at the given upstream head.
func NewSchedule(head uint64, cfg ScheduleConfig, clk clock.Clock, metrics ScheduleMetrics, logger *zap.Logger) (*Schedule, error) {
	if clk == nil {
		return nil, errors.New("clock is required")
	}
	if metrics == nil {
		return nil, errors.New("schedule metrics is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Schedule{
		cfg:          cfg,
		clock:        clk,
		metrics:      metrics,
		logger:       logger.Named("schedule"),
		startBlock:   head,
		headNum:      head,
		nextExpected: clk.Now().Add(cfg.BlockInterval / 2),
		drift:        cfg.BlockInterval / 2,
	}, nil
}

// WaitForBlock blocks until height is expected to be available upstream and
// returns the predicted head, which is always >= height.
func (s *Schedule) WaitForBlock(ctx context.Context, height uint64) (uint64, error) {
	headTime := s.clock.Now().Add(-s.drift)

	// slots that already elapsed
	for !headTime.Before(s.nextExpected) {
		s.advance()
		if headTime.Before(s.nextExpected) && s.headNum > height {
			s.logger.Warn("stream behind predicted head",
				zap.Uint64("height", height),
				zap.Uint64("head", s.headNum),
				zap.Uint64("behind", s.headNum-height))
		}
	}

	for s.headNum < height {
		wait := s.nextExpected.Sub(headTime)
		if err := s.clock.Sleep(ctx, wait); err != nil {
			return s.headNum, err
		}
		s.metrics.ObserveIdle(wait)
		headTime = s.nextExpected
		s.advance()
	}
	return s.headNum, nil
}

// CheckBlock adjusts the schedule after a fetch of height. A nil block means
// the block was not available yet.
func (s *Schedule) CheckBlock(height uint64, block *model.Block) error {
	if block == nil {
		s.driftBackward()
		s.logger.Warn("block not available",
			zap.Uint64("height", height),
			zap.Uint64("head", s.headNum),
			zap.Duration("drift", s.drift))
		return nil
	}

	s.driftForward()
	date := block.Timestamp.Time
	s.checkMissing(height, s.lastDate, date)
	if err := s.checkHeadDate(height, date); err != nil {
		return err
	}
	s.lastDate = date
	return nil
}

// Head returns the predicted upstream head.
func (s *Schedule) Head() uint64 {
	return s.headNum
}

// Drift returns the current timing tolerance.
func (s *Schedule) Drift() time.Duration {
	return s.drift
}

// Missed returns the number of chain slots counted as missed so far.
func (s *Schedule) Missed() uint64 {
	return s.missed
}

func (s *Schedule) checkHeadDate(height uint64, date time.Time) error {
	if height != s.headNum {
		return nil
	}
	gap := s.clock.Now().Sub(date)
	if gap <= -s.cfg.MaxClockSkew {
		return &ClockSkewError{Height: height, Ahead: -gap}
	}
	if gap > s.cfg.StaleHeadAfter {
		return &StaleHeadError{Height: height, Behind: gap}
	}
	return nil
}

// checkMissing counts slots skipped between two consecutive blocks. Integer
// division means a merely delayed block can be miscounted by one slot; the
// schedule tolerates that.
func (s *Schedule) checkMissing(height uint64, prevDate, nextDate time.Time) {
	if height <= s.startBlock || prevDate.IsZero() {
		return
	}
	gap := nextDate.Sub(prevDate)
	if gap < s.cfg.BlockInterval {
		return
	}
	missed := uint64(gap/s.cfg.BlockInterval) - 1
	if missed == 0 {
		return
	}
	s.addMissed(missed)
	s.logger.Warn("missed block slots", zap.Uint64("missed", missed), zap.Uint64("height", height))
}

func (s *Schedule) driftBackward() {
	s.drift += driftBackwardStep
	if s.drift > s.cfg.BlockInterval {
		s.drift = s.cfg.BlockInterval
	}
	s.metrics.ObserveDrift(s.drift)
}

func (s *Schedule) driftForward() {
	s.drift -= driftForwardStep
	s.metrics.ObserveDrift(s.drift)
}

func (s *Schedule) addMissed(missed uint64) {
	s.missed += missed
	s.nextExpected = s.nextExpected.Add(time.Duration(missed) * s.cfg.BlockInterval)
	s.drift = driftAfterMissed
	s.metrics.ObserveMissed(missed)
	s.metrics.ObserveDrift(s.drift)
}

func (s *Schedule) advance() {
	s.headNum++
	s.nextExpected = s.nextExpected.Add(s.cfg.BlockInterval)
}
