// Package stream turns upstream polling into an ordered, fork-checked
// sequence of blocks that follows the chain head.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/clock"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"go.uber.org/zap"
)

const (
	DefaultMaxGap    = 40
	missingBlockWait = 500 * time.Millisecond
)

// Config configures a Stream.
type Config struct {
	StartHeight uint64
	// TrailBlocks is the number of blocks held back to absorb microforks.
	TrailBlocks int
	// MaxGap stops the stream once it is this many blocks behind head; 0 never stops.
	MaxGap   uint64
	Schedule ScheduleConfig
}

// Stream yields verified blocks starting at Config.StartHeight. It is not safe
// for concurrent use.
type Stream struct {
	source  BlockSource
	cfg     Config
	clock   clock.Clock
	metrics ScheduleMetrics
	logger  *zap.Logger

	started  bool
	current  uint64
	head     uint64
	queue    *Queue
	schedule *Schedule
}

// New constructs a Stream. Nothing is fetched until the first Next call.
func New(source BlockSource, cfg Config, clk clock.Clock, metrics ScheduleMetrics, logger *zap.Logger) (*Stream, error) {
	if source == nil {
		return nil, errors.New("block source is required")
	}
	if clk == nil {
		return nil, errors.New("clock is required")
	}
	if metrics == nil {
		return nil, errors.New("schedule metrics is required")
	}
	if cfg.StartHeight == 0 {
		return nil, errors.New("start height must be positive")
	}
	if cfg.TrailBlocks < 0 || cfg.TrailBlocks > MaxTrailBlocks {
		return nil, fmt.Errorf("trail blocks must be within 0..%d, got %d", MaxTrailBlocks, cfg.TrailBlocks)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		source:  source,
		cfg:     cfg,
		clock:   clk,
		metrics: metrics,
		logger:  logger.Named("stream"),
		current: cfg.StartHeight,
	}, nil
}

// Next blocks until the next block is released and returns it.
func (s *Stream) Next(ctx context.Context) (*model.Block, error) {
	if !s.started {
		if err := s.start(ctx); err != nil {
			return nil, err
		}
		s.started = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.gapExceeded() {
			s.logger.Warn("gap exceeded",
				zap.Uint64("current", s.current),
				zap.Uint64("head", s.head),
				zap.Uint64("max_gap", s.cfg.MaxGap))
			return nil, ErrGapExceeded
		}

		head, err := s.schedule.WaitForBlock(ctx, s.current)
		if err != nil {
			return nil, err
		}
		s.head = head

		block, err := s.source.GetBlock(ctx, s.current)
		if err != nil {
			return nil, fmt.Errorf("fetch block %d: %w", s.current, err)
		}
		if err := s.schedule.CheckBlock(s.current, block); err != nil {
			return nil, err
		}
		if block == nil {
			if err := s.clock.Sleep(ctx, missingBlockWait); err != nil {
				return nil, err
			}
			continue
		}

		released, err := s.queue.Push(block)
		if err != nil {
			s.logger.Warn("fork detected", zap.Error(err))
			return nil, err
		}
		s.current++
		if released != nil {
			return released, nil
		}
	}
}

// Current returns the next height the stream will fetch.
func (s *Stream) Current() uint64 {
	return s.current
}

// Head returns the last known upstream head.
func (s *Stream) Head() uint64 {
	return s.head
}

func (s *Stream) start(ctx context.Context) error {
	head, err := s.source.HeadBlock(ctx)
	if err != nil {
		return fmt.Errorf("read head block: %w", err)
	}

	prev := model.ZeroHash
	if s.cfg.StartHeight > 1 {
		block, err := s.source.GetBlock(ctx, s.cfg.StartHeight-1)
		if err != nil {
			return fmt.Errorf("fetch block %d: %w", s.cfg.StartHeight-1, err)
		}
		if block == nil {
			return fmt.Errorf("block %d preceding stream start is not available", s.cfg.StartHeight-1)
		}
		prev = block.ID
	}

	queue, err := NewQueue(s.cfg.TrailBlocks, prev)
	if err != nil {
		return err
	}
	schedule, err := NewSchedule(head, s.cfg.Schedule, s.clock, s.metrics, s.logger)
	if err != nil {
		return err
	}

	s.head = head
	s.queue = queue
	s.schedule = schedule
	s.logger.Info("stream started",
		zap.Uint64("start", s.cfg.StartHeight),
		zap.Uint64("head", head),
		zap.Int("trail_blocks", s.cfg.TrailBlocks))
	return nil
}

func (s *Stream) gapExceeded() bool {
	return s.cfg.MaxGap > 0 && s.head > s.current && s.head-s.current >= s.cfg.MaxGap
}
