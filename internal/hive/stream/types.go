package stream

import (
	"context"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// BlockSource is the upstream the stream pulls blocks from.
	BlockSource interface {
		GetBlock(ctx context.Context, height uint64) (*model.Block, error)
		HeadBlock(ctx context.Context) (uint64, error)
	}
	// ScheduleMetrics records block schedule adjustments.
	ScheduleMetrics interface {
		ObserveMissed(slots uint64)
		ObserveDrift(drift time.Duration)
		ObserveIdle(wait time.Duration)
	}
)
