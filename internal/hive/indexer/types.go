package indexer

import (
	"context"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Upstream is the chain view used to verify the persisted head.
	Upstream interface {
		GetBlock(ctx context.Context, height uint64) (*model.Block, error)
		LastIrreversible(ctx context.Context) (uint64, error)
	}
	// Metrics records applier activity.
	Metrics interface {
		ObserveProcess(err error, blocks int, started time.Time)
		ObserveRollback(err error, depth int, started time.Time)
	}
)
