package clickhouse

import (
	"context"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Metrics records repository operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
		ObserveDropped(operation string, items int)
	}
	// Batch is the part of a prepared insert the repository uses.
	Batch interface {
		Append(v ...any) error
		Send() error
		Abort() error
	}
	// Conn is the part of a ClickHouse connection the repository uses.
	Conn interface {
		PrepareBatch(ctx context.Context, query string) (Batch, error)
		Close() error
	}
	// ArchiveRepository is the storage an ArchiveWriter flushes to.
	ArchiveRepository interface {
		InsertBlocks(ctx context.Context, blocks []*model.Block) error
		InsertForkEvents(ctx context.Context, events []model.ForkEvent) error
	}
)
