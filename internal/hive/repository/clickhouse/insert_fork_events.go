package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"github.com/goodnatureofminers/hiveindexer-backend/pkg/safe"
)

const insertForkEventsQuery = `
INSERT INTO hive_fork_events (
	detected_at,
	kind,
	height,
	expected_prev,
	received_prev,
	popped
) VALUES`

// InsertForkEvents records observed forks.
func (r *Repository) InsertForkEvents(ctx context.Context, events []model.ForkEvent) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_fork_events", err, start)
	}()

	if len(events) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertForkEventsQuery)
	if err != nil {
		return fmt.Errorf("prepare fork events batch: %w", err)
	}

	for _, ev := range events {
		var popped int32
		if popped, err = safe.Int32(ev.Popped); err != nil {
			_ = batch.Abort()
			return err
		}
		if err = batch.Append(
			ev.DetectedAt,
			ev.Kind,
			ev.Height,
			ev.ExpectedPrev,
			ev.ReceivedPrev,
			uint32(popped),
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append fork event at %d: %w", ev.Height, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert fork events: %w", err)
	}
	return nil
}
