package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/indexer"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/steem"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/stream"
)

// recoverFrom handles an error that ended catch-up or listening. A nil return
// means the main loop continues; anything else is fatal.
func (s *Service) recoverFrom(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var (
		forkErr *stream.ForkError
		skewErr *stream.ClockSkewError
	)
	switch {
	case errors.As(err, &skewErr),
		errors.Is(err, indexer.ErrForkTooDeep),
		errors.Is(err, indexer.ErrIrreversibleRollback):
		return err

	case errors.Is(err, stream.ErrGapExceeded):
		s.logger.Info("stream fell behind, catching up", zap.Error(err))
		return nil

	case errors.Is(err, stream.ErrMicroFork) && errors.As(err, &forkErr):
		s.recordFork(ctx, forkEvent(model.ForkKindMicro, forkErr))
		return nil

	case errors.Is(err, stream.ErrFork) && errors.As(err, &forkErr):
		return s.verifyHead(ctx, forkEvent(model.ForkKindFork, forkErr))

	case errors.Is(err, indexer.ErrBlockLink):
		s.logger.Warn("block does not extend persisted head", zap.Error(err))
		return s.verifyHead(ctx, model.ForkEvent{Kind: model.ForkKindHead})

	case retryable(err):
		return s.backoff(ctx, err)

	default:
		return err
	}
}

// retryable reports upstream conditions that clear up by reconnecting later.
func retryable(err error) bool {
	var staleErr *stream.StaleHeadError
	return errors.As(err, &staleErr) || errors.Is(err, steem.ErrTriesExhausted)
}

func forkEvent(kind string, err *stream.ForkError) model.ForkEvent {
	return model.ForkEvent{
		Kind:         kind,
		Height:       err.Height,
		ExpectedPrev: err.Expected,
		ReceivedPrev: err.Received,
	}
}
