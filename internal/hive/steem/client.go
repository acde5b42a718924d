package steem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/clock"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"github.com/goodnatureofminers/hiveindexer-backend/pkg/workerpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultMaxBatch   = 500
	DefaultMaxWorkers = 1
	maxBatchLimit     = 5000
	maxWorkersLimit   = 500

	missingRetryDelay = 500 * time.Millisecond
)

// ClientConfig configures a Client.
type ClientConfig struct {
	MaxBatch   int
	MaxWorkers int
}

// Client fetches blocks and chain properties from steemd.
type Client struct {
	caller     Caller
	maxBatch   int
	maxWorkers int
	retryDelay time.Duration
	sleep      func(context.Context, time.Duration) error
	logger     *zap.Logger
}

// NewClient builds a Client on top of caller.
func NewClient(caller Caller, cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if caller == nil {
		return nil, errors.New("rpc caller is required")
	}
	if cfg.MaxBatch == 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.MaxBatch < 1 || cfg.MaxBatch > maxBatchLimit {
		return nil, fmt.Errorf("max batch must be within 1..%d, got %d", maxBatchLimit, cfg.MaxBatch)
	}
	if cfg.MaxWorkers < 1 || cfg.MaxWorkers > maxWorkersLimit {
		return nil, fmt.Errorf("max workers must be within 1..%d, got %d", maxWorkersLimit, cfg.MaxWorkers)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		caller:     caller,
		maxBatch:   cfg.MaxBatch,
		maxWorkers: cfg.MaxWorkers,
		retryDelay: missingRetryDelay,
		sleep:      clock.Real{}.Sleep,
		logger:     logger.Named("steemClient"),
	}, nil
}

type blockNumParams struct {
	BlockNum uint64 `json:"block_num"`
}

type getBlockResult struct {
	Block *model.Block `json:"block"`
}

// GetBlock fetches one block. A nil block with a nil error means the block
// does not exist upstream yet.
func (c *Client) GetBlock(ctx context.Context, height uint64) (*model.Block, error) {
	raw, err := c.caller.Call(ctx, "get_block", blockNumParams{BlockNum: height})
	if err != nil {
		return nil, fmt.Errorf("get block %d: %w", height, err)
	}
	var res getBlockResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode block %d: %w", height, err)
	}
	if res.Block == nil {
		return nil, nil
	}
	if res.Block.Num != height {
		return nil, fmt.Errorf("%w: requested block %d, got %d (%s)", ErrProtocol, height, res.Block.Num, res.Block.ID)
	}
	return res.Block, nil
}

// GetBlocksRange fetches blocks [lo, hi) in order. Heights missing from a
// response are re-requested until the range is complete or ctx is done.
func (c *Client) GetBlocksRange(ctx context.Context, lo, hi uint64) ([]*model.Block, error) {
	if hi <= lo {
		return nil, nil
	}

	blocks := make(map[uint64]*model.Block, hi-lo)
	missing := make([]uint64, 0, hi-lo)
	for h := lo; h < hi; h++ {
		missing = append(missing, h)
	}

	for attempt := 1; ; attempt++ {
		chunks := chunk(missing, c.maxBatch)
		results, err := workerpool.Map(ctx, c.maxWorkers, chunks, c.fetchBatch)
		if err != nil {
			return nil, fmt.Errorf("get blocks [%d, %d): %w", lo, hi, err)
		}

		for _, batch := range results {
			for _, b := range batch {
				if b.Num < lo || b.Num >= hi {
					c.logger.Warn("ignoring block outside requested range",
						zap.Uint64("num", b.Num), zap.Uint64("lo", lo), zap.Uint64("hi", hi))
					continue
				}
				blocks[b.Num] = b
			}
		}

		missing = missing[:0]
		for h := lo; h < hi; h++ {
			if _, ok := blocks[h]; !ok {
				missing = append(missing, h)
			}
		}
		if len(missing) == 0 {
			break
		}

		c.logger.Warn("blocks missing from range, retrying",
			zap.Uint64("lo", lo),
			zap.Uint64("hi", hi),
			zap.Int("missing", len(missing)),
			zap.Uint64("first_missing", missing[0]),
			zap.Int("attempt", attempt),
		)
		if err := c.sleep(ctx, c.retryDelay); err != nil {
			return nil, err
		}
	}

	ordered := make([]*model.Block, 0, hi-lo)
	for h := lo; h < hi; h++ {
		ordered = append(ordered, blocks[h])
	}
	return ordered, nil
}

func (c *Client) fetchBatch(ctx context.Context, heights []uint64) ([]*model.Block, error) {
	params := make([]any, len(heights))
	for i, h := range heights {
		params[i] = blockNumParams{BlockNum: h}
	}
	raws, err := c.caller.CallBatch(ctx, "get_block", params)
	if err != nil {
		return nil, err
	}

	blocks := make([]*model.Block, 0, len(raws))
	for i, raw := range raws {
		var res getBlockResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("decode block %d: %w", heights[i], err)
		}
		if res.Block == nil {
			continue
		}
		blocks = append(blocks, res.Block)
	}
	return blocks, nil
}

// DynamicGlobalProperties fetches and validates the global properties object.
func (c *Client) DynamicGlobalProperties(ctx context.Context) (model.DynamicGlobalProperties, error) {
	raw, err := c.caller.Call(ctx, "get_dynamic_global_properties", nil)
	if err != nil {
		return model.DynamicGlobalProperties{}, fmt.Errorf("get dynamic global properties: %w", err)
	}
	var props model.DynamicGlobalProperties
	if err := json.Unmarshal(raw, &props); err != nil {
		return model.DynamicGlobalProperties{}, fmt.Errorf("decode dynamic global properties: %w", err)
	}
	if props.Time.IsZero() {
		return model.DynamicGlobalProperties{}, fmt.Errorf("%w: dynamic global properties without time", ErrProtocol)
	}
	return props, nil
}

// HeadBlock returns the upstream head height.
func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	props, err := c.DynamicGlobalProperties(ctx)
	if err != nil {
		return 0, err
	}
	return props.HeadBlockNumber, nil
}

// LastIrreversible returns the upstream last irreversible height.
func (c *Client) LastIrreversible(ctx context.Context) (uint64, error) {
	props, err := c.DynamicGlobalProperties(ctx)
	if err != nil {
		return 0, err
	}
	return props.LastIrreversibleBlockNum, nil
}

// HeadTime returns the timestamp of the upstream head block.
func (c *Client) HeadTime(ctx context.Context) (time.Time, error) {
	props, err := c.DynamicGlobalProperties(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return props.Time.Time, nil
}

// ChainState fetches global properties plus derived prices.
func (c *Client) ChainState(ctx context.Context) (model.ChainState, error) {
	props, err := c.DynamicGlobalProperties(ctx)
	if err != nil {
		return model.ChainState{}, err
	}
	spm, err := model.SteemPerMVest(props)
	if err != nil {
		return model.ChainState{}, err
	}
	usd, err := c.feedPrice(ctx)
	if err != nil {
		return model.ChainState{}, err
	}
	sbd, err := c.steemPrice(ctx)
	if err != nil {
		return model.ChainState{}, err
	}
	return model.ChainState{
		Props:         props,
		SteemPerMVest: spm,
		USDPerSteem:   usd,
		SBDPerSteem:   sbd,
	}, nil
}

func (c *Client) feedPrice(ctx context.Context) (decimal.Decimal, error) {
	raw, err := c.caller.Call(ctx, "get_feed_history", nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get feed history: %w", err)
	}
	var feed struct {
		CurrentMedianHistory struct {
			Base  model.Asset `json:"base"`
			Quote model.Asset `json:"quote"`
		} `json:"current_median_history"`
	}
	if err := json.Unmarshal(raw, &feed); err != nil {
		return decimal.Zero, fmt.Errorf("decode feed history: %w", err)
	}
	units := map[string]decimal.Decimal{}
	for _, a := range []model.Asset{feed.CurrentMedianHistory.Base, feed.CurrentMedianHistory.Quote} {
		units[a.Symbol] = a.Amount
	}
	sbd, steem := units["SBD"], units["STEEM"]
	if steem.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: feed history without STEEM quote", ErrProtocol)
	}
	return sbd.Div(steem).Round(6), nil
}

func (c *Client) steemPrice(ctx context.Context) (decimal.Decimal, error) {
	raw, err := c.caller.Call(ctx, "get_order_book", []any{1})
	if err != nil {
		return decimal.Zero, fmt.Errorf("get order book: %w", err)
	}
	var book struct {
		Asks []struct {
			RealPrice decimal.Decimal `json:"real_price"`
		} `json:"asks"`
		Bids []struct {
			RealPrice decimal.Decimal `json:"real_price"`
		} `json:"bids"`
	}
	if err := json.Unmarshal(raw, &book); err != nil {
		return decimal.Zero, fmt.Errorf("decode order book: %w", err)
	}
	if len(book.Asks) == 0 || len(book.Bids) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty order book", ErrProtocol)
	}
	return book.Asks[0].RealPrice.Add(book.Bids[0].RealPrice).Div(decimal.NewFromInt(2)).Round(6), nil
}

func chunk[T any](items []T, size int) [][]T {
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, append([]T(nil), items[start:end]...))
	}
	return chunks
}
