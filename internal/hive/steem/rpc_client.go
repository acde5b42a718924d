// Package steem talks JSON-RPC to steemd/jussi nodes and decodes blocks.
package steem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/clock"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const (
	defaultMaxTries    = 10
	defaultHTTPTimeout = 30 * time.Second
	backoffStep        = 100 * time.Millisecond
	maxBackoff         = time.Second
	// retries after this many attempts are delayed
	freeTries = 2

	slowCallThreshold = 5 * time.Second
	maxResponseBytes  = 256 << 20
)

var methodAPI = map[string]string{
	"get_block":                     "block_api",
	"get_dynamic_global_properties": "database_api",
}

// RPCConfig configures an RPCClient.
type RPCConfig struct {
	URLs     []string
	Timeout  time.Duration
	MaxTries int
	// RPS limits outgoing HTTP requests; 0 disables the limit.
	RPS int
}

// RPCClient is a JSON-RPC 2.0 client with round-robin failover across nodes.
type RPCClient struct {
	httpClient *http.Client
	urls       []string
	maxTries   int
	limiter    ratelimit.Limiter
	metrics    RPCMetrics
	logger     *zap.Logger
	sleep      func(context.Context, time.Duration) error

	mu   sync.Mutex
	node int
}

// NewRPCClient builds an RPCClient.
func NewRPCClient(cfg RPCConfig, metrics RPCMetrics, logger *zap.Logger) (*RPCClient, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.New("at least one steemd url is required")
	}
	if metrics == nil {
		return nil, errors.New("rpc metrics is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = defaultMaxTries
	}
	limiter := ratelimit.NewUnlimited()
	if cfg.RPS > 0 {
		limiter = ratelimit.New(cfg.RPS)
	}

	return &RPCClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		urls:       append([]string(nil), cfg.URLs...),
		maxTries:   cfg.MaxTries,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger.Named("rpcClient"),
		sleep:      clock.Real{}.Sleep,
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcErrorBody   `json:"error"`
}

// Call executes a single RPC method and returns its raw result.
func (c *RPCClient) Call(ctx context.Context, method string, params any) (result json.RawMessage, err error) {
	started := time.Now()
	defer func() {
		c.metrics.Observe(method, err, started)
		c.checkTiming(method, 1, started)
	}()

	req := rpcRequest{JSONRPC: "2.0", ID: -1, Method: qualify(method), Params: defaultParams(method, params)}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	payload, err := c.exec(ctx, method, 1, body)
	if err != nil {
		return nil, err
	}

	var resp rpcResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: response was not an object: %v", ErrProtocol, method, err)
	}
	if resp.Error != nil {
		return nil, newRPCError(resp.Error, method, -1)
	}
	if resp.ID == nil || *resp.ID != req.ID {
		return nil, fmt.Errorf("%w: %s: response id mismatch", ErrProtocol, method)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("%w: %s: response with no result key", ErrProtocol, method)
	}
	return resp.Result, nil
}

// CallBatch executes method once per params entry in a single HTTP request.
// Results are returned in request order.
func (c *RPCClient) CallBatch(ctx context.Context, method string, params []any) (results []json.RawMessage, err error) {
	if len(params) == 0 {
		return nil, nil
	}
	started := time.Now()
	defer func() {
		c.metrics.Observe(method+"_batch", err, started)
		c.checkTiming(method, len(params), started)
	}()

	reqs := make([]rpcRequest, len(params))
	for i, p := range params {
		reqs[i] = rpcRequest{JSONRPC: "2.0", ID: i + 1, Method: qualify(method), Params: defaultParams(method, p)}
	}
	body, err := json.Marshal(reqs)
	if err != nil {
		return nil, fmt.Errorf("encode %s batch: %w", method, err)
	}

	payload, err := c.exec(ctx, method, len(params), body)
	if err != nil {
		return nil, err
	}

	var resps []rpcResponse
	if err := json.Unmarshal(payload, &resps); err != nil {
		var single rpcResponse
		if json.Unmarshal(payload, &single) == nil && single.Error != nil {
			return nil, newRPCError(single.Error, method, -1)
		}
		return nil, fmt.Errorf("%w: %s: batch result must be a list: %v", ErrProtocol, method, err)
	}
	if len(resps) != len(reqs) {
		return nil, fmt.Errorf("%w: %s: batch result len mismatch: sent %d, got %d", ErrProtocol, method, len(reqs), len(resps))
	}

	results = make([]json.RawMessage, len(reqs))
	seen := make([]bool, len(reqs))
	for idx, resp := range resps {
		if resp.Error != nil {
			return nil, newRPCError(resp.Error, method, idx)
		}
		if resp.ID == nil || *resp.ID < 1 || *resp.ID > len(reqs) || seen[*resp.ID-1] {
			return nil, fmt.Errorf("%w: %s: batch[%d] unexpected id", ErrProtocol, method, idx)
		}
		if resp.Result == nil {
			return nil, fmt.Errorf("%w: %s: batch[%d] resp empty", ErrProtocol, method, idx)
		}
		seen[*resp.ID-1] = true
		results[*resp.ID-1] = resp.Result
	}
	return results, nil
}

// exec posts body with failover. Only transport failures and 5xx responses are
// retried; a client error status fails at once.
func (c *RPCClient) exec(ctx context.Context, method string, size int, body []byte) ([]byte, error) {
	var lastErr error
	for tries := 1; tries <= c.maxTries; tries++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		url := c.currentNode()
		payload, err := c.post(ctx, url, body)
		if err == nil {
			if tries > freeTries {
				c.logger.Warn("rpc call needed several tries",
					zap.String("method", method), zap.Int("size", size), zap.Int("tries", tries))
			}
			return payload, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrProtocol) {
			return nil, fmt.Errorf("%s: %w", method, err)
		}

		lastErr = err
		c.metrics.ObserveRetry(method, url)
		c.logger.Warn("rpc call failed, switching node",
			zap.String("method", method),
			zap.Int("size", size),
			zap.String("node", url),
			zap.Int("try", tries),
			zap.Error(err),
		)
		c.nextNode()

		if tries >= freeTries && tries < c.maxTries {
			if err := c.sleep(ctx, backoff(tries)); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w: %s after %d tries: %v", ErrTriesExhausted, method, c.maxTries, lastErr)
}

func (c *RPCClient) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if clientError(resp.StatusCode) {
		return nil, fmt.Errorf("%w: http %d from %s: %.256s", ErrProtocol, resp.StatusCode, url, payload)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response: %d", resp.StatusCode)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("invalid json response: %.1024s", payload)
	}
	return payload, nil
}

// clientError reports 4xx statuses that mean the request itself is bad.
// 429 is a node throttling us and goes to the next node like a 5xx.
func clientError(status int) bool {
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

func (c *RPCClient) currentNode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.urls[c.node]
}

func (c *RPCClient) nextNode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.node = (c.node + 1) % len(c.urls)
	if len(c.urls) > 1 {
		c.logger.Info("using node", zap.String("url", c.urls[c.node]))
	}
}

// checkTiming warns about calls slower than the per-item par for the method.
func (c *RPCClient) checkTiming(method string, size int, started time.Time) {
	elapsed := time.Since(started)
	if elapsed > slowCallThreshold {
		c.logger.Warn("slow rpc call", zap.String("method", method), zap.Int("size", size), zap.Duration("elapsed", elapsed))
		return
	}

	key := method
	if method == "get_block" && size > 1 {
		key = "get_blocks_batch"
	}
	par, ok := parMillis[key]
	if !ok || size < 1 {
		return
	}
	perItem := (float64(elapsed.Milliseconds()) - parHTTPOverheadMillis) / float64(size)
	if over := perItem / par; over >= parThreshold {
		c.logger.Debug("rpc call over par",
			zap.String("method", method),
			zap.Int("size", size),
			zap.Duration("elapsed", elapsed),
			zap.Float64("par_ratio", over),
		)
	}
}

const (
	parHTTPOverheadMillis = 75
	parThreshold          = 1.1
)

var parMillis = map[string]float64{
	"get_dynamic_global_properties": 20,
	"get_block":                     50,
	"get_blocks_batch":              5,
	"get_order_book":                20,
	"get_feed_history":              20,
}

func backoff(tries int) time.Duration {
	d := time.Duration(tries) * backoffStep
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func qualify(method string) string {
	api, ok := methodAPI[method]
	if !ok {
		api = "condenser_api"
	}
	return api + "." + method
}

// condenser_api takes positional params, appbase APIs take an object.
func defaultParams(method string, params any) any {
	if params != nil {
		return params
	}
	if _, ok := methodAPI[method]; ok {
		return struct{}{}
	}
	return []any{}
}
