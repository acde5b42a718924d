package steem

import (
	"context"
	"encoding/json"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// RPCMetrics records metrics for upstream calls.
	RPCMetrics interface {
		Observe(operation string, err error, started time.Time)
		ObserveRetry(operation string, node string)
	}
	// Caller issues JSON-RPC calls against the upstream node set.
	Caller interface {
		Call(ctx context.Context, method string, params any) (json.RawMessage, error)
		CallBatch(ctx context.Context, method string, params []any) ([]json.RawMessage, error)
	}
)
