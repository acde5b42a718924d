package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rpc_client",
		Name:      "operations_total",
		Help:      "Count of steemd RPC operations.",
	}, []string{"operation", "status"})
	rpcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rpc_client",
		Name:      "operation_duration_seconds",
		Help:      "Duration of steemd RPC operations including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
	rpcRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rpc_client",
		Name:      "retries_total",
		Help:      "Count of steemd RPC retries by node.",
	}, []string{"operation", "node"})
)

// RPCClient tracks metrics for RPC calls to steemd.
type RPCClient struct{}

// NewRPCClient constructs a metrics collector for RPC calls.
func NewRPCClient() *RPCClient {
	return &RPCClient{}
}

// Observe records a single RPC call outcome and duration.
func (m RPCClient) Observe(operation string, err error, started time.Time) {
	s := status(err)
	rpcRequestsTotal.WithLabelValues(operation, s).Inc()
	rpcRequestDuration.WithLabelValues(operation, s).Observe(time.Since(started).Seconds())
}

// ObserveRetry records a retried call against node.
func (m RPCClient) ObserveRetry(operation string, node string) {
	rpcRetriesTotal.WithLabelValues(operation, node).Inc()
}
