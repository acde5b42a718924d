// Package transport exposes the indexer health over gRPC and its status over HTTP.
package transport

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	hivesync "github.com/goodnatureofminers/hiveindexer-backend/internal/hive/sync"
)

// ServiceName is the gRPC health service name of the indexer.
const ServiceName = "hiveindexer.Indexer"

// HealthReporter mirrors the sync status into a gRPC health server. The
// indexer is serving only while it follows the head within MaxLag blocks.
type HealthReporter struct {
	source StatusSource
	server *health.Server
	maxLag uint64
	logger *zap.Logger
	last   healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthReporter constructs a HealthReporter.
func NewHealthReporter(source StatusSource, maxLag uint64, logger *zap.Logger) (*HealthReporter, error) {
	if source == nil {
		return nil, errors.New("status source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	server := health.NewServer()
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	server.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{
		source: source,
		server: server,
		maxLag: maxLag,
		logger: logger.Named("health"),
		last:   healthpb.HealthCheckResponse_NOT_SERVING,
	}, nil
}

// Server returns the health server to register on a grpc.Server.
func (h *HealthReporter) Server() healthpb.HealthServer {
	return h.server
}

// Update sets the serving status from the current sync status.
func (h *HealthReporter) Update() {
	st := h.source.Status()
	next := servingStatus(st, h.maxLag)
	if next == h.last {
		return
	}
	h.logger.Info("health changed",
		zap.String("status", next.String()),
		zap.String("phase", string(st.Phase)),
		zap.Uint64("head", st.Head),
		zap.Uint64("upstream_head", st.UpstreamHead))
	h.server.SetServingStatus("", next)
	h.server.SetServingStatus(ServiceName, next)
	h.last = next
}

// Run updates the status every interval until ctx is done, then marks the
// server as shutting down.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Update()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Update()
		}
	}
}

func servingStatus(st hivesync.Status, maxLag uint64) healthpb.HealthCheckResponse_ServingStatus {
	if st.Phase != hivesync.PhaseLive {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	if maxLag > 0 && lag(st) > maxLag {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

func lag(st hivesync.Status) uint64 {
	if st.UpstreamHead <= st.Head {
		return 0
	}
	return st.UpstreamHead - st.Head
}
