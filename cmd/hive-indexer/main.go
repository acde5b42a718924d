package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcMiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpcZap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpcRecovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpcCtxTags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	grpcPrometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/clock"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/indexer"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/repository/clickhouse"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/repository/memory"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/repository/postgres"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/steem"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/stream"
	hivesync "github.com/goodnatureofminers/hiveindexer-backend/internal/hive/sync"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/metrics"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/transport"
	"github.com/goodnatureofminers/hiveindexer-backend/pkg/batcher"
)

type config struct {
	SteemdURLs  []string      `long:"steemd-url" env:"HIVE_INDEXER_STEEMD_URLS" env-delim:"," description:"steemd JSON-RPC endpoint, repeat for failover" default:"https://api.hive.blog"`
	MaxBatch    int           `long:"max-batch" env:"HIVE_INDEXER_MAX_BATCH" description:"blocks per JSON-RPC batch (1..5000)" default:"50"`
	MaxWorkers  int           `long:"max-workers" env:"HIVE_INDEXER_MAX_WORKERS" description:"parallel batch requests (1..500)" default:"4"`
	RPS         int           `long:"rps" env:"HIVE_INDEXER_RPS" description:"steemd requests per second, 0 disables the limit" default:"0"`
	MaxTries    int           `long:"max-tries" env:"HIVE_INDEXER_MAX_TRIES" description:"attempts per steemd call" default:"10"`
	HTTPTimeout time.Duration `long:"http-timeout" env:"HIVE_INDEXER_HTTP_TIMEOUT" description:"HTTP timeout for steemd requests" default:"30s"`

	PostgresDSN    string `long:"postgres-dsn" env:"HIVE_INDEXER_POSTGRES_DSN" description:"PostgreSQL DSN"`
	ClickhouseDSN  string `long:"clickhouse-dsn" env:"HIVE_INDEXER_CLICKHOUSE_DSN" description:"ClickHouse DSN for the block archive, empty disables it"`
	CheckpointsDir string `long:"checkpoints-dir" env:"HIVE_INDEXER_CHECKPOINTS_DIR" description:"directory with <height>.json.lst[.zst] checkpoint files"`
	DryRun         bool   `long:"dry-run" env:"HIVE_INDEXER_DRY_RUN" description:"keep the projection in memory instead of PostgreSQL"`

	TrailBlocks     int           `long:"trail-blocks" env:"HIVE_INDEXER_TRAIL_BLOCKS" description:"blocks kept behind the upstream head (0..100)" default:"2"`
	MaxGap          uint64        `long:"max-gap" env:"HIVE_INDEXER_MAX_GAP" description:"largest gap between local and upstream head the stream tolerates" default:"40"`
	MaxForkDepth    int           `long:"max-fork-depth" env:"HIVE_INDEXER_MAX_FORK_DEPTH" description:"blocks verify head may pop before giving up" default:"25"`
	StaleHeadAfter  time.Duration `long:"stale-head-after" env:"HIVE_INDEXER_STALE_HEAD_AFTER" description:"restart the stream when the upstream head does not move for this long" default:"60s"`
	ChunkSize       int           `long:"chunk-size" env:"HIVE_INDEXER_CHUNK_SIZE" description:"blocks applied per catch-up transaction" default:"1000"`
	ChainStateEvery uint64        `long:"chain-state-every" env:"HIVE_INDEXER_CHAIN_STATE_EVERY" description:"refresh chain state every n live blocks" default:"20"`

	ArchiveFlushSize     int           `long:"archive-flush-size" env:"HIVE_INDEXER_ARCHIVE_FLUSH_SIZE" description:"archived blocks per ClickHouse insert" default:"1000"`
	ArchiveFlushInterval time.Duration `long:"archive-flush-interval" env:"HIVE_INDEXER_ARCHIVE_FLUSH_INTERVAL" description:"archive flush interval" default:"3s"`

	Addr        string        `long:"addr" env:"HIVE_INDEXER_ADDR" description:"gRPC health addr" default:":8000"`
	HTTPAddr    string        `long:"http-addr" env:"HIVE_INDEXER_HTTP_ADDR" description:"metrics and status addr" default:":2112"`
	MaxLag      uint64        `long:"max-lag" env:"HIVE_INDEXER_MAX_LAG" description:"blocks behind upstream still reported as serving, 0 disables the check" default:"20"`
	HealthEvery time.Duration `long:"health-every" env:"HIVE_INDEXER_HEALTH_EVERY" description:"health status refresh interval" default:"5s"`
}

// store is what both the applier and the sync driver need from the projection.
type store interface {
	indexer.Store
	hivesync.State
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()
	grpcZap.ReplaceGrpcLoggerV2(logger)

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if cfg.PostgresDSN == "" && !cfg.DryRun {
		logger.Fatal("PostgreSQL DSN is required unless --dry-run is set")
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("hive indexer failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	caller, err := steem.NewRPCClient(steem.RPCConfig{
		URLs:     cfg.SteemdURLs,
		Timeout:  cfg.HTTPTimeout,
		MaxTries: cfg.MaxTries,
		RPS:      cfg.RPS,
	}, metrics.NewRPCClient(), logger)
	if err != nil {
		return fmt.Errorf("init steemd rpc client: %w", err)
	}
	client, err := steem.NewClient(caller, steem.ClientConfig{
		MaxBatch:   cfg.MaxBatch,
		MaxWorkers: cfg.MaxWorkers,
	}, logger)
	if err != nil {
		return fmt.Errorf("init steemd client: %w", err)
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	applier, err := indexer.New(st, client, metrics.NewApplier(), indexer.Config{MaxForkDepth: cfg.MaxForkDepth}, logger)
	if err != nil {
		return fmt.Errorf("init applier: %w", err)
	}

	var archive hivesync.Archive
	if cfg.ClickhouseDSN != "" {
		archiveMetrics := metrics.NewClickhouseRepository()
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, archiveMetrics)
		if err != nil {
			return fmt.Errorf("init archive repository: %w", err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Error("failed to close archive repository", zap.Error(err))
			}
		}()
		writer, err := clickhouse.NewArchiveWriter(repo, archiveMetrics, batcher.Config{
			FlushSize:     cfg.ArchiveFlushSize,
			FlushInterval: cfg.ArchiveFlushInterval,
		}, logger)
		if err != nil {
			return fmt.Errorf("init archive writer: %w", err)
		}
		writer.Start(ctx)
		defer writer.Stop()
		archive = writer
	}

	svc, err := hivesync.New(
		st,
		applier,
		client,
		archive,
		metrics.NewSync(),
		metrics.NewSchedule(),
		clock.Real{},
		hivesync.Config{
			CheckpointsDir:  cfg.CheckpointsDir,
			ChunkSize:       cfg.ChunkSize,
			TrailBlocks:     cfg.TrailBlocks,
			MaxGap:          cfg.MaxGap,
			ChainStateEvery: cfg.ChainStateEvery,
			Schedule: stream.ScheduleConfig{
				StaleHeadAfter: cfg.StaleHeadAfter,
			},
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("init sync service: %w", err)
	}

	health, err := transport.NewHealthReporter(svc, cfg.MaxLag, logger)
	if err != nil {
		return fmt.Errorf("init health reporter: %w", err)
	}
	go health.Run(ctx, cfg.HealthEvery)

	if err := startGRPCServer(ctx, cfg.Addr, health.Server(), logger); err != nil {
		return err
	}
	startHTTPServer(ctx, cfg.HTTPAddr, transport.NewStatusHandler(svc, logger), logger)

	return svc.Run(ctx)
}

func openStore(ctx context.Context, cfg config) (store, func(), error) {
	if cfg.DryRun {
		return memory.NewStore(), func() {}, nil
	}
	pool, err := postgres.OpenPool(ctx, postgres.DefaultConfig(cfg.PostgresDSN))
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	st, err := postgres.NewStore(pool, metrics.NewPostgresRepository())
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("init postgres store: %w", err)
	}
	return st, pool.Close, nil
}

func startGRPCServer(ctx context.Context, addr string, health healthpb.HealthServer, logger *zap.Logger) error {
	chain := []grpc.UnaryServerInterceptor{
		grpcRecovery.UnaryServerInterceptor(),
		grpcCtxTags.UnaryServerInterceptor(),
		grpcPrometheus.UnaryServerInterceptor,
		grpcZap.UnaryServerInterceptor(logger),
	}
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpcMiddleware.ChainUnaryServer(chain...)),
	)
	healthpb.RegisterHealthServer(grpcServer, health)
	grpcPrometheus.EnableHandlingTimeHistogram()
	grpcPrometheus.Register(grpcServer)

	socket, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	go func() {
		logger.Info("starting gRPC server", zap.String("addr", addr))
		if err := grpcServer.Serve(socket); err != nil {
			logger.Error("gRPC server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down gRPC server")
		grpcServer.GracefulStop()
	}()
	return nil
}

func startHTTPServer(ctx context.Context, addr string, status http.Handler, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/status", status)

	srv := &http.Server{
		Addr:              addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("starting http server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}()
}
