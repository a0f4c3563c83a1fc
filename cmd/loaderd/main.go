package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yeungadrian/PortfolioBuilderAPI/internal/dataset"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/platform/aws"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/platform/config"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/platform/observability"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Loading configuration...")
	cfg := config.MustLoad(*configPath)

	// Observability first; everything else logs through it.
	logger := observability.NewLogger(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	metrics, err := observability.NewMetrics("marketdata-loader", cfg.Observability.Metrics.Enabled)
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	tracer, err := observability.NewTracerProvider(ctx, "marketdata-loader", cfg.Observability.Tracing.Endpoint, cfg.Observability.Tracing.Enabled)
	if err != nil {
		log.Fatalf("Failed to create tracer: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	logger.Info("observability setup complete")

	reader, err := newReader(ctx, cfg)
	if err != nil {
		logger.LogError(ctx, "failed to create storage reader", err)
		log.Fatalf("Failed to create storage reader: %v", err)
	}

	tableCache := dataset.NewTableCache(cfg.Cache.MaxLen, cfg.Cache.MaxAge)

	loader := dataset.NewLoader(dataset.LoaderConfig{
		Resources: dataset.Resources{
			FundCodes:      cfg.Storage.Resources.FundCodes,
			FundPrices:     cfg.Storage.Resources.FundPrices,
			Benchmark:      cfg.Storage.Resources.Benchmark,
			FactorsDaily:   cfg.Storage.Resources.FactorsDaily,
			FactorsMonthly: cfg.Storage.Resources.FactorsMonthly,
		},
		Reader:  reader,
		Cache:   tableCache,
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tracer,
	})

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           newMux(loader, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.Observability.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Observability.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("API server listening", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			logger.Info("metrics server listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if metricsServer != nil {
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		return apiServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.LogError(ctx, "server exited with error", err)
		log.Fatalf("Server exited with error: %v", err)
	}
	logger.Info("shutdown complete")
}

// newReader builds the configured storage backend.
func newReader(ctx context.Context, cfg *config.Config) (storage.Reader, error) {
	switch cfg.Storage.Backend {
	case "s3":
		awsCfg, err := aws.LoadAWSConfig(ctx, aws.Config{Region: cfg.Storage.Region})
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return storage.NewS3Reader(awsCfg, cfg.Storage.Bucket, cfg.Storage.Endpoint), nil
	case "dir":
		return storage.NewDirReader(cfg.Storage.Dir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
