package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Metrics holds all application metrics.
type Metrics struct {
	meter metric.Meter

	// Table cache metrics
	CacheHits   metric.Int64Counter
	CacheMisses metric.Int64Counter

	// Storage read metrics
	StorageReads        metric.Int64Counter
	StorageReadDuration metric.Float64Histogram

	// Dataset load metrics
	DatasetLoads metric.Int64Counter
	LoadDuration metric.Float64Histogram
	RowsServed   metric.Int64Counter

	// Error metrics
	Errors metric.Int64Counter

	// Prometheus exporter for HTTP handler
	exporter *prometheus.Exporter
}

// NewMetrics creates a new Metrics instance. When disabled, every instrument
// is a no-op and Handler still serves an empty registry.
func NewMetrics(serviceName string, enabled bool) (*Metrics, error) {
	if !enabled {
		return &Metrics{meter: sdkmetric.NewMeterProvider().Meter(serviceName)}, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	m := &Metrics{
		meter:    provider.Meter(serviceName),
		exporter: exporter,
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return m, nil
}

// initMetrics initializes all metric instruments.
func (m *Metrics) initMetrics() error {
	var err error

	m.CacheHits, err = m.meter.Int64Counter(
		"marketdata.cache.hits",
		metric.WithDescription("Total table cache hits"),
	)
	if err != nil {
		return err
	}

	m.CacheMisses, err = m.meter.Int64Counter(
		"marketdata.cache.misses",
		metric.WithDescription("Total table cache misses (including expiries)"),
	)
	if err != nil {
		return err
	}

	m.StorageReads, err = m.meter.Int64Counter(
		"marketdata.storage.reads",
		metric.WithDescription("Total snapshot reads from the storage backend"),
	)
	if err != nil {
		return err
	}

	m.StorageReadDuration, err = m.meter.Float64Histogram(
		"marketdata.storage.read.duration",
		metric.WithDescription("Snapshot read duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	m.DatasetLoads, err = m.meter.Int64Counter(
		"marketdata.dataset.loads",
		metric.WithDescription("Total dataset load operations"),
	)
	if err != nil {
		return err
	}

	m.LoadDuration, err = m.meter.Float64Histogram(
		"marketdata.dataset.load.duration",
		metric.WithDescription("Dataset load duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	m.RowsServed, err = m.meter.Int64Counter(
		"marketdata.dataset.rows",
		metric.WithDescription("Total rows served to callers"),
	)
	if err != nil {
		return err
	}

	m.Errors, err = m.meter.Int64Counter(
		"marketdata.errors",
		metric.WithDescription("Total errors encountered"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordCacheHit records a table cache hit.
func (m *Metrics) RecordCacheHit(ctx context.Context, resource string) {
	if m.CacheHits == nil {
		return
	}
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", resource)))
}

// RecordCacheMiss records a table cache miss.
func (m *Metrics) RecordCacheMiss(ctx context.Context, resource string) {
	if m.CacheMisses == nil {
		return
	}
	m.CacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", resource)))
}

// RecordStorageRead records one snapshot read against the storage backend.
func (m *Metrics) RecordStorageRead(ctx context.Context, resource, status string, duration time.Duration) {
	if m.StorageReads == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("status", status),
	)
	m.StorageReads.Add(ctx, 1, attrs)
	m.StorageReadDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordDatasetLoad records a completed load operation and its output size.
func (m *Metrics) RecordDatasetLoad(ctx context.Context, operation string, rows int, duration time.Duration) {
	if m.DatasetLoads == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.DatasetLoads.Add(ctx, 1, attrs)
	m.LoadDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.RowsServed.Add(ctx, int64(rows), attrs)
}

// RecordError records an error.
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	if m.Errors == nil {
		return
	}
	m.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("type", errorType)))
}

// Handler returns the HTTP handler for Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	// The OpenTelemetry Prometheus exporter registers with the default
	// Prometheus registry.
	return promhttp.Handler()
}
