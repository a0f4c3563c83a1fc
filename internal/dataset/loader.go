// Package dataset orchestrates the market-data loading path: a read-through
// table cache in front of the storage collaborator, and the fixed transform
// sequence (slice, fill, derive) per dataset type.
package dataset

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeungadrian/PortfolioBuilderAPI/internal/platform/cache"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/platform/observability"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/storage"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/timeseries"
)

// riskFreeColumn is the risk-free proxy column appended to every factor load.
const riskFreeColumn = "RF"

// Resources names the logical datasets inside the snapshot store. Built once
// at startup and never mutated.
type Resources struct {
	FundCodes      string
	FundPrices     string
	Benchmark      string
	FactorsDaily   string
	FactorsMonthly string
}

// Tracer is the minimal span surface the loader needs.
type Tracer interface {
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// noopTracer produces non-recording spans through the global otel tracer.
type noopTracer struct{}

func (noopTracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer("dataset").Start(ctx, name, opts...)
}

// Loader serves aligned time-series to portfolio-construction callers. All
// operations are synchronous and blocking; the only shared mutable state is
// the table cache, which serializes internally.
type Loader struct {
	resources Resources
	reader    storage.Reader
	cache     *cache.Expiring[*timeseries.Table]
	logger    *observability.Logger
	metrics   *observability.Metrics
	tracer    Tracer
}

// LoaderConfig wires a Loader.
type LoaderConfig struct {
	Resources Resources
	Reader    storage.Reader
	Cache     *cache.Expiring[*timeseries.Table]
	Logger    *observability.Logger
	Metrics   *observability.Metrics
	Tracer    Tracer
}

// NewLoader creates a Loader.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.Tracer == nil {
		cfg.Tracer = noopTracer{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics, _ = observability.NewMetrics("dataset", false)
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger("info", "text")
	}
	return &Loader{
		resources: cfg.Resources,
		reader:    cfg.Reader,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
	}
}

// NewTableCache creates the process-wide table cache with the documented
// clone-on-boundary semantics: callers may freely mutate what they get back.
func NewTableCache(maxLen int, maxAge time.Duration) *cache.Expiring[*timeseries.Table] {
	return cache.New(maxLen, maxAge, (*timeseries.Table).Clone)
}

// table returns the raw table for a resource, reading through the cache: on a
// miss the snapshot is fetched from storage and written back before use.
func (l *Loader) table(ctx context.Context, resourceID string) (*timeseries.Table, error) {
	if t, ok := l.cache.Get(resourceID); ok {
		l.metrics.RecordCacheHit(ctx, resourceID)
		return t, nil
	}
	l.metrics.RecordCacheMiss(ctx, resourceID)

	start := time.Now()
	t, err := l.reader.Read(ctx, resourceID)
	if err != nil {
		l.metrics.RecordStorageRead(ctx, resourceID, "error", time.Since(start))
		l.metrics.RecordError(ctx, "storage_read")
		return nil, err
	}
	l.metrics.RecordStorageRead(ctx, resourceID, "ok", time.Since(start))
	l.logger.LogDebug(ctx, "snapshot loaded from storage",
		"resource", resourceID,
		"rows", t.Len(),
	)

	l.cache.Put(resourceID, t)
	return t, nil
}

// Instruments lists the supported instruments (code and long name) as stored.
func (l *Loader) Instruments(ctx context.Context) (*timeseries.Table, error) {
	ctx, span := l.tracer.StartSpan(ctx, "dataset.Instruments")
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	t, err := l.table(ctx, l.resources.FundCodes)
	if err != nil {
		return nil, err
	}
	l.metrics.RecordDatasetLoad(ctx, "instruments", t.Len(), time.Since(start))
	return t, nil
}

// Benchmark loads the market benchmark over the window, aligned onto the full
// calendar grid. The raw snapshot's columns are normalized to date/market.
func (l *Loader) Benchmark(ctx context.Context, w timeseries.Window) (*timeseries.Table, error) {
	ctx, span := l.tracer.StartSpan(ctx, "dataset.Benchmark",
		trace.WithAttributes(
			attribute.String("window.start", w.Start.String()),
			attribute.String("window.end", w.End.String()),
		))
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	raw, err := l.table(ctx, l.resources.Benchmark)
	if err != nil {
		return nil, err
	}
	renamed := raw.Rename(map[string]string{
		"Date":  timeseries.DateColumn,
		"close": "market",
	})
	out, err := timeseries.Backfill(renamed, w, timeseries.FillCalendar)
	if err != nil {
		return nil, err
	}
	l.metrics.RecordDatasetLoad(ctx, "benchmark", out.Len(), time.Since(start))
	return out, nil
}

// Prices loads the price panel for the given fund codes, aligned onto the
// full calendar grid. An unknown code is a NotFound error.
func (l *Loader) Prices(ctx context.Context, codes []string, w timeseries.Window) (*timeseries.Table, error) {
	ctx, span := l.tracer.StartSpan(ctx, "dataset.Prices",
		trace.WithAttributes(attribute.Int("codes", len(codes))))
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	panel, err := l.pricePanel(ctx, codes)
	if err != nil {
		return nil, err
	}
	out, err := timeseries.Backfill(panel, w, timeseries.FillCalendar)
	if err != nil {
		return nil, err
	}
	l.metrics.RecordDatasetLoad(ctx, "prices", out.Len(), time.Since(start))
	return out, nil
}

// Returns loads period returns for the given fund codes at the requested
// frequency.
func (l *Loader) Returns(ctx context.Context, codes []string, w timeseries.Window, freq timeseries.Frequency) (*timeseries.Table, error) {
	ctx, span := l.tracer.StartSpan(ctx, "dataset.Returns",
		trace.WithAttributes(
			attribute.Int("codes", len(codes)),
			attribute.String("frequency", string(freq)),
		))
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	panel, err := l.pricePanel(ctx, codes)
	if err != nil {
		return nil, err
	}
	out, err := timeseries.Returns(panel, codes, w, freq)
	if err != nil {
		return nil, err
	}
	l.metrics.RecordDatasetLoad(ctx, "returns", out.Len(), time.Since(start))
	return out, nil
}

// Factors loads the regression-factor panel (requested factors plus the
// risk-free column) for the window, rescaled from percentage units. Gaps are
// preserved; factor data's sparsity is intentional.
func (l *Loader) Factors(ctx context.Context, factors []string, w timeseries.Window, freq timeseries.Frequency) (*timeseries.Table, error) {
	ctx, span := l.tracer.StartSpan(ctx, "dataset.Factors",
		trace.WithAttributes(
			attribute.Int("factors", len(factors)),
			attribute.String("frequency", string(freq)),
		))
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	resource := l.resources.FactorsDaily
	if freq == timeseries.Monthly {
		resource = l.resources.FactorsMonthly
	}
	raw, err := l.table(ctx, resource)
	if err != nil {
		return nil, err
	}
	cols := append([]string{timeseries.DateColumn}, factors...)
	cols = append(cols, riskFreeColumn)
	panel, err := raw.Select(cols...)
	if err != nil {
		return nil, err
	}
	out, err := timeseries.NormalizeFactors(panel, w)
	if err != nil {
		return nil, err
	}
	l.metrics.RecordDatasetLoad(ctx, "factors", out.Len(), time.Since(start))
	return out, nil
}

// pricePanel returns the raw fund-price table restricted to date plus the
// requested codes, in request order.
func (l *Loader) pricePanel(ctx context.Context, codes []string) (*timeseries.Table, error) {
	raw, err := l.table(ctx, l.resources.FundPrices)
	if err != nil {
		return nil, err
	}
	return raw.Select(append([]string{timeseries.DateColumn}, codes...)...)
}
