package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/wolfeidau/spabuild"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BuildsTotal       metric.Int64Counter
	BuildErrorsTotal  metric.Int64Counter
	BuildDuration     metric.Float64Histogram
	OutputBytes       metric.Int64Histogram
	VendorBytes       metric.Int64Histogram
	StylesCompiled    metric.Int64Counter
	StyleCacheHits    metric.Int64Counter
	StyleCacheMisses  metric.Int64Counter
	DevServerRequests metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// Tracer returns the tracer used for build spans.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(instrumentationName)
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	m := &Metrics{}

	m.BuildsTotal, _ = meter.Int64Counter(
		"spabuild.builds.total",
		metric.WithDescription("Total number of builds run"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"spabuild.builds.errors.total",
		metric.WithDescription("Total number of builds that finished with errors"),
		metric.WithUnit("{build}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"spabuild.builds.duration",
		metric.WithDescription("Duration of builds"),
		metric.WithUnit("ms"),
	)

	m.OutputBytes, _ = meter.Int64Histogram(
		"spabuild.builds.output.bytes",
		metric.WithDescription("Total bytes emitted per build"),
		metric.WithUnit("By"),
	)

	m.VendorBytes, _ = meter.Int64Histogram(
		"spabuild.vendor.bytes",
		metric.WithDescription("Bytes contributed by third-party modules per build"),
		metric.WithUnit("By"),
	)

	m.StylesCompiled, _ = meter.Int64Counter(
		"spabuild.styles.compiled.total",
		metric.WithDescription("Total number of stylesheets run through the style chain"),
		metric.WithUnit("{stylesheet}"),
	)

	m.StyleCacheHits, _ = meter.Int64Counter(
		"spabuild.cache.hits.total",
		metric.WithDescription("Total number of style chain cache hits"),
		metric.WithUnit("{hit}"),
	)

	m.StyleCacheMisses, _ = meter.Int64Counter(
		"spabuild.cache.misses.total",
		metric.WithDescription("Total number of style chain cache misses"),
		metric.WithUnit("{miss}"),
	)

	m.DevServerRequests, _ = meter.Int64Counter(
		"spabuild.devserver.requests.total",
		metric.WithDescription("Total number of requests served by the dev server"),
		metric.WithUnit("{request}"),
	)

	return m
}
