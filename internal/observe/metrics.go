// Package observe provides application-wide observability primitives for
// mcpbridge: OpenTelemetry metrics, distributed tracing, trace-aware
// structured logging, and HTTP middleware for the metrics endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all mcpbridge metrics.
const meterName = "github.com/MrWong99/mcpbridge"

// Call status values used with [Metrics.RecordToolCall].
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusPassthrough = "passthrough"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// ToolCallDuration tracks remote tool call latency. Use with attributes:
	//   attribute.String("server", ...), attribute.String("tool", ...)
	ToolCallDuration metric.Float64Histogram

	// ConnectDuration tracks connection establishment latency per server.
	ConnectDuration metric.Float64Histogram

	// ToolCalls counts dispatched function calls. Use with attributes:
	//   attribute.String("server", ...), attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// ConnectErrors counts failed connection attempts per server.
	ConnectErrors metric.Int64Counter

	// ActiveConnections tracks the number of cached server sessions.
	ActiveConnections metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for remote
// tool calls, which range from fast lookups to long-running jobs.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ToolCallDuration, err = m.Float64Histogram("mcpbridge.tool_call.duration",
		metric.WithDescription("Latency of remote MCP tool calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ConnectDuration, err = m.Float64Histogram("mcpbridge.connect.duration",
		metric.WithDescription("Latency of MCP server connection establishment."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ToolCalls, err = m.Int64Counter("mcpbridge.tool.calls",
		metric.WithDescription("Total dispatched function calls by server, tool, and status."),
	); err != nil {
		return nil, err
	}
	if met.ConnectErrors, err = m.Int64Counter("mcpbridge.connect.errors",
		metric.WithDescription("Total failed MCP server connection attempts by server."),
	); err != nil {
		return nil, err
	}

	if met.ActiveConnections, err = m.Int64UpDownCounter("mcpbridge.active_connections",
		metric.WithDescription("Number of cached MCP server sessions."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("mcpbridge.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordToolCall records a dispatched call with the standard attribute set.
// tool is empty when the payload could not be parsed.
func (m *Metrics) RecordToolCall(ctx context.Context, server, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("server", server),
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordToolCallDuration records the latency of one remote tool call.
func (m *Metrics) RecordToolCallDuration(ctx context.Context, server, tool string, seconds float64) {
	m.ToolCallDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("server", server),
			attribute.String("tool", tool),
		),
	)
}

// RecordConnect records a connection attempt. Failed attempts also
// increment [Metrics.ConnectErrors]; successful ones increment
// [Metrics.ActiveConnections].
func (m *Metrics) RecordConnect(ctx context.Context, server string, seconds float64, err error) {
	attrs := metric.WithAttributes(attribute.String("server", server))
	m.ConnectDuration.Record(ctx, seconds, attrs)
	if err != nil {
		m.ConnectErrors.Add(ctx, 1, attrs)
		return
	}
	m.ActiveConnections.Add(ctx, 1)
}

// RecordDisconnect decrements [Metrics.ActiveConnections] by n.
func (m *Metrics) RecordDisconnect(ctx context.Context, n int) {
	m.ActiveConnections.Add(ctx, -int64(n))
}
