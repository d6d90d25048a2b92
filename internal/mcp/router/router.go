// Package router dispatches function calls emitted by an agent to the MCP
// server they name.
//
// Each call carries the server name (the function name the planner chose), a
// JSON argument string holding the target tool name plus its arguments, and
// a call ID. [Router.Dispatch] always answers with exactly one
// function-call-output record:
//
//   - When the call cannot be routed (unknown server, malformed JSON, missing
//     tool name) the record carries the raw argument string unchanged.
//   - Otherwise the tool is invoked over a cached per-server session and the
//     record carries {output, metadata:{exit_code, duration_seconds}} as
//     JSON. Remote failures yield exit_code 1 and an "MCP error: " message.
//
// Establishing a session is the only failure reported as a Go error.
//
// Typical usage:
//
//	r := router.New(registry, mcpclient.New("mcpbridge", buildinfo.Version))
//	defer r.Close()
//
//	out, err := r.Dispatch(ctx, router.Call{Server: "docs", Arguments: &args, CallID: id})
package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/mcpbridge/internal/mcp"
	"github.com/MrWong99/mcpbridge/internal/observe"
)

// defaultArguments replaces an absent argument string.
const defaultArguments = "{}"

// Call is a single function-call request from the agent.
type Call struct {
	// Server is the function name, i.e. the MCP server's registry key.
	Server string

	// Arguments is the raw JSON argument string. Nil means absent.
	Arguments *string

	// CallID is echoed back in the output record.
	CallID string
}

// Option is a functional option for configuring a [Router].
type Option func(*Router)

// WithLogger sets the logger used for routing diagnostics.
// The default is [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithMetrics sets the metric instruments. The default is
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithClock replaces the time source used to measure call duration.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// Router routes function calls to MCP servers over cached sessions.
//
// The zero value is NOT usable; create instances with [New]. Router is safe
// for concurrent use.
type Router struct {
	registry *mcp.Registry
	cache    *connCache
	logger   *slog.Logger
	metrics  *observe.Metrics
	now      func() time.Time
}

// New creates a Router over registry that opens sessions with connector.
// A nil registry routes nothing.
func New(registry *mcp.Registry, connector mcp.Connector, opts ...Option) *Router {
	r := &Router{
		registry: registry,
		cache:    newConnCache(connector),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	r.cache.onConnect = r.recordConnect
	return r
}

// Registry returns the server registry the router was built with.
func (r *Router) Registry() *mcp.Registry {
	return r.registry
}

// Connected reports whether a session to server is cached.
func (r *Router) Connected(server string) bool {
	_, ok := r.cache.lookup(server)
	return ok
}

// Closed reports whether [Router.Close] has been called.
func (r *Router) Closed() bool {
	return r.cache.isClosed()
}

// Dispatch routes call and returns a one-element slice holding its output
// record. The error is non-nil only when the session to a known server
// could not be established; the slice is nil in that case.
func (r *Router) Dispatch(ctx context.Context, call Call) ([]mcp.OutputRecord, error) {
	ctx, span := observe.StartSpan(ctx, "mcpbridge.dispatch",
		trace.WithAttributes(
			attribute.String("mcp.server", call.Server),
			attribute.String("mcp.call_id", call.CallID),
		),
	)

	rec, err := r.dispatch(ctx, span, call)
	observe.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return []mcp.OutputRecord{rec}, nil
}

func (r *Router) dispatch(ctx context.Context, span trace.Span, call Call) (mcp.OutputRecord, error) {
	log := observe.Logger(ctx, r.logger).With("server", call.Server, "call_id", call.CallID)

	raw := defaultArguments
	if call.Arguments != nil {
		raw = *call.Arguments
	}

	cfg, known := r.registry.Lookup(call.Server)
	if !known {
		log.Debug("unknown mcp server, passing arguments through")
		r.metrics.RecordToolCall(ctx, call.Server, "", observe.StatusPassthrough)
		return passthrough(call.CallID, raw), nil
	}

	inv, ok := parseInvocation(raw)
	if !ok {
		log.Debug("unparseable mcp call payload, passing arguments through")
		r.metrics.RecordToolCall(ctx, call.Server, "", observe.StatusPassthrough)
		return passthrough(call.CallID, raw), nil
	}
	span.SetAttributes(attribute.String("mcp.tool", inv.tool))
	log = log.With("tool", inv.tool)

	sess, err := r.cache.get(ctx, cfg)
	if err != nil {
		log.Warn("mcp server connection failed", "err", err)
		return mcp.OutputRecord{}, fmt.Errorf("router: connect to server %q: %w", call.Server, err)
	}

	start := r.now()
	res, callErr := sess.CallTool(ctx, inv.tool, inv.args)
	elapsed := r.now().Sub(start)
	r.metrics.RecordToolCallDuration(ctx, call.Server, inv.tool, elapsed.Seconds())

	output, exitCode, status := "", 0, observe.StatusOK
	if callErr != nil {
		output, exitCode, status = errorPrefix+callErr.Error(), 1, observe.StatusError
		log.Info("mcp tool call failed", "err", callErr, "duration", elapsed)
	} else {
		output = classify(res).text()
		log.Debug("mcp tool call completed", "duration", elapsed)
	}
	r.metrics.RecordToolCall(ctx, call.Server, inv.tool, status)

	rec, err := wrapped(call.CallID, output, exitCode, elapsed)
	if err != nil {
		// Only reachable if the envelope itself cannot be encoded.
		log.Error("encode mcp output envelope", "err", err)
		return passthrough(call.CallID, output), nil
	}
	return rec, nil
}

// Close closes every cached session. The router rejects new connections
// afterwards; calls to unknown servers or with malformed payloads still
// produce passthrough records.
func (r *Router) Close() error {
	n, err := r.cache.close()
	r.metrics.RecordDisconnect(context.Background(), n)
	return err
}

func (r *Router) recordConnect(ctx context.Context, server string, elapsed time.Duration, err error) {
	r.metrics.RecordConnect(ctx, server, elapsed.Seconds(), err)
	if err == nil {
		r.logger.Info("connected to mcp server", "server", server, "duration", elapsed)
	}
}
