// Package gateway exposes the function schemas and the call router over
// HTTP so that agents running out of process can use them.
//
// Routes:
//
//	GET  /v1/functions  function descriptors, one per configured MCP server
//	POST /v1/calls      dispatch one function call, returns its output record
//	GET  /healthz       liveness
//	GET  /readyz        readiness plus per-server session state
//	GET  /metrics       Prometheus scrape endpoint
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/mcpbridge/internal/health"
	"github.com/MrWong99/mcpbridge/internal/mcp"
	"github.com/MrWong99/mcpbridge/internal/mcp/router"
	"github.com/MrWong99/mcpbridge/internal/mcp/schema"
	"github.com/MrWong99/mcpbridge/internal/observe"
)

// maxBodyBytes bounds a call request body.
const maxBodyBytes = 1 << 20

// Backend routes calls and reports session state. *router.Router satisfies it.
type Backend interface {
	health.Sessions
	Dispatch(ctx context.Context, call router.Call) ([]mcp.OutputRecord, error)
}

// CallRequest is the body of POST /v1/calls.
type CallRequest struct {
	// Server is the function name chosen by the planner. A name that is
	// not configured, including the empty name, yields a passthrough record.
	Server string `json:"server"`

	// Arguments is the raw JSON argument string. Null or missing means absent.
	Arguments *string `json:"arguments"`

	// CallID is echoed in the output record. Generated when empty.
	CallID string `json:"call_id"`
}

// CallResponse is the body of a successful POST /v1/calls.
type CallResponse struct {
	Outputs []mcp.OutputRecord `json:"outputs"`
}

// FunctionsResponse is the body of GET /v1/functions.
type FunctionsResponse struct {
	Functions []mcp.FunctionDefinition `json:"functions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the gateway routes.
type Server struct {
	backend Backend
	logger  *slog.Logger
	mux     *chi.Mux
}

// New builds a Server over backend. A nil logger uses [slog.Default]; nil
// metrics use [observe.DefaultMetrics].
func New(backend Backend, metrics *observe.Metrics, logger *slog.Logger, checkers ...health.Checker) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	s := &Server{backend: backend, logger: logger, mux: chi.NewRouter()}

	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.RealIP)
	s.mux.Use(middleware.Recoverer)
	s.mux.Use(observe.Middleware(metrics))

	probes := health.New(backend, checkers...)
	s.mux.Get("/healthz", probes.Healthz)
	s.mux.Get("/readyz", probes.Readyz)
	s.mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/functions", s.handleFunctions)
		r.Post("/calls", s.handleCall)
	})
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleFunctions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FunctionsResponse{
		Functions: schema.Definitions(s.backend.Registry()),
	})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.CallID == "" {
		req.CallID = NewCallID()
	}

	out, err := s.backend.Dispatch(r.Context(), router.Call{
		Server:    req.Server,
		Arguments: req.Arguments,
		CallID:    req.CallID,
	})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, router.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		observe.Logger(r.Context(), s.logger).Warn("dispatch failed",
			"server", req.Server,
			"call_id", req.CallID,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, CallResponse{Outputs: out})
}

// NewCallID returns a fresh call identifier for calls that arrive without one.
func NewCallID() string {
	return "call_" + uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
