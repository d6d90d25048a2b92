// Package health serves the gateway's liveness and readiness probes.
//
// /healthz always answers 200 while the process can serve HTTP. /readyz
// answers 200 only when every [Checker] passes and additionally reports the
// session state of each configured MCP server:
//
//	{"status":"ok","checks":{"router":"ok"},"servers":{"docs":"connected","search":"idle"}}
//
// Servers are connected lazily, so "idle" is not a failure.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MrWong99/mcpbridge/internal/mcp"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Server session states reported by /readyz.
const (
	StateConnected = "connected"
	StateIdle      = "idle"
)

// Checker is a named readiness check. Check returns nil when healthy.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Sessions exposes the router's registry and cache state.
// *router.Router satisfies it.
type Sessions interface {
	Registry() *mcp.Registry
	Connected(server string) bool
	Closed() bool
}

type result struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Servers map[string]string `json:"servers,omitempty"`
}

// Handler serves /healthz and /readyz. The checker list is fixed at
// construction time.
type Handler struct {
	sessions Sessions
	checkers []Checker
}

// New creates a Handler reporting on sessions. A nil sessions omits the
// per-server report and the router check.
func New(sessions Sessions, checkers ...Checker) *Handler {
	h := &Handler{sessions: sessions}
	if sessions != nil {
		h.checkers = append(h.checkers, RouterCheck(sessions))
	}
	h.checkers = append(h.checkers, checkers...)
	return h
}

// RouterCheck fails once the router has been shut down.
func RouterCheck(s Sessions) Checker {
	return Checker{
		Name: "router",
		Check: func(context.Context) error {
			if s.Closed() {
				return errors.New("router closed")
			}
			return nil
		},
	}
}

// Healthz always returns 200 OK.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz evaluates every checker in order, each under a [checkTimeout]
// deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := result{Status: "ok", Checks: make(map[string]string, len(h.checkers))}
	status := http.StatusOK

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			res.Checks[c.Name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[c.Name] = "ok"
	}

	if h.sessions != nil {
		servers := h.sessions.Registry().Servers()
		res.Servers = make(map[string]string, len(servers))
		for _, s := range servers {
			state := StateIdle
			if h.sessions.Connected(s.Name) {
				state = StateConnected
			}
			res.Servers[s.Name] = state
		}
	}

	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
