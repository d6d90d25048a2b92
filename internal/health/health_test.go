package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrWong99/mcpbridge/internal/mcp"
	"github.com/MrWong99/mcpbridge/internal/mcp/mock"
	"github.com/MrWong99/mcpbridge/internal/mcp/router"
)

func newRouter(t *testing.T) *router.Router {
	t.Helper()
	reg, err := mcp.NewRegistry(
		mcp.ServerConfig{Name: "docs", URL: "http://docs.example/mcp"},
		mcp.ServerConfig{Name: "search", URL: "http://search.example/mcp"},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return router.New(reg, &mock.Connector{})
}

func serve(t *testing.T, h *Handler, path string) (int, result) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthz_AlwaysReturns200(t *testing.T) {
	t.Parallel()
	r := newRouter(t)
	_ = r.Close()

	code, body := serve(t, New(r), "/healthz")
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("got %d %q, want 200 ok", code, body.Status)
	}
}

func TestReadyz_ReportsServerStates(t *testing.T) {
	t.Parallel()
	r := newRouter(t)
	t.Cleanup(func() { _ = r.Close() })

	args := `{"name":"lookup"}`
	if _, err := r.Dispatch(context.Background(), router.Call{Server: "docs", Arguments: &args, CallID: "c1"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	code, body := serve(t, New(r), "/readyz")
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if body.Checks["router"] != "ok" {
		t.Errorf("router check = %q", body.Checks["router"])
	}
	if body.Servers["docs"] != StateConnected {
		t.Errorf("docs = %q, want %q", body.Servers["docs"], StateConnected)
	}
	if body.Servers["search"] != StateIdle {
		t.Errorf("search = %q, want %q", body.Servers["search"], StateIdle)
	}
}

func TestReadyz_ClosedRouterFails(t *testing.T) {
	t.Parallel()
	r := newRouter(t)
	_ = r.Close()

	code, body := serve(t, New(r), "/readyz")
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
	if body.Status != "fail" || body.Checks["router"] != "fail: router closed" {
		t.Errorf("body = %+v", body)
	}
}

func TestReadyz_ExtraCheckerFails(t *testing.T) {
	t.Parallel()
	h := New(nil, Checker{Name: "upstream", Check: func(context.Context) error {
		return errors.New("connection refused")
	}})

	code, body := serve(t, h, "/readyz")
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
	if body.Checks["upstream"] != "fail: connection refused" {
		t.Errorf("upstream = %q", body.Checks["upstream"])
	}
	if body.Servers != nil {
		t.Errorf("servers = %v, want none without sessions", body.Servers)
	}
}

func TestReadyz_CheckerReceivesDeadline(t *testing.T) {
	t.Parallel()
	var hasDeadline bool
	h := New(nil, Checker{Name: "probe", Check: func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}})

	serve(t, h, "/readyz")
	if !hasDeadline {
		t.Error("checker context has no deadline")
	}
}
