package mcpclient_test

import (
	"context"
	"encoding/json"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/mcpbridge/internal/mcp"
	"github.com/MrWong99/mcpbridge/internal/mcp/mcpclient"
	"github.com/MrWong99/mcpbridge/internal/mcp/router"
	"github.com/MrWong99/mcpbridge/internal/observe"
)

// newInMemoryRouter starts an SDK server with the test tools and returns a
// router whose only server "mem" is connected to it in memory.
func newInMemoryRouter(t *testing.T) *router.Router {
	t.Helper()
	ctx := context.Background()

	srv := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "mem", Version: "0.0.1"}, nil)
	mcpsdk.AddTool(srv, &mcpsdk.Tool{Name: "empty", Description: "Returns no content items"},
		func(context.Context, *mcpsdk.CallToolRequest, struct{}) (*mcpsdk.CallToolResult, any, error) {
			return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{}}, nil, nil
		})
	mcpsdk.AddTool(srv, &mcpsdk.Tool{Name: "lines", Description: "Returns two text items"},
		func(context.Context, *mcpsdk.CallToolRequest, struct{}) (*mcpsdk.CallToolResult, any, error) {
			return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: "alpha"},
				&mcpsdk.TextContent{Text: "beta"},
			}}, nil, nil
		})

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	conn := mcpclient.New("mcpbridge-test", "test",
		mcpclient.WithTransportFunc(func(mcp.ServerConfig) (mcpsdk.Transport, error) {
			return clientTransport, nil
		}),
	)
	reg, err := mcp.NewRegistry(mcp.ServerConfig{Name: "mem", URL: "memory://"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	r := router.New(reg, conn, router.WithMetrics(m))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func dispatchOutput(t *testing.T, r *router.Router, args string) mcp.ToolOutput {
	t.Helper()
	recs, err := r.Dispatch(context.Background(), router.Call{Server: "mem", Arguments: &args, CallID: "c1"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	var out mcp.ToolOutput
	if err := json.Unmarshal([]byte(recs[0].Output), &out); err != nil {
		t.Fatalf("output is not a wrapped envelope: %v (%q)", err, recs[0].Output)
	}
	return out
}

func TestInMemoryServer_EmptyContentListYieldsEmptyOutput(t *testing.T) {
	t.Parallel()
	r := newInMemoryRouter(t)

	out := dispatchOutput(t, r, `{"name":"empty","args":{}}`)
	if out.Output != "" {
		t.Errorf("output = %q, want empty string", out.Output)
	}
	if out.Metadata.ExitCode != 0 {
		t.Errorf("exit_code = %d, want 0", out.Metadata.ExitCode)
	}
}

func TestInMemoryServer_TextItemsJoined(t *testing.T) {
	t.Parallel()
	r := newInMemoryRouter(t)

	out := dispatchOutput(t, r, `{"name":"lines"}`)
	if out.Output != "alpha\nbeta" {
		t.Errorf("output = %q, want %q", out.Output, "alpha\nbeta")
	}
}
