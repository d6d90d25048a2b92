// Package mcpclient implements [mcp.Connector] on top of the official MCP Go
// SDK (github.com/modelcontextprotocol/go-sdk).
//
// A single SDK client carries the process identity (origin and version) and
// is shared by every session it opens:
//
//	c := mcpclient.New("mcpbridge", buildinfo.Version)
//	sess, err := c.Connect(ctx, mcp.ServerConfig{Name: "docs", URL: "https://docs.example/mcp"})
//	res, err := sess.CallTool(ctx, "search", map[string]any{"q": "otel"})
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/mcpbridge/internal/mcp"
)

// TransportFunc builds the SDK transport for a server.
type TransportFunc func(cfg mcp.ServerConfig) (mcpsdk.Transport, error)

// Option is a functional option for configuring a [Connector].
type Option func(*Connector)

// WithTransportFunc replaces the transport constructor. Tests use it to
// connect to in-process servers.
func WithTransportFunc(fn TransportFunc) Option {
	return func(c *Connector) {
		c.newTransport = fn
	}
}

// Connector opens SDK client sessions. The zero value is NOT usable; create
// instances with [New]. Connector is safe for concurrent use.
type Connector struct {
	client       *mcpsdk.Client
	newTransport TransportFunc
}

// Compile-time check: Connector must implement mcp.Connector.
var _ mcp.Connector = (*Connector)(nil)

// New creates a Connector that identifies itself to servers as origin at
// the given version.
func New(origin, version string, opts ...Option) *Connector {
	c := &Connector{
		client: mcpsdk.NewClient(
			&mcpsdk.Implementation{Name: origin, Version: version},
			nil,
		),
		newTransport: NewTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect performs the MCP handshake with the server described by cfg.
func (c *Connector) Connect(ctx context.Context, cfg mcp.ServerConfig) (mcp.Session, error) {
	transport, err := c.newTransport(cfg)
	if err != nil {
		return nil, err
	}
	cs, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: connect to server %q: %w", cfg.Name, err)
	}
	return &session{cs: cs}, nil
}

// NewTransport is the default [TransportFunc].
//
// Stdio subprocesses are started without a context so they outlive the
// request that first connected them.
func NewTransport(cfg mcp.ServerConfig) (mcpsdk.Transport, error) {
	switch t := cfg.EffectiveTransport(); t {
	case mcp.TransportStreamableHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("mcpclient: streamable-http server %q requires a non-empty URL", cfg.Name)
		}
		return &mcpsdk.StreamableClientTransport{Endpoint: cfg.URL}, nil

	case mcp.TransportSSE:
		if cfg.URL == "" {
			return nil, fmt.Errorf("mcpclient: sse server %q requires a non-empty URL", cfg.Name)
		}
		return &mcpsdk.SSEClientTransport{Endpoint: cfg.URL}, nil

	case mcp.TransportStdio:
		parts := strings.Fields(cfg.Command)
		if len(parts) == 0 {
			return nil, fmt.Errorf("mcpclient: stdio server %q requires a non-empty command", cfg.Name)
		}
		cmd := exec.Command(parts[0], parts[1:]...)
		if len(cfg.Env) > 0 {
			cmd.Env = os.Environ()
			for k, v := range cfg.Env {
				cmd.Env = append(cmd.Env, k+"="+v)
			}
		}
		return &mcpsdk.CommandTransport{Command: cmd}, nil

	default:
		return nil, fmt.Errorf("mcpclient: unknown transport %q for server %q", t, cfg.Name)
	}
}

// session adapts an SDK client session to [mcp.Session].
type session struct {
	cs *mcpsdk.ClientSession
}

func (s *session) CallTool(ctx context.Context, name string, args any) (*mcp.CallResult, error) {
	res, err := s.cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}
	return convertResult(res), nil
}

func (s *session) Close() error {
	return s.cs.Close()
}

// convertResult renders every content item as text. Text items contribute
// their text verbatim; any other item (image, audio, resource) is rendered
// as its JSON wire form.
//
// content is a required field of a tool result, so SDK results always carry
// a content list. The SDK may decode an empty list as nil.
func convertResult(res *mcpsdk.CallToolResult) *mcp.CallResult {
	out := &mcp.CallResult{
		Content:    make([]string, 0, len(res.Content)),
		HasContent: true,
		Raw:        res,
		IsError:    res.IsError,
	}
	for _, c := range res.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			out.Content = append(out.Content, tc.Text)
			continue
		}
		data, err := json.Marshal(c)
		if err != nil {
			out.Content = append(out.Content, "")
			continue
		}
		out.Content = append(out.Content, string(data))
	}
	return out
}
