// Package mock provides in-memory test doubles for [mcp.Connector] and
// [mcp.Session].
//
// Both doubles record every call for assertion in tests and expose exported
// fields that control what they return. They are safe for concurrent use via
// an internal [sync.Mutex].
//
// Typical usage:
//
//	sess := &mock.Session{CallToolResult: &mcp.CallResult{Content: []string{"hi"}}}
//	conn := &mock.Connector{Session: sess}
//
//	// inject conn into the system under test …
//
//	if got := conn.ConnectCount(); got != 1 {
//	    t.Errorf("expected 1 connection, got %d", got)
//	}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/mcpbridge/internal/mcp"
)

// ToolCall records the arguments of a single [Session.CallTool] invocation.
type ToolCall struct {
	Name string
	Args any
}

// Session is a configurable test double for [mcp.Session].
type Session struct {
	mu sync.Mutex

	calls  []ToolCall
	closed int

	// CallToolResult is returned by [Session.CallTool] when CallToolErr is
	// nil. When nil, an empty *CallResult is returned.
	CallToolResult *mcp.CallResult

	// CallToolErr is returned by [Session.CallTool] when non-nil.
	CallToolErr error

	// CallToolFunc, when non-nil, takes precedence over the static fields.
	CallToolFunc func(ctx context.Context, name string, args any) (*mcp.CallResult, error)

	// CloseErr is returned by [Session.Close].
	CloseErr error
}

// CallTool implements [mcp.Session].
func (s *Session) CallTool(ctx context.Context, name string, args any) (*mcp.CallResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, ToolCall{Name: name, Args: args})
	fn, res, err := s.CallToolFunc, s.CallToolResult, s.CallToolErr
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, name, args)
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &mcp.CallResult{}, nil
	}
	cp := *res
	return &cp, nil
}

// Close implements [mcp.Session].
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return s.CloseErr
}

// ToolCalls returns a copy of all recorded tool invocations.
func (s *Session) ToolCalls() []ToolCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ToolCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// CloseCount returns how many times Close was called.
func (s *Session) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Connector is a configurable test double for [mcp.Connector].
type Connector struct {
	mu sync.Mutex

	connects []mcp.ServerConfig

	// Session is returned by [Connector.Connect] when ConnectErr is nil and
	// Sessions has no entry for the server. When nil, a fresh *Session is
	// created per connection.
	Session *Session

	// Sessions maps server names to the session returned for them.
	Sessions map[string]*Session

	// ConnectErr is returned by [Connector.Connect] when non-nil.
	ConnectErr error

	// ConnectFunc, when non-nil, runs before the static fields are consulted.
	// A non-nil error return short-circuits Connect.
	ConnectFunc func(ctx context.Context, cfg mcp.ServerConfig) error
}

// Connect implements [mcp.Connector].
func (c *Connector) Connect(ctx context.Context, cfg mcp.ServerConfig) (mcp.Session, error) {
	c.mu.Lock()
	c.connects = append(c.connects, cfg)
	fn := c.ConnectFunc
	c.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, cfg); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	if s, ok := c.Sessions[cfg.Name]; ok {
		return s, nil
	}
	if c.Session != nil {
		return c.Session, nil
	}
	return &Session{}, nil
}

// Connects returns a copy of every server config passed to Connect.
func (c *Connector) Connects() []mcp.ServerConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]mcp.ServerConfig, len(c.connects))
	copy(out, c.connects)
	return out
}

// ConnectCount returns how many times Connect was called.
func (c *Connector) ConnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.connects)
}

// Compile-time interface checks.
var (
	_ mcp.Session   = (*Session)(nil)
	_ mcp.Connector = (*Connector)(nil)
)
