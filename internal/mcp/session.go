// Package mcp defines the types shared by the MCP function-call bridge.
//
// The bridge exposes every configured MCP server to an agent's planner as a
// single callable function (see package schema) and routes the resulting
// function calls to the right server (see package router). Talking to a
// server is delegated to a [Connector], which hands out long-lived
// [Session] values.
package mcp

import "context"

// CallResult is the transport-neutral response of a single tool call.
type CallResult struct {
	// Content holds the textual rendering of each content item in the
	// response, in order.
	Content []string

	// HasContent reports whether the response carried a content list, even
	// an empty one. A non-empty Content implies it.
	HasContent bool

	// Raw is the complete response as received from the server. It is
	// JSON encoded verbatim when the response carried no content list.
	Raw any

	// IsError mirrors the server's application-level error flag.
	IsError bool
}

// Session is an open connection to one MCP server.
//
// Implementations must be safe for concurrent use.
type Session interface {
	// CallTool invokes the named tool with args and returns its response.
	// args is usually a JSON object decoded into map[string]any but may be
	// any JSON value; the server decides whether it accepts it. A Go error
	// is returned on transport or protocol failure.
	CallTool(ctx context.Context, name string, args any) (*CallResult, error)

	// Close releases the connection.
	Close() error
}

// Connector establishes sessions to MCP servers.
type Connector interface {
	// Connect opens a session to the server described by cfg.
	Connect(ctx context.Context, cfg ServerConfig) (Session, error)
}
