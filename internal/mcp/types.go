package mcp

import "fmt"

// Transport selects the connection mechanism for an MCP server.
type Transport string

const (
	// TransportStreamableHTTP communicates via the MCP Streamable HTTP protocol.
	// It is the default when a server only declares a URL.
	TransportStreamableHTTP Transport = "streamable-http"

	// TransportSSE communicates via the legacy HTTP+SSE protocol.
	TransportSSE Transport = "sse"

	// TransportStdio spawns a subprocess and communicates over stdin/stdout.
	TransportStdio Transport = "stdio"
)

// IsValid reports whether t is a recognised transport.
func (t Transport) IsValid() bool {
	switch t {
	case TransportStreamableHTTP, TransportSSE, TransportStdio:
		return true
	}
	return false
}

// ServerConfig describes how to reach a single MCP server.
type ServerConfig struct {
	// Name is the registry key. It doubles as the function name offered to
	// the planner, so it must already be a valid function identifier.
	Name string

	// URL is the endpoint address for HTTP based transports.
	// Example: "https://tools.example.com/mcp"
	URL string

	// Transport specifies the connection mechanism. Empty means
	// [TransportStreamableHTTP].
	Transport Transport

	// Command is the executable (and optional arguments) launched when
	// Transport is "stdio".
	Command string

	// Env holds additional environment variables for stdio servers. May be nil.
	Env map[string]string
}

// EffectiveTransport returns the transport to use, applying the default.
func (c ServerConfig) EffectiveTransport() Transport {
	if c.Transport == "" {
		return TransportStreamableHTTP
	}
	return c.Transport
}

// Registry is an ordered set of [ServerConfig] values keyed by name.
// Iteration order is insertion order. A nil *Registry is valid and empty.
type Registry struct {
	order   []string
	servers map[string]ServerConfig
}

// NewRegistry builds a Registry from servers, preserving their order.
// Returns an error if a name is empty or appears twice.
func NewRegistry(servers ...ServerConfig) (*Registry, error) {
	r := &Registry{servers: make(map[string]ServerConfig, len(servers))}
	for _, s := range servers {
		if err := r.add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(s ServerConfig) error {
	if s.Name == "" {
		return fmt.Errorf("mcp: server name must not be empty")
	}
	if _, dup := r.servers[s.Name]; dup {
		return fmt.Errorf("mcp: duplicate server name %q", s.Name)
	}
	r.order = append(r.order, s.Name)
	r.servers[s.Name] = s
	return nil
}

// Lookup returns the server registered under name.
func (r *Registry) Lookup(name string) (ServerConfig, bool) {
	if r == nil {
		return ServerConfig{}, false
	}
	s, ok := r.servers[name]
	return s, ok
}

// Servers returns all servers in registry order.
func (r *Registry) Servers() []ServerConfig {
	if r == nil {
		return nil
	}
	out := make([]ServerConfig, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.servers[name])
	}
	return out
}

// Len returns the number of registered servers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// FunctionDefinition is a callable-function descriptor handed to the planner.
type FunctionDefinition struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict"`
}

// OutputType is the record type of every [OutputRecord].
const OutputType = "function_call_output"

// OutputRecord is the function-call-output value returned to the agent loop.
type OutputRecord struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`

	// Output is either the caller's raw argument string (when the call could
	// not be routed) or a JSON encoded [ToolOutput].
	Output string `json:"output"`
}

// ToolOutput is the structured payload embedded in [OutputRecord.Output]
// after a tool was invoked.
type ToolOutput struct {
	Output   string       `json:"output"`
	Metadata CallMetadata `json:"metadata"`
}

// CallMetadata describes how a tool invocation ended.
type CallMetadata struct {
	// ExitCode is 0 on success and 1 when the remote call failed.
	ExitCode int `json:"exit_code"`

	// DurationSeconds is the elapsed time rounded to one decimal place.
	DurationSeconds float64 `json:"duration_seconds"`
}
