// Package config provides the configuration schema and loader for mcpbridge.
package config

import (
	"fmt"

	"github.com/MrWong99/mcpbridge/internal/mcp"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	return f == LogFormatText || f == LogFormatJSON
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr = ":8080"
	DefaultModel      = "gpt-4.1"
	DefaultMaxTurns   = 8
)

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Identity  IdentityConfig  `yaml:"identity"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// ServerConfig holds listener and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the gateway listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFormat selects text or JSON log output. Default: text.
	LogFormat LogFormat `yaml:"log_format"`

	// MetricsAddr is the TCP address serving /metrics (e.g., ":9464").
	// Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// IdentityConfig is the client identity announced to MCP servers.
type IdentityConfig struct {
	// Origin is the client name. The MCPBRIDGE_ORIGINATOR environment
	// variable takes precedence.
	Origin string `yaml:"origin"`

	// Version overrides the build version.
	Version string `yaml:"version"`
}

// TelemetryConfig configures OpenTelemetry.
type TelemetryConfig struct {
	// ServiceName is reported as service.name. Default: "mcpbridge".
	ServiceName string `yaml:"service_name"`
}

// OpenAIConfig configures the agent loop's model access.
type OpenAIConfig struct {
	// APIKey authenticates against the API. Falls back to OPENAI_API_KEY
	// inside the SDK when empty.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects the responses model (e.g., "gpt-4.1").
	Model string `yaml:"model"`

	// Instructions is the system prompt sent with every request.
	Instructions string `yaml:"instructions"`

	// MaxTurns bounds the number of model round trips per prompt.
	MaxTurns int `yaml:"max_turns"`
}

// MCPConfig holds the list of MCP servers exposed to the agent.
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig describes how to connect to a single MCP tool server.
type MCPServerConfig struct {
	// Name is the unique server identifier. It is offered to the planner as
	// a function name and should match ^[a-zA-Z0-9_-]+$.
	Name string `yaml:"name"`

	// URL is the MCP endpoint address for HTTP based transports.
	URL string `yaml:"url"`

	// Transport specifies the connection mechanism. Default: streamable-http.
	Transport mcp.Transport `yaml:"transport"`

	// Command is the executable (with optional arguments) launched when
	// Transport is "stdio".
	Command string `yaml:"command"`

	// Env holds additional environment variables for stdio servers.
	Env map[string]string `yaml:"env"`
}

// ApplyDefaults fills zero values with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = LogFormatText
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = DefaultModel
	}
	if c.OpenAI.MaxTurns == 0 {
		c.OpenAI.MaxTurns = DefaultMaxTurns
	}
}

// Registry builds the ordered server registry from c.MCP.Servers.
func (c *Config) Registry() (*mcp.Registry, error) {
	servers := make([]mcp.ServerConfig, 0, len(c.MCP.Servers))
	for _, s := range c.MCP.Servers {
		servers = append(servers, mcp.ServerConfig{
			Name:      s.Name,
			URL:       s.URL,
			Transport: s.Transport,
			Command:   s.Command,
			Env:       s.Env,
		})
	}
	reg, err := mcp.NewRegistry(servers...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return reg, nil
}
