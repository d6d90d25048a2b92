package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/mcpbridge/internal/config"
	"github.com/MrWong99/mcpbridge/internal/mcp"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Use != "mcpbridge" {
		t.Errorf("Use = %q, want mcpbridge", cmd.Use)
	}
	if !cmd.SilenceUsage {
		t.Error("SilenceUsage = false, want true")
	}
	if f := cmd.PersistentFlags().Lookup("config"); f == nil || f.DefValue != "config.yaml" {
		t.Errorf("config flag = %+v", f)
	}

	found := make(map[string]bool)
	for _, c := range cmd.Commands() {
		found[c.Name()] = true
	}
	for _, want := range []string{"tools", "call", "ask", "serve", "version"} {
		if !found[want] {
			t.Errorf("subcommand %q not registered", want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "mcpbridge ") {
		t.Errorf("output = %q", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(out, "mcpbridge version ") {
		t.Errorf("output = %q", out)
	}
}

func TestCallCommand_MissingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := execute(t, "--config", path, "call", "docs")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCallCommand_ArgCount(t *testing.T) {
	if _, err := execute(t, "call"); err == nil {
		t.Error("expected error for missing server argument")
	}
	if _, err := execute(t, "call", "a", "b", "c"); err == nil {
		t.Error("expected error for too many arguments")
	}
}

// TestToolsCommand is the only test that initialises telemetry; the
// Prometheus exporter registers with the process-wide registry once.
func TestToolsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  log_level: error
mcp:
  servers:
    - name: docs
      url: http://127.0.0.1:1/mcp
    - name: files
      transport: stdio
      command: mcp-files --root /tmp
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	defer slog.SetDefault(slog.Default())

	out, err := execute(t, "--config", path, "tools")
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	var defs []mcp.FunctionDefinition
	if err := json.Unmarshal([]byte(out), &defs); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(defs) != 2 || defs[0].Name != "docs" || defs[1].Name != "files" {
		t.Errorf("defs = %+v", defs)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.ServerConfig
		wantDebug bool
		wantJSON  bool
	}{
		{"default text info", config.ServerConfig{}, false, false},
		{"debug", config.ServerConfig{LogLevel: config.LogDebug}, true, false},
		{"json", config.ServerConfig{LogFormat: config.LogFormatJSON}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(tt.cfg, &buf)
			l.Debug("dbg")
			l.Info("hello", "k", "v")

			out := buf.String()
			if got := strings.Contains(out, "dbg"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.HasPrefix(out, "{") || strings.Contains(out, "\n{"); got != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %q", got, tt.wantJSON, out)
			}
		})
	}
}
