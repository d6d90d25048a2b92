package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/MrWong99/mcpbridge/internal/buildinfo"
	"github.com/MrWong99/mcpbridge/internal/config"
	"github.com/MrWong99/mcpbridge/internal/mcp/mcpclient"
	"github.com/MrWong99/mcpbridge/internal/mcp/router"
	"github.com/MrWong99/mcpbridge/internal/observe"
)

// shutdownTimeout bounds telemetry flushing and server shutdown.
const shutdownTimeout = 15 * time.Second

// runtime bundles what every subcommand needs: configuration, logger and a
// router over the configured servers.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	router  *router.Router
	version string

	shutdownTelemetry func(context.Context) error
}

// setup loads the configuration at path and wires the logger, telemetry
// providers and router. Callers must call close.
func setup(ctx context.Context, path string) (*runtime, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q not found, copy configs/example.yaml to get started", path)
		}
		return nil, err
	}

	logger := newLogger(cfg.Server, os.Stderr)
	slog.SetDefault(logger)

	version := cfg.Identity.Version
	if version == "" {
		version = buildinfo.ResolvedVersion()
	}

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	reg, err := cfg.Registry()
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	origin := buildinfo.ResolvedOrigin(cfg.Identity.Origin)
	connector := mcpclient.New(origin, version)

	logger.Debug("mcpbridge initialised",
		"build", buildinfo.String(),
		"origin", origin,
		"servers", reg.Len(),
	)

	return &runtime{
		cfg:               cfg,
		logger:            logger,
		router:            router.New(reg, connector, router.WithLogger(logger)),
		version:           version,
		shutdownTelemetry: shutdown,
	}, nil
}

// close releases every MCP session and flushes telemetry.
func (rt *runtime) close() {
	if err := rt.router.Close(); err != nil {
		rt.logger.Warn("closing mcp sessions", "err", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rt.shutdownTelemetry(ctx); err != nil {
		rt.logger.Warn("telemetry shutdown", "err", err)
	}
}

// newLogger builds the process logger from the server settings.
func newLogger(cfg config.ServerConfig, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch cfg.LogLevel {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.LogFormat == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
