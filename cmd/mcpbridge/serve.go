package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/mcpbridge/internal/gateway"
	"github.com/MrWong99/mcpbridge/internal/observe"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve function schemas and call routing over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, opts.configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if listenAddr == "" {
				listenAddr = rt.cfg.Server.ListenAddr
			}
			metrics := observe.DefaultMetrics()
			servers := []*http.Server{{
				Addr:              listenAddr,
				Handler:           gateway.New(rt.router, metrics, rt.logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}}
			if addr := rt.cfg.Server.MetricsAddr; addr != "" {
				servers = append(servers, &http.Server{
					Addr:              addr,
					Handler:           observe.MetricsHandler(metrics),
					ReadHeaderTimeout: 10 * time.Second,
				})
			}

			errCh := make(chan error, len(servers))
			for _, srv := range servers {
				go func() {
					rt.logger.Info("listening", "addr", srv.Addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
				}()
			}
			rt.logger.Info("gateway ready, press Ctrl+C to shut down", "servers", rt.router.Registry().Len())

			var runErr error
			select {
			case <-ctx.Done():
				rt.logger.Info("shutdown signal received, stopping")
			case runErr = <-errCh:
				rt.logger.Error("server error", "err", runErr)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			for _, srv := range servers {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					rt.logger.Warn("http shutdown", "addr", srv.Addr, "err", err)
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default: server.listen_addr from config)")
	return cmd
}
