package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reelgen/internal/api"
	"reelgen/internal/deps"
	"reelgen/internal/preflight"
	"reelgen/internal/workflow"
)

const shutdownGrace = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if addr == "" {
				addr = cfg.Paths.APIBind
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ctx.withService(cmd, func(svc *workflow.Service) error {
				server := api.NewServer(api.ServerConfig{
					Addr:         addr,
					Token:        cfg.Paths.APIToken,
					Service:      svc,
					Dependencies: func() []deps.Status { return preflight.CheckSystemDeps(cfg) },
					Logger:       logger,
					StartTime:    time.Now(),
				})
				ln, err := net.Listen("tcp", addr)
				if err != nil {
					return fmt.Errorf("listen on %s: %w", addr, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Serving API on http://%s\n", ln.Addr())

				g, gctx := errgroup.WithContext(sigCtx)
				g.Go(func() error { return server.Serve(ln) })
				g.Go(func() error {
					<-gctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownGrace)
					defer cancel()
					return server.Shutdown(shutdownCtx)
				})
				if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}
