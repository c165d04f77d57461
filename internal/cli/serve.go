package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenebox/internal/server"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		assetDir string
		noCache  bool
		maxBody  int64
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API.

  GET  /healthz
  POST /v1/render?format=png   (TOML or HCL scene as the request body)
  POST /v1/layout

The cache backend comes from the config file; with backend = "redis" the
server shares results through Redis. Image nodes resolve against --assets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), server.Config{
				Addr:           addr,
				AssetDir:       assetDir,
				MaxBodyBytes:   maxBody,
				RequestTimeout: timeout,
			}, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address (default from config)")
	cmd.Flags().StringVar(&assetDir, "assets", "", "directory image nodes are resolved against (default: images disabled)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "largest accepted scene in bytes")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultRequestTimeout, "per-request timeout")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg server.Config, noCache bool) error {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return err
	}
	cfg.Cache = cc
	cfg.TTL = c.Config.Cache.TTL
	cfg.Logger = c.Logger

	srv, err := server.New(cfg)
	if err != nil {
		_ = cc.Close()
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Close()

	backend := c.Config.Cache.Backend
	if noCache {
		backend = BackendNone
	}
	printSuccess("Serving on %s", cfg.Addr)
	printDetail("Cache: %s", backend)
	return srv.ListenAndServe(ctx)
}
