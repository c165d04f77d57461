// Package server implements the scenebox HTTP API.
//
// Routes:
//
//	GET  /healthz                 liveness and cache status
//	POST /v1/render?format=png    scene body in, rendered artifact out
//	POST /v1/layout               scene body in, placements JSON out
//
// The scene is the request body, TOML or HCL as chosen by the Content-Type
// (application/toml, application/hcl) or the "scene_format" query
// parameter. Every response carries an X-Request-ID header. Failures are
// JSON documents holding the error code from pkg/errors.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/scenebox/pkg/buildinfo"
	"github.com/matzehuels/scenebox/pkg/cache"
	"github.com/matzehuels/scenebox/pkg/pipeline"
)

// Defaults for Config fields left zero.
const (
	DefaultAddr           = ":8080"
	DefaultMaxBodyBytes   = 1 << 20
	DefaultRequestTimeout = 30 * time.Second
	shutdownTimeout       = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr string

	// Cache stores layouts and artifacts. Nil disables caching.
	Cache cache.Cache

	// TTL overrides the cache lifetimes when positive.
	TTL time.Duration

	// AssetDir is where image nodes are resolved. When empty, scenes may
	// not reference images.
	AssetDir string

	MaxBodyBytes   int64
	RequestTimeout time.Duration

	Logger *log.Logger
}

// Server serves the HTTP API on top of a pipeline.Runner.
type Server struct {
	cfg      Config
	runner   *pipeline.Runner
	router   chi.Router
	logger   *log.Logger
	assetDir string
	tmpDir   string // private empty asset dir, removed by Close
}

// New builds a server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{cfg: cfg, logger: cfg.Logger.WithPrefix("server"), assetDir: cfg.AssetDir}
	if s.assetDir == "" {
		dir, err := os.MkdirTemp("", "scenebox-assets-")
		if err != nil {
			return nil, fmt.Errorf("create asset dir: %w", err)
		}
		s.assetDir, s.tmpDir = dir, dir
	}

	// Renders may change between releases, so entries are scoped by version.
	keyer := cache.NewScopedKeyer(nil, buildinfo.Version+":")
	s.runner = pipeline.NewRunner(cfg.Cache, keyer, cfg.Logger)
	s.runner.TTL = cfg.TTL
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Post("/render", s.handleRender)
		r.Post("/layout", s.handleLayout)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Runner exposes the pipeline runner shared by all requests.
func (s *Server) Runner() *pipeline.Runner { return s.runner }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the cache and the private asset directory.
func (s *Server) Close() error {
	err := s.runner.Close()
	if s.tmpDir != "" {
		if rmErr := os.RemoveAll(s.tmpDir); err == nil {
			err = rmErr
		}
	}
	return err
}
