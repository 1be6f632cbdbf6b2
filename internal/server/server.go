// Package server exposes the merge pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz     liveness probe
//	GET  /version     build information
//	POST /v1/merge    mapping document for every requested platform
//	POST /v1/inspect  diagnostic document for every requested platform
//	POST /v1/graph    DOT or SVG of one platform's final-library graph
//
// Request bodies carry the merge configuration and the graph document:
//
//	{"config": {"merge_sequence": [...]}, "graph": {"platforms": {...}}, "platforms": ["arm64"]}
//
// Every response carries an X-Run-ID header that also tags the request's
// log lines. Errors are JSON objects {"code", "message"}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nativemerge/pkg/pipeline"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// DefaultMaxBodyBytes limits request bodies.
const DefaultMaxBodyBytes = 32 << 20

// Server serves merge requests.
type Server struct {
	Runner       *pipeline.Runner
	Logger       *log.Logger
	MaxBodyBytes int64

	httpServer *http.Server
}

// New creates a server listening on addr. An empty addr means DefaultAddr.
func New(addr string, runner *pipeline.Runner, logger *log.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	s := &Server{
		Runner:       runner,
		Logger:       logger,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.runID)
	r.Use(s.requestLog)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/merge", s.handleMerge)
		r.Post("/inspect", s.handleInspect)
		r.Post("/graph", s.handleGraph)
	})
	return r
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Logger.Info("shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}
