// Package server exposes page editing over HTTP.
//
// Every request loads a fresh editor for its page from the store, so no
// editing state is shared between requests. Responses are JSON except for
// the SVG preview; errors are {"code": ..., "message": ...} with a status
// derived from the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/linkgrid/pkg/buildinfo"
	"github.com/matzehuels/linkgrid/pkg/cache"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/preview"
	"github.com/matzehuels/linkgrid/pkg/store"
)

// Config holds the server's collaborators.
type Config struct {
	Store  store.Store
	Layout grid.Options
	Cache  cache.Cache // nil disables caching
	Keyer  cache.Keyer // nil uses cache.DefaultKeyer
	Logger *log.Logger
}

// Server is the HTTP API.
type Server struct {
	store   store.Store
	layout  grid.Options
	cache   cache.Cache
	keyer   cache.Keyer
	preview *preview.Runner
	logger  *log.Logger
}

// New creates a server.
func New(cfg Config) *Server {
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.Keyer == nil {
		cfg.Keyer = cache.NewDefaultKeyer()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	cfg.Layout.SetDefaults()
	return &Server{
		store:   cfg.Store,
		layout:  cfg.Layout,
		cache:   cfg.Cache,
		keyer:   cfg.Keyer,
		preview: preview.NewRunner(cfg.Cache, cfg.Keyer, cfg.Logger),
		logger:  cfg.Logger,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(serverHeader)

	r.Get("/healthz", s.handleHealth)

	r.Route("/pages/{page}", func(r chi.Router) {
		r.Get("/widgets", s.handleList)
		r.Post("/widgets", s.handleAdd)
		r.Post("/widgets/{id}/preview", s.handlePreview)
		r.Put("/widgets/{id}/position", s.handleMove)
		r.Put("/widgets/{id}/size", s.handleResize)
		r.Delete("/widgets/{id}", s.handleDelete)
		r.Post("/arrange", s.handleArrange)
		r.Get("/check", s.handleCheck)
		r.Get("/preview.svg", s.handlePreviewSVG)
	})
	return r
}

// Timeouts bounds the HTTP server.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within t.Shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string, t Timeouts) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  t.Read,
		WriteTimeout: t.Write,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), t.Shutdown)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func serverHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", buildinfo.ServerHeader())
		next.ServeHTTP(w, r)
	})
}
