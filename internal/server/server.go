// Package server exposes the menu pipeline over HTTP.
//
// The API is consumed by the editor page (which previews menus and saves
// PNG exports) and by display screens (which poll for the latest export).
// Static files under the public directory are served at the root.
//
// # Endpoints
//
//	GET  /api/health
//	GET  /api/visibility?svgUrl=
//	GET  /api/menus
//	GET  /api/preview?svgUrl=&visibleIds=a,b
//	POST /api/save-svg[?download=1]
//	GET  /api/latest
//	GET  /api/latest-png
//	GET  /api/exports?limit=
//
// Errors are answered as {"error": message}. Messages of client errors are
// passed through; everything else is logged and answered generically.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/menuboard/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes bounds JSON request bodies.
	DefaultMaxBodyBytes = 5 << 20

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds configuration for the server.
type Config struct {
	Runner          *pipeline.Runner
	Addr            string
	PublicDir       string
	DefaultSVGURL   string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	Logger          *log.Logger
}

// Server serves the menu API.
type Server struct {
	runner          *pipeline.Runner
	addr            string
	publicDir       string
	defaultSVGURL   string
	maxBodyBytes    int64
	shutdownTimeout time.Duration
	logger          *log.Logger
}

// New creates a server instance.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.DefaultSVGURL == "" {
		cfg.DefaultSVGURL = pipeline.DefaultSVGURL
	}
	return &Server{
		runner:          cfg.Runner,
		addr:            cfg.Addr,
		publicDir:       cfg.PublicDir,
		defaultSVGURL:   cfg.DefaultSVGURL,
		maxBodyBytes:    cfg.MaxBodyBytes,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          cfg.Logger,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		s.logRequests,
		middleware.Recoverer,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/visibility", s.handleVisibility)
		r.Get("/menus", s.handleMenus)
		r.Get("/preview", s.handlePreview)
		r.With(s.limitBody).Post("/save-svg", s.handleSaveSVG)
		r.Get("/latest", s.handleLatest)
		r.Get("/latest-png", s.handleLatestPNG)
		r.Get("/exports", s.handleExports)
	})

	if s.publicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.publicDir)))
	}
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server listening", "addr", "http://"+ln.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
