// Package server exposes health probes, menu previews and manual run triggers over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/menumail/internal/delivery"
	"github.com/dmitrymomot/menumail/internal/pipeline"
	"github.com/dmitrymomot/menumail/internal/tasks"
	"github.com/dmitrymomot/menumail/pkg/health"
	"github.com/dmitrymomot/menumail/pkg/logger"
)

const (
	defaultAddr              = ":8080"
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 60 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Config holds listener settings.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	// APIToken guards the /runs routes. Without it they are not mounted.
	APIToken string
}

// Previewer renders a menu without sending it. *pipeline.Runner implements it.
type Previewer interface {
	Preview(ctx context.Context, req pipeline.Request) (*pipeline.Prepared, error)
}

// DeliveryLister lists recent runs. *delivery.Repository implements it.
type DeliveryLister interface {
	List(ctx context.Context, limit int) ([]*delivery.Delivery, error)
}

// Deps are the collaborators behind the routes. Enqueuer and Deliveries are optional;
// their routes are not mounted when nil or when Config.APIToken is empty.
type Deps struct {
	Previewer  Previewer
	Enqueuer   tasks.Enqueuer
	Deliveries DeliveryLister
	Checks     health.Checks
	Location   *time.Location
}

// Server is the HTTP surface of serve mode.
type Server struct {
	cfg           Config
	deps          Deps
	logger        *slog.Logger
	startupHooks  []func(context.Context) error
	shutdownHooks []func(context.Context) error
	router        chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStartupHook runs fn after the listener is bound, before serving. A failing hook aborts Run.
func WithStartupHook(fn func(context.Context) error) Option {
	return func(s *Server) {
		s.startupHooks = append(s.startupHooks, fn)
	}
}

// WithShutdownHook runs fn after the HTTP server stopped. Hooks run in registration order.
func WithShutdownHook(fn func(context.Context) error) Option {
	return func(s *Server) {
		s.shutdownHooks = append(s.shutdownHooks, fn)
	}
}

// New builds the router.
func New(cfg Config, deps Deps, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}

	s := &Server{cfg: cfg, deps: deps, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(Recover(s.logger))

	r.Get("/healthz", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(s.deps.Checks, health.WithLogger(s.logger)))

	r.Group(func(r chi.Router) {
		r.Use(AccessLog(s.logger))

		if s.deps.Previewer != nil {
			r.Get("/preview", s.handlePreview)
			r.Get("/preview/{date}", s.handlePreview)
		}
		if s.cfg.APIToken == "" {
			if s.deps.Enqueuer != nil || s.deps.Deliveries != nil {
				s.logger.Warn("API_TOKEN is not set, /runs is disabled")
			}
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(BearerToken(s.cfg.APIToken))
			if s.deps.Enqueuer != nil {
				r.Post("/runs", s.handleEnqueueRun)
			}
			if s.deps.Deliveries != nil {
				r.Get("/runs", s.handleListRuns)
			}
		})
	})

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled or SIGINT/SIGTERM arrives, then shuts the
// server down gracefully and runs the shutdown hooks.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Listen first to get actual address
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	for _, hook := range s.startupHooks {
		if err := hook(ctx); err != nil {
			_ = ln.Close()
			return errors.Join(err, s.shutdown(server))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Join(err, s.shutdown(server))
	case <-ctx.Done():
	}

	return s.shutdown(server)
}

func (s *Server) shutdown(server *http.Server) error {
	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	for _, hook := range s.shutdownHooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			s.logger.Error("shutdown hook failed", slog.Any("error", err))
		}
	}

	if len(errs) > 0 {
		s.logger.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}

	s.logger.Info("shutdown completed")
	return nil
}
