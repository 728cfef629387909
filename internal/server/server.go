// Package server runs the CRM HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"lead-crm/internal/handlers"
	crmmiddleware "lead-crm/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Server wires the middleware stack around the handlers.
type Server struct {
	deps   *handlers.Deps
	addr   string
	logger *slog.Logger
}

func New(deps *handlers.Deps) *Server {
	return &Server{
		deps:   deps,
		addr:   ":" + deps.Config.Port,
		logger: deps.Logger,
	}
}

// Handler builds the router. Exposed for tests.
func (s *Server) Handler() http.Handler {
	cfg := s.deps.Config

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		crmmiddleware.RequestLogger(s.logger),
		middleware.Recoverer,
		crmmiddleware.SecurityHeaders,
		crmmiddleware.CSRF(cfg.CSRFAuthKey(), cfg.SecureCookies, nil),
	)
	handlers.SetupRoutes(r, s.deps)
	return r
}

// Serve blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if err := handlers.InitTemplates(s.logger); err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.logger.Info("server starting", "addr", s.addr, "env", s.deps.Config.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
