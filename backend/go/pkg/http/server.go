package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"country_facts/backend/go/internal/config"
	"country_facts/backend/go/pkg/logger"
)

// Server wraps http.Server with the configured timeouts and graceful shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *logger.Logger
}

// ServerOption defines a function for configuring a Server.
type ServerOption func(*Server)

// WithAddress overrides the configured listen address.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// NewServer serves handler on cfg's address. cfg must have passed Validate.
func NewServer(cfg config.ServerConfig, handler http.Handler, log *logger.Logger, opts ...ServerOption) *Server {
	srv := &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      handler,
			ReadTimeout:  config.MustDuration(cfg.ReadTimeout),
			WriteTimeout: config.MustDuration(cfg.WriteTimeout),
		},
		shutdownTimeout: config.MustDuration(cfg.ShutdownTimeout),
		logger:          log,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Addr is the listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	if s.httpServer.Addr == "" {
		return fmt.Errorf("server address is not set")
	}
	s.logger.WithField("address", s.httpServer.Addr).Info("Starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then shuts down within the configured
// shutdown timeout. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
