// Package server owns the HTTP listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/matiasleandrokruk/echopicks/internal/infra/config"
	"github.com/matiasleandrokruk/echopicks/internal/infra/logging"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default HTTP server configuration.
func DefaultConfig() Config {
	return FromConfig(config.Default().Server)
}

// FromConfig copies the listener settings out of the application config.
func FromConfig(c config.ServerConfig) Config {
	return Config{
		Host:         c.Host,
		Port:         c.Port,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		IdleTimeout:  c.IdleTimeout,
	}
}

// Server wraps the HTTP server.
type Server struct {
	config Config
	http   *http.Server
}

// NewServer creates a new HTTP server serving handler.
func NewServer(handler http.Handler, config Config) *Server {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           handler,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}

	return &Server{
		config: config,
		http:   httpServer,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.http.Addr }

// Start listens on the configured address and blocks until the server stops.
// A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("server listen %s: %w", s.http.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	logging.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests until
// ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info().Msg("shutting down http server")

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logging.Info().Msg("http server shutdown complete")
	return nil
}
