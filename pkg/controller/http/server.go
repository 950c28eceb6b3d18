// Package http serves the health endpoint used by schedulers and container
// orchestrators to probe a long-running watch process.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type config struct {
	addr     string
	lastPoll func() time.Time
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithLastPoll supplies the timestamp of the most recent completed poll
// cycle for the health response.
func WithLastPoll(f func() time.Time) Option {
	return func(c *config) {
		c.lastPoll = f
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(ctx context.Context, opts ...Option) (*Server, error) {
	cfg := &config{
		addr: "localhost:8080",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth(cfg.lastPoll))

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
