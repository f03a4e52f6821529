// Package server hosts the two HTTP services: the Bridge API and the
// Scanner API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
)

// HTTPServer serves HTTP on a TCP listener with graceful shutdown.
// Serve(ctx) blocks until the context is cancelled and active requests
// drain.
type HTTPServer struct {
	name    string
	address string
	handler http.Handler
	log     *logger.Logger

	shutdownTimeout time.Duration

	// ready is closed after the listener is bound.
	ready chan struct{}

	// addr is the resolved listen address, valid after ready is closed.
	addr net.Addr
}

// NewHTTPServer creates a named server for address (e.g. ":8090"). The
// name only appears in logs.
func NewHTTPServer(name, address string, handler http.Handler, log *logger.Logger) *HTTPServer {
	return &HTTPServer{
		name:            name,
		address:         address,
		handler:         handler,
		log:             log,
		shutdownTimeout: 10 * time.Second,
		ready:           make(chan struct{}),
	}
}

// Ready returns a channel that is closed once the listener is bound.
func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Only valid after Ready() is
// closed; useful when the address uses port 0.
func (s *HTTPServer) Addr() net.Addr {
	return s.addr
}

// Serve accepts connections until ctx is cancelled, then shuts down
// gracefully, waiting up to the shutdown timeout for in-flight requests.
func (s *HTTPServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute, // scan and sync requests run the work inline
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info("http server listening", "server", s.name, "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("http server shutting down", "server", s.name)
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.log.Info("http server stopped", "server", s.name)
	return nil
}
