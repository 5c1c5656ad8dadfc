package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = defaultReadTimeout
	defaultShutdownTimeout = 30 * time.Second
)

// Server wraps http.Server: on SIGINT or SIGTERM it stops accepting requests,
// drains the ones in flight and then runs the shutdown hooks.
type Server struct {
	*http.Server
	ShutdownTimeout time.Duration

	signals  chan os.Signal
	done     chan struct{}
	cleanups []func()
}

// GraceServer creates a Server with default timeouts.
func GraceServer(addr string, handler http.Handler) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       defaultReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      defaultWriteTimeout,
		},
		ShutdownTimeout: defaultShutdownTimeout,
		signals:         make(chan os.Signal, 1),
		done:            make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the HTTP server stopped accepting
// requests, e.g. closing the database pool.
func (srv *Server) OnShutdown(fn func()) {
	srv.cleanups = append(srv.cleanups, fn)
}

// ListenAndServe serves plain HTTP until a shutdown signal arrives. It
// returns nil after a graceful shutdown.
func (srv *Server) ListenAndServe() error {
	ln, err := srv.listen(":http")
	if err != nil {
		return err
	}
	return srv.serve(func() error { return srv.Server.Serve(ln) })
}

// ListenAndServeTLS is ListenAndServe over TLS.
func (srv *Server) ListenAndServeTLS(certFile, keyFile string) error {
	ln, err := srv.listen(":https")
	if err != nil {
		return err
	}
	return srv.serve(func() error { return srv.Server.ServeTLS(ln, certFile, keyFile) })
}

func (srv *Server) listen(fallback string) (net.Listener, error) {
	addr := srv.Addr
	if addr == "" {
		addr = fallback
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *Server) serve(run func() error) error {
	signal.Notify(srv.signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(srv.signals)

	stop := make(chan struct{})
	defer close(stop)
	go srv.waitForSignal(stop)

	if err := run(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-srv.done
	return nil
}

func (srv *Server) waitForSignal(stop <-chan struct{}) {
	select {
	case sig := <-srv.signals:
		Sugar.Infof("received %s, graceful shutting down HTTP server", sig)
		srv.shutdown()
	case <-stop:
	}
}

func (srv *Server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server shutdown success")
	}
	for _, fn := range srv.cleanups {
		fn()
	}
	close(srv.done)
}
