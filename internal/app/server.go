package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

type namedServer struct {
	name string
	srv  *http.Server
}

func (a *App) servers() []namedServer {
	return []namedServer{
		{name: "HTTP Server", srv: a.httpServer},
		{name: "SSE Server", srv: a.sseServer},
	}
}

// Start launches the HTTP and SSE servers and returns a channel closed once a
// termination signal arrives.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	for _, s := range a.servers() {
		go func() {
			slog.Info("server listening", "name", s.name, "address", s.srv.Addr)

			if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to listen and serve", "name", s.name, "error", err)
				os.Exit(1)
			}
		}()
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		<-sigint
		a.cancel()
		close(terminateChan)

		slog.Info("application gracefully shutdown")
	}()

	return terminateChan
}

// Serve runs the HTTP server on the provided listener. Used by tests.
func (a *App) Serve(l net.Listener) <-chan error {
	return serveOn(a.httpServer, l)
}

// ServeSSE runs the SSE server on the provided listener. Used by tests.
func (a *App) ServeSSE(l net.Listener) <-chan error {
	return serveOn(a.sseServer, l)
}

func serveOn(srv *http.Server, l net.Listener) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- srv.Serve(l)
		close(errChan)
	}()

	return errChan
}

// Stop cancels background work, drains the servers and the goroutine manager,
// then releases resources in order.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	for _, s := range a.servers() {
		if err := s.srv.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", s.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "waiting for all goroutine to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}
