// Package health serves the liveness endpoint used by hosting platforms.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/budgetbot/core/logger"
)

// Body is the response to a liveness probe.
const Body = "Bot is running"

const shutdownTimeout = 5 * time.Second

// Handler answers "/" and "/health" with 200 and everything else with 404.
func Handler() http.Handler {
	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(Body))
	}
	mux.HandleFunc("/health", ok)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		ok(w, r)
	})
	return mux
}

// Server is a liveness HTTP server.
type Server struct {
	srv  *http.Server
	addr string
}

// NewServer builds a server listening on listen:port.
func NewServer(listen string, port int) *Server {
	addr := net.JoinHostPort(listen, fmt.Sprint(port))
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start listens in the background. It returns once the socket is bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("health: listen %s: %w", s.addr, err)
	}
	logger.HTTP.LogAttrs(ctx, slog.LevelInfo, "health.listen", slog.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.LogAttrs(ctx, slog.LevelError, "health.serve", slog.String("err", err.Error()))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
