package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lormic/ecomax360/internal/logging"
	"github.com/lormic/ecomax360/internal/poller"
)

// Server exposes the poller's snapshots over HTTP and WebSocket.
type Server struct {
	addr   string
	poller *poller.Poller
	log    *zap.Logger
	http   *http.Server
}

// New creates a server publishing snapshots from p on addr.
func New(addr string, p *poller.Poller) *Server {
	s := &Server{
		addr:   addr,
		poller: p,
		log:    logging.GetLogger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /values", s.handleValues)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("http server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleValues serves the latest snapshot as JSON.
func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	snapshot := s.poller.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	if snapshot.UpdatedAt.IsZero() {
		// No cycle has completed yet.
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		s.log.Error("failed to encode snapshot",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
	}
}

// handleHealth reports liveness and data freshness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.poller.Snapshot()

	status := http.StatusOK
	state := "ok"
	switch {
	case snapshot.UpdatedAt.IsZero():
		status = http.StatusServiceUnavailable
		state = "no data"
	case snapshot.Stale:
		status = http.StatusServiceUnavailable
		state = "stale"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": state})
}
