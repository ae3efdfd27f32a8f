// Package devsrv hosts the development inspector: an HTTP server exposing a
// store's dependency graph as JSON snapshots, a WebSocket stream of snapshot
// updates, and the Prometheus metrics endpoint. It consumes the store only
// through its public read-only introspection surface.
package devsrv

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atomo-dev/atomo/pkg/atom"
	"github.com/atomo-dev/atomo/pkg/inspect"
)

// Server serves inspection endpoints for a single store.
type Server struct {
	store    *atom.Store
	logger   *slog.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithInterval sets how often the WebSocket stream samples the store.
func WithInterval(d time.Duration) Option {
	return func(s *Server) { s.interval = d }
}

// New creates an inspector for the given store.
func New(store *atom.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		interval: 500 * time.Millisecond,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The inspector is a development tool bound to loopback.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "devsrv")
	}
	return s
}

// Handler returns the HTTP handler:
//
//	GET /api/snapshot  one JSON snapshot of the graph
//	GET /ws            WebSocket stream of snapshots as the graph changes
//	GET /metrics       Prometheus metrics
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/ws", s.handleWS)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(inspect.Snapshot(s.store)); err != nil {
		s.logger.Error("snapshot encode failed", "error", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: the client sends nothing meaningful, but reading surfaces
	// close frames.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		snap := inspect.Snapshot(s.store)
		// Diff on the nodes alone; the timestamp changes every sample.
		nodes, err := json.Marshal(snap.Nodes)
		if err != nil {
			s.logger.Error("snapshot encode failed", "error", err)
			return
		}
		if bytes.Equal(nodes, last) {
			continue
		}
		last = nodes
		payload, err := json.Marshal(snap)
		if err != nil {
			s.logger.Error("snapshot encode failed", "error", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

// ListenAndServe runs the inspector until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("inspector listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
