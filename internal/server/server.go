// Package server relays edits between clients of shared documents.
//
// Each document is sequenced by a single Document value: clients send
// updates against the revision they last saw, the server rebases them over
// whatever was accepted since, assigns the next revision and broadcasts the
// result to every client of the document, including the sender, who treats
// it as the acknowledgement.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/bethropolis/collabmd/internal/config"
	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/store"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg      config.ServerConfig
	hub      *Hub
	upgrader websocket.Upgrader
}

func New(cfg config.ServerConfig, st store.Store) *Server {
	return &Server{
		cfg: cfg,
		hub: NewHub(st, Options{
			HistoryLimit:     cfg.HistoryLimit,
			SnapshotDebounce: time.Duration(cfg.SnapshotDebounceMs) * time.Millisecond,
		}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.serveWS).Methods(http.MethodGet)
	r.HandleFunc("/api/docs/{id}", s.getDocument).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnTagf("server", "upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	connectionsGauge.Inc()
	defer connectionsGauge.Dec()

	c := newConn(s.hub, ws)
	logger.DebugTagf("server", "client %s connected from %s", c.id, r.RemoteAddr)
	go c.writePump()
	c.readPump(r.Context())
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := s.hub.Snapshot(r.Context(), id)
	switch {
	case errors.Is(err, ErrUnknownDocument):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		logger.ErrorTagf("server", "snapshot %s: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// Run serves until ctx is cancelled, then shuts down and saves open documents.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on %s", lis.Addr())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if ferr := s.hub.Flush(shutdownCtx); ferr != nil {
			err = errors.Join(err, ferr)
		}
		logger.Infof("server stopped")
		return err
	})
	return g.Wait()
}
