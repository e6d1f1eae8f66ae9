package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Health la implementa service.Directory (guilds con servicio activo).
type Health interface {
	Guilds() []string
}

type Server struct {
	mux     *http.ServeMux
	srv     *http.Server
	health  Health
	metrics http.Handler
	log     *slog.Logger
}

func New(addr string, health Health, metrics http.Handler, log *slog.Logger) *Server {
	s := &Server{mux: http.NewServeMux(), health: health, metrics: metrics, log: log}
	s.routes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	guilds := []string{}
	if s.health != nil {
		guilds = s.health.Guilds()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "guilds": guilds})
}

// Start bloquea hasta que el server se cierra; un Shutdown limpio devuelve nil.
func (s *Server) Start() error {
	s.log.Info("http listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
