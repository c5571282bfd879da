// Package diag implements the ambient diagnostics surface (health, current
// status snapshot, Prometheus metrics, and the notification websocket) on
// a gorilla/mux.Router wrapping a thin set of handlers. It deliberately
// stops short of a full web/REST control API (mode/setpoint changes go
// through the shared-state files directly) — that's the web UI's job —
// but a read-only status surface and the metrics pipeline are ambient
// operational concerns worth carrying regardless.
package diag

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pifire-go/pifire-core/internal/notify"
	"github.com/pifire-go/pifire-core/internal/store"
)

// Server is the diagnostics HTTP surface.
type Server struct {
	router *mux.Router

	control *store.ControlStore
	hub     *notify.Hub

	Metrics *Metrics

	errLog, infoLog *log.Logger
}

func NewServer(control *store.ControlStore, hub *notify.Hub, errLog, infoLog *log.Logger) *Server {
	if errLog == nil {
		errLog = log.Default()
	}
	if infoLog == nil {
		infoLog = log.Default()
	}
	reg := prometheus.NewRegistry()
	s := &Server{
		control: control,
		hub:     hub,
		Metrics: NewMetrics(reg),
		errLog:  errLog,
		infoLog: infoLog,
	}
	s.routes(reg)
	return s
}

func (s *Server) routes(reg *prometheus.Registry) {
	s.router = mux.NewRouter()
	s.router.HandleFunc("/healthz", s.handleHealthz()).Methods(http.MethodGet)
	s.router.HandleFunc("/statusz", s.handleStatusz()).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeHTTP)
	}
}

func (s *Server) handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// handleStatusz returns the current Control snapshot as JSON, a read-only
// diagnostics view distinct from the out-of-scope control/REST API.
func (s *Server) handleStatusz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := s.control.Read()
		if err != nil {
			s.errLog.Printf("diag: statusz read failed: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		payload, err := json.Marshal(ctrl)
		if err != nil {
			s.errLog.Printf("diag: statusz marshal failed: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
