package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/db"
	"github.com/thatsimonsguy/filtration-controller/internal/command"
	"github.com/thatsimonsguy/filtration-controller/internal/status"
)

type Server struct {
	tracker  *status.Tracker
	queue    *command.Queue
	db       *sql.DB
	registry *prometheus.Registry
	srv      *http.Server
}

type CommandRequest struct {
	Command string `json:"command"`
}

type CommandResponse struct {
	Queued  string `json:"queued"`
	Pending int    `json:"pending"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	Session    string `json:"session"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
	OccurredAt string `json:"occurred_at"`
	RecordedAt string `json:"recorded_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer serves the tracker's latest snapshot and feeds commands into
// queue. database may be nil, in which case /api/events is not served.
func NewServer(tracker *status.Tracker, queue *command.Queue, database *sql.DB, registry *prometheus.Registry) *Server {
	return &Server{
		tracker:  tracker,
		queue:    queue,
		db:       database,
		registry: registry,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(cors)

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/command", s.postCommand).Methods(http.MethodPost)
	r.HandleFunc("/api/commands", s.listCommands).Methods(http.MethodGet)
	if s.db != nil {
		r.HandleFunc("/api/events", s.getEvents).Methods(http.MethodGet)
	}
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		next.ServeHTTP(w, r)
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("address", addr).Msg("Starting REST API server")

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.tracker.Snapshot(); !ok {
		s.writeError(w, http.StatusServiceUnavailable, "No tick completed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.tracker.Snapshot()
	if !ok {
		s.writeError(w, http.StatusServiceUnavailable, "No tick completed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) postCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cmd, err := command.Parse(req.Command)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.queue.Push(cmd) {
		s.writeError(w, http.StatusServiceUnavailable, "Command queue full")
		return
	}

	log.Info().Str("command", cmd.String()).Str("remote", r.RemoteAddr).Msg("Command received over API")
	s.writeJSON(w, http.StatusAccepted, CommandResponse{Queued: cmd.String(), Pending: s.queue.Len()})
}

func (s *Server) listCommands(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, command.Names())
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	var (
		events []db.Event
		err    error
	)
	if session := r.URL.Query().Get("session"); session != "" {
		events, err = db.EventsBySession(s.db, session)
	} else {
		events, err = db.RecentEvents(s.db, limit)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load events")
		s.writeError(w, http.StatusInternalServerError, "Failed to load events")
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, EventResponse{
			ID:         e.ID,
			Session:    e.SessionID,
			Kind:       e.Kind,
			Detail:     e.Detail,
			OccurredAt: e.OccurredAt,
			RecordedAt: e.RecordedAt.Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
