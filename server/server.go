package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"price_radar/models"
	"price_radar/monitor"
	"price_radar/storage"
)

// MonitorRunner and QueryParser are the two capabilities the HTTP surface
// exposes; production wires the orchestrator and the ai parser.
type MonitorRunner interface {
	RunOne(ctx context.Context, id uuid.UUID) (*monitor.RunStats, error)
}

type QueryParser interface {
	ParseQuery(ctx context.Context, queryText string) (*models.StructuredQuery, error)
}

type Server struct {
	runner MonitorRunner
	parser QueryParser
	http   *http.Server
}

func New(addr string, runner MonitorRunner, parser QueryParser) *Server {
	s := &Server{runner: runner, parser: parser}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", s.handleHealth)
	r.Post("/run-monitor", s.handleRunMonitor)
	r.Post("/parse-query", s.handleParseQuery)

	s.http = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Start() error {
	log.Printf("HTTP: listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type runMonitorRequest struct {
	MonitorID string `json:"monitorId"`
}

type runMonitorResponse struct {
	Success     bool `json:"success"`
	OffersFound int  `json:"offersFound"`
}

func (s *Server) handleRunMonitor(w http.ResponseWriter, r *http.Request) {
	var req runMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := uuid.Parse(req.MonitorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid monitorId")
		return
	}

	stats, err := s.runner.RunOne(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "monitor not found")
		return
	case errors.Is(err, monitor.ErrNotActive):
		writeError(w, http.StatusConflict, "monitor is not active")
		return
	case err != nil:
		log.Printf("HTTP: run-monitor %s failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, runMonitorResponse{
		Success:     true,
		OffersFound: stats.OffersNew,
	})
}

type parseQueryRequest struct {
	QueryText string `json:"queryText"`
}

func (s *Server) handleParseQuery(w http.ResponseWriter, r *http.Request) {
	var req parseQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.QueryText == "" {
		writeError(w, http.StatusBadRequest, "queryText is required")
		return
	}

	parsed, err := s.parser.ParseQuery(r.Context(), req.QueryText)
	if err != nil {
		log.Printf("HTTP: parse-query failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, parsed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("HTTP: failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
