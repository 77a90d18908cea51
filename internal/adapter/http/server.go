// Package http exposes the operational endpoints and the small release
// management API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

// ReleaseService is the orchestrator surface the API needs.
type ReleaseService interface {
	CheckReadiness(ctx context.Context) error
	CreateRelease(ctx context.Context, rel domain.ReleaseEvent) (domain.ReleaseEvent, error)
	StopRelease(ctx context.Context, releaseID string, status domain.ReleaseStatus) error
	ForceRecalculate(ctx context.Context, releaseID string) error
}

// Server exposes health, readiness, metrics, and release HTTP endpoints.
type Server struct {
	httpServer *http.Server
	service    ReleaseService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /releases routes.
func NewServer(addr string, service ReleaseService, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /releases", s.handleCreateRelease)
	mux.HandleFunc("DELETE /releases/{id}", s.handleStopRelease)
	mux.HandleFunc("POST /releases/{id}/recalculate", s.handleRecalculate)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleCreateRelease(w http.ResponseWriter, r *http.Request) {
	var rel domain.ReleaseEvent
	if err := json.NewDecoder(r.Body).Decode(&rel); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	created, err := s.service.CreateRelease(r.Context(), rel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleStopRelease(w http.ResponseWriter, r *http.Request) {
	status := domain.ReleaseStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StatusCancelled
	}
	if status != domain.StatusCompleted && status != domain.StatusCancelled {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be completed or cancelled"})
		return
	}

	if err := s.service.StopRelease(r.Context(), r.PathValue("id"), status); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ForceRecalculate(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recalculated"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrReleaseNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCoordinates),
		errors.Is(err, domain.ErrInvalidRelease),
		errors.Is(err, domain.ErrInsufficientSourceData):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
