//
//
package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/visitor-flow/vfc/internal/audit"
)

// Router registers every endpoint.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	apiV1.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	apiV1.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	apiV1.HandleFunc("/events", s.handleSubmit).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}

// handleStats handles GET /stats with the bare snapshot shape.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ingest.Current(r.Context()))
}

// handleSubmit handles POST /api/v1/events
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := audit.WithSource(r.Context(), r.RemoteAddr, "http")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxMessageBytes()))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.ingest.Reject(ctx, ErrPayloadTooLarge)
			WriteAPIError(w, ErrPayloadTooLarge)
			return
		}
		WriteAPIError(w, ErrBadRequest)
		return
	}

	snapshot, err := s.ingest.Submit(ctx, body)
	if err != nil {
		WriteAPIError(w, err)
		return
	}

	WriteAccepted(w, snapshot)
}

// handleHealth handles GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	subsystems := map[string]bool{
		"ingest": s.ingest != nil,
		"hub":    s.hub != nil,
	}

	overallStatus := "ok"
	for _, healthy := range subsystems {
		if !healthy {
			overallStatus = "degraded"
		}
	}

	subscribers := 0
	if s.hub != nil {
		subscribers = s.hub.Connected()
	}

	health := map[string]interface{}{
		"status":      overallStatus,
		"uptimeSec":   time.Since(s.startTime).Seconds(),
		"version":     s.version,
		"subscribers": subscribers,
		"subsystems":  subsystems,
	}

	if overallStatus == "ok" {
		WriteSuccess(w, health)
		return
	}
	WriteError(w, http.StatusServiceUnavailable, "SERVICE_DEGRADED",
		"One or more subsystems are unavailable", health)
}

func (s *Server) maxMessageBytes() int64 {
	if s.ingress.MaxMessageKB <= 0 {
		return 4 << 10
	}
	return s.ingress.MaxMessageKB << 10
}
