package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/villu-ctrl/keri-ais-monitor/db"
	embeddednats "github.com/villu-ctrl/keri-ais-monitor/pkg/services/embedded-nats"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/shared"
)

// StatusSource exposes the outcome of the most recent monitoring cycle.
type StatusSource interface {
	LastCycle() (shared.CycleSummary, bool)
}

type Handlers struct {
	db        *db.Service
	bus       *embeddednats.EmbeddedNATS
	status    StatusSource
	exportDir string
}

func NewHandlers(dbService *db.Service, bus *embeddednats.EmbeddedNATS, status StatusSource, exportDir string) *Handlers {
	return &Handlers{
		db:        dbService,
		bus:       bus,
		status:    status,
		exportDir: exportDir,
	}
}

// Status returns the summary of the latest completed cycle.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
		return
	}

	summary, ok := h.status.LastCycle()
	if !ok {
		sendError(w, http.StatusNotFound, "NO_CYCLE", "no monitoring cycle has completed yet")
		return
	}

	sendSuccess(w, http.StatusOK, summary)
}

// HealthCheck reports aggregate health of the database and the event bus.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := shared.HealthStatus{
		Status:    "healthy",
		Service:   "ais-monitor",
		Timestamp: time.Now(),
		Details:   make(map[string]string),
	}

	if err := h.db.Health(); err != nil {
		health.Status = "unhealthy"
		health.Details["database"] = "unhealthy: " + err.Error()
	} else {
		health.Details["database"] = "healthy"
	}

	if h.bus != nil {
		if err := h.bus.HealthCheck(); err != nil {
			health.Status = "unhealthy"
			health.Details["bus"] = "unhealthy: " + err.Error()
		} else {
			health.Details["bus"] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	sendSuccess(w, statusCode, health)
}

// Helper functions
func sendSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := shared.Response{
		Success: true,
		Data:    data,
	}

	json.NewEncoder(w).Encode(response)
}

func sendError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := shared.Response{
		Success: false,
		Error: &shared.Error{
			Code:    code,
			Message: message,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes sets up all API routes. /map/ serves the exported GeoJSON
// files so a web map can poll them directly.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.HandleFunc("/api/status", h.Status)
	mux.Handle("/map/", http.StripPrefix("/map/", http.FileServer(http.Dir(h.exportDir))))
}
