// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.PingContext(r.Context()) == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, code, HealthResponse{Status: status, DBConnected: dbConnected})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Version          string         `json:"version"`
	Counts           storage.Counts `json:"counts"`
	ScheduledLessons int            `json:"scheduled_lessons"`
	IndexBuiltAt     *time.Time     `json:"index_built_at,omitempty"`
	IndexStale       bool           `json:"index_stale"`
	WebSocketClients int            `json:"websocket_clients"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, hub *websocket.Hub, svc *schedule.Service, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := db.Counts(r.Context())
		if err != nil {
			writeStoreError(w, err, "status")
			return
		}

		resp := StatusResponse{Version: version, Counts: counts, IndexStale: svc.Stale()}
		if idx := svc.Current(); idx != nil {
			built := idx.BuiltAt()
			resp.IndexBuiltAt = &built
			resp.ScheduledLessons = idx.Len()
		}
		if hub != nil {
			resp.WebSocketClients = hub.ClientCount()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
