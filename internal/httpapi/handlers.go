package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
)

// serviceStatus mirrors the teacher's entities.ServiceStatus shape
// (internal/models/entities/health.go).
type serviceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// healthCheckResponse mirrors the teacher's entities.HealthCheckResponse.
type healthCheckResponse struct {
	Status   string                   `json:"status"`
	Uptime   string                   `json:"uptime"`
	Services map[string]serviceStatus `json:"services"`
}

// healthHandler reports process liveness and a Postgres ping, the same
// shape as the teacher's HealthCheckHandler.
func healthHandler(db *sqlx.DB, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]serviceStatus)

		pgStatus, pgDetails := "ok", "postgres connected"
		if db == nil {
			pgStatus, pgDetails = "unknown", "no database handle configured"
		} else if err := db.PingContext(r.Context()); err != nil {
			pgStatus, pgDetails = "down", err.Error()
		}
		services["postgres"] = serviceStatus{Status: pgStatus, Details: pgDetails}

		overall := "ok"
		for _, s := range services {
			if s.Status == "down" {
				overall = "down"
			}
		}

		resp := healthCheckResponse{
			Status:   overall,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
			Services: services,
		}

		w.Header().Set("Content-Type", "application/json")
		if overall != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// statusHandler reports the Scheduler's health/status summary (spec §6).
func statusHandler(orch orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if orch == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "scheduler not yet started"})
			return
		}
		_ = json.NewEncoder(w).Encode(orch.Status())
	}
}
