// Package httpapi exposes the service's health/status HTTP surface (spec
// §6: "a status/health summary (counts, last tick time, last flush time,
// pending batch size) exposed by the Scheduler"), grounded on the
// teacher's chi router (internal/routes/router.go) and health handler
// (internal/api/health.go), scaled down to this service's single
// read-only surface — there is no request-handling API of its own to
// register alongside it.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vatpac-net/ingestd/internal/scheduler"
)

// orchestrator is the subset of *scheduler.Orchestrator the handlers need.
type orchestrator interface {
	Status() scheduler.Status
}

// NewRouter builds the chi router serving /healthz and /status. db is used
// for a liveness ping; it may be nil in tests that do not need the
// Postgres-connectivity check.
func NewRouter(db *sqlx.DB, orch orchestrator, upSince time.Time) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://localhost:*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", healthHandler(db, upSince))
	r.Get("/status", statusHandler(orch))
	r.Handle("/metrics", promhttp.Handler())

	return r
}
