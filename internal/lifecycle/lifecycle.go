// Package lifecycle implements the Lifecycle Engine (spec §4.E): the
// flight status state machine, its landing/disconnect/timeout detectors,
// and the per-tick sector-occupancy tracker.
package lifecycle

import (
	"context"
	"time"

	"github.com/vatpac-net/ingestd/internal/airspace"
	"github.com/vatpac-net/ingestd/internal/config"
	"github.com/vatpac-net/ingestd/internal/dbmodels"
	"github.com/vatpac-net/ingestd/internal/geo"
	"github.com/vatpac-net/ingestd/internal/logging"
	"github.com/vatpac-net/ingestd/internal/metrics"
	"github.com/vatpac-net/ingestd/internal/store"
)

// CompletionHandler is invoked once per flight transition into a terminal
// status. The implementation in internal/completion enqueues a completion
// event; a worker then runs the Correlator and writes the flight_summaries
// row — kept out of this package so Engine stays
// independent of the persistence layer (grounded on the teacher's pattern
// of jobs calling out to repositories rather than embedding SQL).
type CompletionHandler interface {
	HandleCompletion(ctx context.Context, callsign string, reason dbmodels.DisconnectMethod)
}

// OccupancyTracker opens/closes flight_sector_occupancy rows. Kept as an
// interface for the same reason as CompletionHandler: Engine drives the
// state machine, it does not own SQL.
type OccupancyTracker interface {
	Update(callsign, sector string, pos geo.Point, altitude float64, at time.Time)
	CloseAll(callsign string, pos geo.Point, altitude float64, at time.Time)
}

// RowPersister durably queues a flight's final row at the moment it
// reaches a terminal status. Engine deletes a flight from the Coalescer as
// soon as it completes/cancels (spec §4.E step 6), which means the next
// poll tick's upsert sweep (the only other place a flight row is queued)
// never sees it; without this hook the terminal status would never reach
// the Write Batcher and `flights.status` would stay stuck at whatever was
// last flushed.
type RowPersister interface {
	PersistTerminalFlight(f *store.FlightEntry)
}

// Engine drives Flight.status transitions for every flight in the
// Coalescer. It is the sole writer of status (spec §4.D/§5: "linearizable
// ... the poll ticker is the sole status writer for active<->stale and
// active/stale->landed; the disconnect and timeout tickers are the sole
// writers for landed->completed").
type Engine struct {
	cfg        *config.Config
	coalescer  *store.Coalescer
	airspace   *airspace.Store
	completion CompletionHandler
	occupancy  OccupancyTracker
	persister  RowPersister

	lastLanding map[landingKey]time.Time
}

type landingKey struct {
	callsign string
	arrival  string
}

// New builds an Engine. persister may be nil, in which case a flight's
// terminal row relies entirely on whatever was last flushed from a poll
// tick (only acceptable in tests that don't assert on persisted status).
func New(cfg *config.Config, coalescer *store.Coalescer, ref *airspace.Store, completion CompletionHandler, occupancy OccupancyTracker, persister RowPersister) *Engine {
	return &Engine{
		cfg:         cfg,
		coalescer:   coalescer,
		airspace:    ref,
		completion:  completion,
		occupancy:   occupancy,
		persister:   persister,
		lastLanding: make(map[landingKey]time.Time),
	}
}

// Tick runs the poll-ticker half of the state machine: active<->stale
// transitions, the landing detector, and the sector-occupancy tracker. It
// is called once per poll, after the Coalescer has absorbed the tick's
// filtered snapshot.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	log := logging.WithTick(now.Format(time.RFC3339), "lifecycle.tick", "")
	staleCutoff := time.Duration(float64(e.cfg.PollInterval) * e.cfg.StaleMultiplier)

	for _, f := range e.coalescer.Flights() {
		if f.Status == "" {
			e.coalescer.SetStatus(f.Callsign, string(dbmodels.StatusActive), now, "")
			f.Status = string(dbmodels.StatusActive)
			metrics.LifecycleTransitionsTotal.WithLabelValues("none", "active").Inc()
		}

		switch dbmodels.FlightStatus(f.Status) {
		case dbmodels.StatusActive, dbmodels.StatusStale:
			e.applyStaleness(f, now, staleCutoff)
			e.runLandingDetector(f, now)
			e.trackOccupancy(f, now)
		default:
			// landed/completed/cancelled: no staleness or landing
			// transitions apply.
		}
	}
	log.Debug("lifecycle tick complete")
}

func (e *Engine) applyStaleness(f *store.FlightEntry, now time.Time, staleCutoff time.Duration) {
	absent := now.Sub(f.LastSeen) > staleCutoff
	switch dbmodels.FlightStatus(f.Status) {
	case dbmodels.StatusActive:
		if absent {
			e.coalescer.SetStatus(f.Callsign, string(dbmodels.StatusStale), now, "stale_since")
			f.Status = string(dbmodels.StatusStale)
			metrics.LifecycleTransitionsTotal.WithLabelValues("active", "stale").Inc()
		}
	case dbmodels.StatusStale:
		if !absent {
			e.coalescer.SetStatus(f.Callsign, string(dbmodels.StatusActive), now, "")
			f.Status = string(dbmodels.StatusActive)
			metrics.LifecycleTransitionsTotal.WithLabelValues("stale", "active").Inc()
		}
	}
}

// runLandingDetector implements spec §4.E's five-step landing test.
func (e *Engine) runLandingDetector(f *store.FlightEntry, now time.Time) {
	if !f.Obs.HasPosition {
		return
	}
	arrival := f.Obs.Arrival
	if arrival == "" {
		return
	}
	airport, ok := e.airspace.Airport(arrival)
	if !ok {
		return
	}

	distance := geo.HaversineNM(
		geo.Point{Lat: f.Obs.Latitude, Lon: f.Obs.Longitude},
		geo.Point{Lat: airport.Latitude, Lon: airport.Longitude},
	)
	if distance > e.cfg.LandingRadiusNM {
		return
	}

	elevation := 0.0
	if airport.HasElevation {
		elevation = airport.Elevation
	}
	altitudeAboveAirport := f.Obs.Altitude - elevation
	if altitudeAboveAirport > e.cfg.LandingAltFt {
		return
	}

	if f.Obs.Groundspeed > e.cfg.LandingSpeedKts {
		return
	}

	key := landingKey{callsign: f.Callsign, arrival: arrival}
	if last, ok := e.lastLanding[key]; ok && now.Sub(last) < e.cfg.LandingDupMinutes {
		return
	}

	e.lastLanding[key] = now
	e.coalescer.SetStatus(f.Callsign, string(dbmodels.StatusLanded), now, "landed_at")
	metrics.LifecycleTransitionsTotal.WithLabelValues(f.Status, string(dbmodels.StatusLanded)).Inc()
}

func (e *Engine) trackOccupancy(f *store.FlightEntry, now time.Time) {
	if e.occupancy == nil || !f.Obs.HasPosition {
		return
	}
	pt := geo.Point{Lat: f.Obs.Latitude, Lon: f.Obs.Longitude}
	sector, ok := e.airspace.SectorContaining(pt.Lat, pt.Lon)
	if !ok {
		e.occupancy.CloseAll(f.Callsign, pt, f.Obs.Altitude, now)
		return
	}
	e.occupancy.Update(f.Callsign, sector, pt, f.Obs.Altitude, now)
}

// RunDisconnectDetector runs on its own 30 s ticker (spec §4.E): any flight
// in landed whose callsign is absent from the latest tick transitions to
// completed.
func (e *Engine) RunDisconnectDetector(ctx context.Context, presentCallsigns map[string]struct{}, now time.Time) {
	for _, f := range e.coalescer.Flights() {
		if dbmodels.FlightStatus(f.Status) != dbmodels.StatusLanded {
			continue
		}
		if _, present := presentCallsigns[f.Callsign]; present {
			continue
		}
		e.completeFlight(ctx, f.Callsign, now, dbmodels.DisconnectDetected)
	}
}

// RunTimeoutDetector transitions any flight landed for ≥ timeout_hours with
// no disconnect observation to completed (spec §4.E).
func (e *Engine) RunTimeoutDetector(ctx context.Context, now time.Time) {
	for _, f := range e.coalescer.Flights() {
		if dbmodels.FlightStatus(f.Status) != dbmodels.StatusLanded {
			continue
		}
		if f.LandedAt.IsZero() || now.Sub(f.LandedAt) < e.cfg.TimeoutHours {
			continue
		}
		e.completeFlight(ctx, f.Callsign, now, dbmodels.DisconnectTimeout)
	}
}

// Cancel transitions any non-terminal flight to cancelled. It has the
// highest transition precedence (spec §4.E table).
func (e *Engine) Cancel(ctx context.Context, callsign string, now time.Time) bool {
	f, ok := e.coalescer.Flight(callsign)
	if !ok || dbmodels.FlightStatus(f.Status).Terminal() {
		return false
	}
	e.coalescer.SetStatus(callsign, string(dbmodels.StatusCancelled), now, "")
	metrics.LifecycleTransitionsTotal.WithLabelValues(f.Status, string(dbmodels.StatusCancelled)).Inc()
	if e.occupancy != nil {
		pt := geo.Point{Lat: f.Obs.Latitude, Lon: f.Obs.Longitude}
		e.occupancy.CloseAll(callsign, pt, f.Obs.Altitude, now)
	}
	if e.completion != nil {
		e.completion.HandleCompletion(ctx, callsign, "")
	}
	e.persistTerminalRow(callsign)
	e.coalescer.DeleteFlight(callsign)
	return true
}

func (e *Engine) completeFlight(ctx context.Context, callsign string, now time.Time, method dbmodels.DisconnectMethod) {
	f, ok := e.coalescer.Flight(callsign)
	if !ok {
		return
	}
	e.coalescer.SetDisconnectMethod(callsign, string(method))
	e.coalescer.SetStatus(callsign, string(dbmodels.StatusCompleted), now, "disconnected_at")
	metrics.LifecycleTransitionsTotal.WithLabelValues(f.Status, string(dbmodels.StatusCompleted)).Inc()

	if e.occupancy != nil {
		pt := geo.Point{Lat: f.Obs.Latitude, Lon: f.Obs.Longitude}
		e.occupancy.CloseAll(callsign, pt, f.Obs.Altitude, now)
	}
	if e.completion != nil {
		e.completion.HandleCompletion(ctx, callsign, method)
	}
	e.persistTerminalRow(callsign)
	e.coalescer.DeleteFlight(callsign)
}

// persistTerminalRow queues the flight's final row, re-reading it from the
// Coalescer so the persisted row reflects the status/disconnect fields
// just written by SetStatus/SetDisconnectMethod rather than the stale copy
// taken before those calls.
func (e *Engine) persistTerminalRow(callsign string) {
	if e.persister == nil {
		return
	}
	if final, ok := e.coalescer.Flight(callsign); ok {
		e.persister.PersistTerminalFlight(final)
	}
}
