// Package completion wires the Lifecycle Engine's transition hooks
// (spec §4.E "Completion event handling") to the Correlator, the
// flight_summaries writer, and the occupancy-row closer. It implements
// lifecycle.CompletionHandler and lifecycle.OccupancyTracker so the
// Lifecycle Engine itself stays free of persistence concerns.
package completion

import (
	"context"
	"sync"
	"time"

	"github.com/vatpac-net/ingestd/internal/correlator"
	"github.com/vatpac-net/ingestd/internal/dbmodels"
	"github.com/vatpac-net/ingestd/internal/events"
	"github.com/vatpac-net/ingestd/internal/geo"
	"github.com/vatpac-net/ingestd/internal/logging"
	"github.com/vatpac-net/ingestd/internal/repositories"
	"github.com/vatpac-net/ingestd/internal/store"
)

// Handler implements the completion side effects: closing open occupancy
// rows and enqueueing a completion event for asynchronous summary
// computation by SummaryBuilder, which runs the Correlator (decoupling the Lifecycle Engine's tick
// from the Correlator's database round-trips, grounded on the teacher's
// PirepQueueWorker pattern of moving slow work off the sync-job goroutine).
type Handler struct {
	coalescer *store.Coalescer
	queue     *events.Queue

	openMu sync.Mutex
	open   map[occupancyKey]*dbmodels.FlightSectorOccupancy
	closed []dbmodels.FlightSectorOccupancy
}

type occupancyKey struct {
	callsign string
	sector   string
}

// New builds a Handler.
func New(coalescer *store.Coalescer, queue *events.Queue) *Handler {
	return &Handler{
		coalescer: coalescer,
		queue:     queue,
		open:      make(map[occupancyKey]*dbmodels.FlightSectorOccupancy),
	}
}

// Update opens (or continues) an occupancy row for (callsign, sector),
// closing any other open row for the same callsign first (spec §4.E
// "Sector occupancy tracking").
func (h *Handler) Update(callsign, sector string, pos geo.Point, altitude float64, at time.Time) {
	h.openMu.Lock()
	defer h.openMu.Unlock()

	key := occupancyKey{callsign: callsign, sector: sector}
	if _, ok := h.open[key]; ok {
		return
	}

	for k, row := range h.open {
		if k.callsign == callsign {
			h.closeRowLocked(row, pos, altitude, at)
			delete(h.open, k)
		}
	}

	h.open[key] = &dbmodels.FlightSectorOccupancy{
		Callsign:       callsign,
		SectorName:     sector,
		EntryTimestamp: at,
		EntryLatitude:  pos.Lat,
		EntryLongitude: pos.Lon,
		EntryAltitude:  altitude,
	}
}

// CloseAll closes every open occupancy row for callsign (spec §4.E:
// "If current_sector = None, close any open row for this callsign", and
// step 1 of completion handling).
func (h *Handler) CloseAll(callsign string, pos geo.Point, altitude float64, at time.Time) {
	h.openMu.Lock()
	defer h.openMu.Unlock()
	for k, row := range h.open {
		if k.callsign == callsign {
			h.closeRowLocked(row, pos, altitude, at)
			delete(h.open, k)
		}
	}
}

func (h *Handler) closeRowLocked(row *dbmodels.FlightSectorOccupancy, pos geo.Point, altitude float64, at time.Time) {
	exitAt := at
	row.ExitTimestamp = &exitAt
	lat, lon, alt := pos.Lat, pos.Lon, altitude
	row.ExitLatitude = &lat
	row.ExitLongitude = &lon
	row.ExitAltitude = &alt
	dur := int64(at.Sub(row.EntryTimestamp).Seconds())
	row.DurationSeconds = &dur
	h.closed = append(h.closed, *row)
}

// PendingOccupancyRows drains the rows closed since the last call, for the
// Scheduler to hand to the Write Batcher.
func (h *Handler) PendingOccupancyRows(closedOnly bool) []dbmodels.FlightSectorOccupancy {
	h.openMu.Lock()
	defer h.openMu.Unlock()
	out := h.closed
	h.closed = nil
	for k, row := range h.open {
		if closedOnly && row.ExitTimestamp == nil {
			continue
		}
		out = append(out, *row)
		if row.ExitTimestamp != nil {
			delete(h.open, k)
		}
	}
	return out
}

// HandleCompletion implements lifecycle.CompletionHandler: it enqueues a
// completion event naming the flight's active lifetime so a separate
// worker can run the Correlator and write the summary without blocking the
// tick that detected the transition.
func (h *Handler) HandleCompletion(ctx context.Context, callsign string, reason dbmodels.DisconnectMethod) {
	log := logging.GetLogger()

	f, ok := h.coalescer.Flight(callsign)
	t0 := time.Now().Add(-time.Hour)
	ev := events.CompletionEvent{
		Callsign:         callsign,
		DisconnectMethod: reason,
		T1:               time.Now(),
	}
	if ok {
		if !f.FirstSeen.IsZero() {
			t0 = f.FirstSeen
		}
		ev.PilotID = f.Obs.PilotID
		ev.PilotName = f.Obs.PilotName
		ev.AircraftType = f.Obs.AircraftType
		ev.Departure = f.Obs.Departure
		ev.Arrival = f.Obs.Arrival
		ev.Route = f.Obs.Route
		ev.FlightRules = f.Obs.FlightRules
	}
	ev.T0 = t0
	if h.queue == nil {
		return
	}
	if err := h.queue.Enqueue(ctx, ev); err != nil {
		log.Errorw("failed to enqueue completion event", "callsign", callsign, "error", err)
	}
}

// SummaryBuilder computes and persists the flight_summaries row for a
// completion event, run by a worker consuming the completion-event queue
// (spec §4.E steps 2-4).
type SummaryBuilder struct {
	correlator *correlator.Correlator
	occupancy  *repositories.OccupancyRepository
	summaries  *repositories.SummaryRepository
}

// NewSummaryBuilder builds a SummaryBuilder.
func NewSummaryBuilder(corr *correlator.Correlator, occupancy *repositories.OccupancyRepository, summaries *repositories.SummaryRepository) *SummaryBuilder {
	return &SummaryBuilder{correlator: corr, occupancy: occupancy, summaries: summaries}
}

// Process computes and writes one flight's summary row.
func (b *SummaryBuilder) Process(ctx context.Context, ev events.CompletionEvent) error {
	res, err := b.correlator.Correlate(ctx, ev.Callsign, ev.T0, ev.T1)
	if err != nil {
		return err
	}

	breakdown, err := b.occupancy.ClosedSectorBreakdown(ctx, ev.Callsign)
	if err != nil {
		return err
	}

	sb := make(dbmodels.SectorBreakdown, len(breakdown))
	copy(sb, breakdown)

	primarySector := ""
	var maxDuration int64 = -1
	var totalEnrouteSeconds int64
	for _, entry := range breakdown {
		totalEnrouteSeconds += entry.DurationSeconds
		if entry.DurationSeconds > maxDuration {
			maxDuration = entry.DurationSeconds
			primarySector = entry.SectorName
		}
	}

	summary := dbmodels.FlightSummary{
		Callsign:                 ev.Callsign,
		PilotID:                  ev.PilotID,
		PilotName:                ev.PilotName,
		AircraftType:             ev.AircraftType,
		Departure:                ev.Departure,
		Arrival:                  ev.Arrival,
		Route:                    ev.Route,
		FlightRules:              ev.FlightRules,
		ControllerCallsigns:      res.ControllerCallsigns,
		ControllerTimePercentage: res.CoveragePercentage,
		TimeOnlineMinutes:        int(ev.T1.Sub(ev.T0).Minutes()),
		PrimaryEnrouteSector:     primarySector,
		TotalEnrouteSectors:      len(breakdown),
		TotalEnrouteTimeMinutes:  int(totalEnrouteSeconds / 60),
		SectorBreakdown:          sb,
		CompletionTime:           ev.T1,
		DisconnectMethod:         ev.DisconnectMethod,
	}

	return b.summaries.Insert(ctx, summary)
}
