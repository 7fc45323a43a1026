// Package scheduler implements the Scheduler / Orchestrator (spec §4.I):
// the poll, disconnect, and flush tickers plus the background
// cleanup/archival worker, each running behind its own circuit breaker,
// supervised by an errgroup the way the teacher supervises its service
// goroutines from cmd/server/main.go.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vatpac-net/ingestd/internal/airspace"
	"github.com/vatpac-net/ingestd/internal/batch"
	"github.com/vatpac-net/ingestd/internal/completion"
	"github.com/vatpac-net/ingestd/internal/config"
	"github.com/vatpac-net/ingestd/internal/dbmodels"
	"github.com/vatpac-net/ingestd/internal/feed"
	"github.com/vatpac-net/ingestd/internal/filter"
	"github.com/vatpac-net/ingestd/internal/lifecycle"
	"github.com/vatpac-net/ingestd/internal/logging"
	"github.com/vatpac-net/ingestd/internal/metrics"
	"github.com/vatpac-net/ingestd/internal/repositories"
	"github.com/vatpac-net/ingestd/internal/store"
)

// Status is the externally observable health/status summary (spec §6:
// "a status/health summary (counts, last tick time, last flush time,
// pending batch size) exposed by the Scheduler").
type Status struct {
	LastPollAt       time.Time `json:"last_poll_at"`
	LastDisconnectAt time.Time `json:"last_disconnect_at"`
	LastFlushAt      time.Time `json:"last_flush_at"`
	LastCleanupAt    time.Time `json:"last_cleanup_at"`
	ActiveFlights    int       `json:"active_flights"`
	ActiveControllers int      `json:"active_controllers"`
	PendingBatch     int       `json:"pending_batch_records"`
	PollBreakerOpen  bool      `json:"poll_breaker_open"`
}

// Orchestrator owns the four long-running workers described in spec §5.
type Orchestrator struct {
	cfg        *config.Config
	feedClient *feed.Client
	pipeline   *filter.Pipeline
	coalescer  *store.Coalescer
	engine     *lifecycle.Engine
	batcher    *batch.Batcher
	handler    *completion.Handler
	archiver   *repositories.ControllerArchiveRepository

	pollBreaker       *breaker
	disconnectBreaker *breaker
	flushBreaker      *breaker
	cleanupBreaker    *breaker

	presentMu   sync.RWMutex
	lastPresent map[string]struct{}

	statusMu sync.RWMutex
	status   Status
}

// FlightPersister adapts the Write Batcher to lifecycle.RowPersister,
// queuing a flight's final row at the moment the Lifecycle Engine marks it
// completed/cancelled — the only way that terminal status reaches the
// batcher, since DeleteFlight removes the flight from the Coalescer before
// the next poll tick's upsert sweep (runPoll, below) would otherwise see
// it.
type FlightPersister struct {
	batcher *batch.Batcher
}

// NewFlightPersister builds a FlightPersister over an already-constructed
// Batcher.
func NewFlightPersister(b *batch.Batcher) *FlightPersister {
	return &FlightPersister{batcher: b}
}

// PersistTerminalFlight implements lifecycle.RowPersister.
func (p *FlightPersister) PersistTerminalFlight(f *store.FlightEntry) {
	p.batcher.QueueUpsertFlight(toFlightRow(f))
}

// New builds an Orchestrator wired to the already-constructed components.
func New(
	cfg *config.Config,
	feedClient *feed.Client,
	pipeline *filter.Pipeline,
	coalescer *store.Coalescer,
	ref *airspace.Store,
	engine *lifecycle.Engine,
	batcher *batch.Batcher,
	handler *completion.Handler,
	archiver *repositories.ControllerArchiveRepository,
) *Orchestrator {
	return &Orchestrator{
		cfg:               cfg,
		feedClient:        feedClient,
		pipeline:          pipeline,
		coalescer:         coalescer,
		engine:            engine,
		batcher:           batcher,
		handler:           handler,
		archiver:          archiver,
		pollBreaker:       newBreaker("poll", 3, time.Minute),
		disconnectBreaker: newBreaker("disconnect", 3, time.Minute),
		flushBreaker:      newBreaker("flush", 3, 5*time.Minute),
		cleanupBreaker:    newBreaker("cleanup", 3, 10*time.Minute),
	}
}

// Run starts the four workers and blocks until ctx is cancelled, then
// performs the shutdown sequence described in spec §4.I: stop tickers,
// flush the batcher one final time, and return.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return o.runTicker(gctx, "poll", o.cfg.PollInterval, o.pollBreaker, o.runPoll) })
	g.Go(func() error {
		return o.runTicker(gctx, "disconnect", o.cfg.DisconnectCheckInterval, o.disconnectBreaker, o.runDisconnect)
	})
	g.Go(func() error { return o.runTicker(gctx, "flush", o.cfg.FlushInterval, o.flushBreaker, o.runFlush) })
	g.Go(func() error { return o.runTicker(gctx, "cleanup", o.cfg.CleanupInterval, o.cleanupBreaker, o.runCleanup) })

	err := g.Wait()

	log := logging.GetLogger()
	log.Infow("scheduler shutting down, flushing pending writes")
	flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if ferr := o.batcher.Flush(flushCtx); ferr != nil {
		log.Errorw("final flush failed during shutdown", "error", ferr)
	}
	return err
}

// runTicker drives one worker on a fixed interval, running an initial tick
// immediately on startup (spec §4.I "start tickers, run an initial tick"),
// honoring the breaker, and never letting a single failed tick kill the
// ticker (spec §4.I failure policy).
func (o *Orchestrator) runTicker(ctx context.Context, name string, interval time.Duration, b *breaker, fn func(context.Context, time.Time) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		now := time.Now()
		if !b.Allow(now) {
			return
		}
		if err := fn(ctx, now); err != nil {
			logging.GetLogger().Errorw("ticker run failed", "ticker", name, "error", err)
			metrics.TickErrorsTotal.WithLabelValues(name).Inc()
			b.RecordFailure(now)
			return
		}
		b.RecordSuccess()
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			run()
		}
	}
}

// runPoll implements the poll ticker: Feed Client -> Filter Pipeline ->
// Snapshot Coalescer -> Lifecycle Engine tick -> Write Batcher enqueue
// (spec §4.I "A->C->D->E").
func (o *Orchestrator) runPoll(ctx context.Context, now time.Time) error {
	snap, err := o.feedClient.FetchSnapshot(ctx)
	if err != nil {
		return err
	}

	flights, flightResult := o.pipeline.FilterFlights(snap.Pilots)
	controllers, ctlResult := o.pipeline.FilterControllers(snap.Controllers)

	metrics.FilterIncludedTotal.WithLabelValues("flight").Add(float64(flightResult.Included))
	metrics.FilterExcludedTotal.WithLabelValues("flight").Add(float64(flightResult.Excluded))
	metrics.FilterUncertainTotal.Add(float64(flightResult.Uncertain))
	metrics.FilterIncludedTotal.WithLabelValues("controller").Add(float64(ctlResult.Included))
	metrics.FilterExcludedTotal.WithLabelValues("controller").Add(float64(ctlResult.Excluded))

	o.coalescer.ApplyFlights(flights, now)
	o.coalescer.ApplyControllers(controllers, now)
	o.coalescer.ApplyTransceivers(snap.Transceivers, now)

	flightSet := make(map[string]struct{}, len(flights))
	for _, f := range flights {
		flightSet[f.Callsign] = struct{}{}
	}
	o.setLastPresent(flightSet)

	controllerIDs := make(map[string]int64, len(controllers))
	for _, c := range controllers {
		controllerIDs[c.Callsign] = c.ControllerID
	}
	for _, t := range snap.Transceivers {
		if _, ok := flightSet[t.Callsign]; ok {
			o.batcher.QueueAppendTransceiver(toFlightTransceiverRow(t.Callsign, t))
			continue
		}
		if cid, ok := controllerIDs[t.Callsign]; ok {
			o.batcher.QueueAppendTransceiver(toControllerTransceiverRow(t.Callsign, cid, t))
		}
	}

	o.engine.Tick(ctx, now)

	for _, f := range o.coalescer.Flights() {
		o.batcher.QueueUpsertFlight(toFlightRow(f))
	}
	for _, c := range o.coalescer.Controllers() {
		o.batcher.QueueUpsertController(toControllerRow(c))
	}
	for _, row := range o.handler.PendingOccupancyRows(true) {
		o.batcher.QueueAppendOccupancy(row)
	}

	if o.batcher.ShouldFlush(now) {
		if err := o.batcher.Flush(ctx); err != nil {
			logging.GetLogger().Errorw("size-triggered flush failed", "error", err)
		}
	}

	activeByStatus := map[string]int{}
	for _, f := range o.coalescer.Flights() {
		activeByStatus[f.Status]++
	}
	for status, n := range activeByStatus {
		metrics.FlightsActive.WithLabelValues(status).Set(float64(n))
	}

	o.statusMu.Lock()
	o.status.LastPollAt = now
	o.status.ActiveFlights = len(o.coalescer.Flights())
	o.status.ActiveControllers = len(o.coalescer.Controllers())
	o.status.PendingBatch = o.batcher.PendingCount()
	o.statusMu.Unlock()

	return nil
}

// setLastPresent records the callsigns present in the most recent poll
// tick's filtered flight snapshot, for runDisconnect to read.
func (o *Orchestrator) setLastPresent(present map[string]struct{}) {
	o.presentMu.Lock()
	o.lastPresent = present
	o.presentMu.Unlock()
}

func (o *Orchestrator) getLastPresent() (map[string]struct{}, bool) {
	o.presentMu.RLock()
	defer o.presentMu.RUnlock()
	return o.lastPresent, o.lastPresent != nil
}

// runDisconnect implements the pilot-disconnect ticker: any flight present
// in the previous poll but absent from the latest *filtered* snapshot is
// considered disconnected (spec §4.E: "absent from the latest filtered
// snapshot"). It reuses the flight set the poll ticker already filtered
// through the Filter Pipeline rather than re-fetching and re-deriving
// presence from the raw feed, which would both bypass filtering and double
// the upstream fetch rate independent of the poll cadence.
func (o *Orchestrator) runDisconnect(ctx context.Context, now time.Time) error {
	present, ok := o.getLastPresent()
	if !ok {
		// No poll tick has run yet; nothing to compare against.
		return nil
	}
	o.engine.RunDisconnectDetector(ctx, present, now)

	o.statusMu.Lock()
	o.status.LastDisconnectAt = now
	o.statusMu.Unlock()
	return nil
}

// runFlush implements the flush ticker: persist whatever the Write Batcher
// has accumulated, regardless of the size threshold.
func (o *Orchestrator) runFlush(ctx context.Context, now time.Time) error {
	o.engine.RunTimeoutDetector(ctx, now)
	if err := o.batcher.Flush(ctx); err != nil {
		return err
	}
	o.statusMu.Lock()
	o.status.LastFlushAt = now
	o.statusMu.Unlock()
	return nil
}

// runCleanup implements the background cleanup/archival worker (spec §5):
// reap in-memory entries untouched for over an hour, and archive
// controllers untouched for over the archival threshold.
func (o *Orchestrator) runCleanup(ctx context.Context, now time.Time) error {
	const memoryReapAge = time.Hour
	const archivalAge = 7 * 24 * time.Hour

	for _, f := range o.coalescer.Flights() {
		if dbmodels.FlightStatus(f.Status).Terminal() && now.Sub(f.LastSeen) > memoryReapAge {
			o.coalescer.DeleteFlight(f.Callsign)
			o.coalescer.DeleteTransceivers(f.Callsign)
		}
	}

	if o.archiver != nil {
		stale, err := o.archiver.StaleCallsigns(ctx, now.Add(-archivalAge))
		if err != nil {
			return err
		}
		for _, callsign := range stale {
			if err := o.archiver.Archive(ctx, callsign); err != nil {
				logging.GetLogger().Errorw("controller archival failed", "callsign", callsign, "error", err)
				continue
			}
			o.coalescer.DeleteController(callsign)
		}
	}

	o.statusMu.Lock()
	o.status.LastCleanupAt = now
	o.statusMu.Unlock()
	return nil
}

// Status returns a snapshot of the current health/status summary.
func (o *Orchestrator) Status() Status {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	s := o.status
	s.PollBreakerOpen = o.pollBreaker.IsOpen()
	return s
}
