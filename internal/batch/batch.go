// Package batch implements the Write Batcher (spec §4.F): it coalesces
// repeated upserts of the same (table, primary-key) into a single
// database operation per flush window, and appends samples/occupancy rows
// without coalescing, following the teacher's bulk-upsert pattern
// (internal/db/repositories/aircraft_livery_repository.go's
// clause.OnConflict usage).
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vatpac-net/ingestd/internal/apperrors"
	"github.com/vatpac-net/ingestd/internal/dbmodels"
	"github.com/vatpac-net/ingestd/internal/logging"
	"github.com/vatpac-net/ingestd/internal/metrics"
)

// upsertConflict describes the conflict target and updated columns for one
// upsertable table, mirroring the teacher's UpsertBatch clause.OnConflict
// literal.
type upsertConflict struct {
	columns   []clause.Column
	doUpdates clause.Expression
}

var flightConflict = upsertConflict{
	columns: []clause.Column{{Name: "callsign"}},
	doUpdates: clause.AssignmentColumns([]string{
		"pilot_id", "pilot_name", "aircraft_type",
		"latitude", "longitude", "altitude", "heading", "groundspeed", "transponder", "qnh",
		"departure", "arrival", "alternate", "route", "planned_altitude", "flight_rules",
		"cruise_tas", "dep_time", "enroute_time", "fuel_time", "remarks", "revision_id",
		"assigned_transponder", "logon_time", "last_updated", "status",
		"stale_since", "landed_at", "landed_arrival", "disconnected_at", "disconnect_method",
	}),
}

var controllerConflict = upsertConflict{
	columns: []clause.Column{{Name: "callsign"}},
	doUpdates: clause.AssignmentColumns([]string{
		"controller_id", "name", "rating", "facility", "visual_range",
		"text_atis", "frequency", "server", "logon_time", "last_updated",
	}),
}

// Batcher buffers pending row writes keyed by (table, primary key) so that
// N ticks touching the same entity still contribute a single row-update
// per flush window (spec §4.F write-amplification target).
type Batcher struct {
	db             *gorm.DB
	batchThreshold int
	flushInterval  time.Duration
	maxRetries     int

	mu              sync.Mutex
	pendingFlights     map[string]dbmodels.Flight
	pendingControllers map[string]dbmodels.Controller
	pendingTransceivers []dbmodels.TransceiverSample
	pendingOccupancy    []dbmodels.FlightSectorOccupancy

	lastFlush time.Time
}

// New builds a Batcher.
func New(db *gorm.DB, batchThreshold int, flushInterval time.Duration) *Batcher {
	return &Batcher{
		db:                 db,
		batchThreshold:     batchThreshold,
		flushInterval:      flushInterval,
		maxRetries:         5,
		pendingFlights:     make(map[string]dbmodels.Flight),
		pendingControllers: make(map[string]dbmodels.Controller),
		lastFlush:          time.Now(),
	}
}

// QueueUpsertFlight coalesces a flight row into the pending batch,
// last-writer-wins for repeated calls within the same flush window.
func (b *Batcher) QueueUpsertFlight(f dbmodels.Flight) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingFlights[f.Callsign] = f
}

// QueueUpsertController coalesces a controller row into the pending batch.
func (b *Batcher) QueueUpsertController(c dbmodels.Controller) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingControllers[c.Callsign] = c
}

// QueueAppendTransceiver appends a transceiver sample; appends are never
// coalesced (spec §4.F).
func (b *Batcher) QueueAppendTransceiver(s dbmodels.TransceiverSample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingTransceivers = append(b.pendingTransceivers, s)
}

// QueueAppendOccupancy appends (or updates, for a still-open row) a
// flight_sector_occupancy row.
func (b *Batcher) QueueAppendOccupancy(o dbmodels.FlightSectorOccupancy) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingOccupancy = append(b.pendingOccupancy, o)
}

// PendingCount returns the total number of records buffered across all
// tables, used by the Scheduler to decide whether a size-triggered flush
// is due (spec §4.F: "Batch size ≥ batch_threshold ... across all tables").
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	n := len(b.pendingFlights) + len(b.pendingControllers) + len(b.pendingTransceivers) + len(b.pendingOccupancy)
	b.mu.Unlock()
	metrics.BatchPendingRecords.Set(float64(n))
	return n
}

// PendingFlight returns the row currently buffered for callsign, if any,
// letting callers (tests, status introspection) observe what the next
// flush would write without waiting for Flush itself.
func (b *Batcher) PendingFlight(callsign string) (dbmodels.Flight, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.pendingFlights[callsign]
	return f, ok
}

// ShouldFlush reports whether a time- or size-triggered flush is due.
func (b *Batcher) ShouldFlush(now time.Time) bool {
	b.mu.Lock()
	due := now.Sub(b.lastFlush) >= b.flushInterval
	size := len(b.pendingFlights) + len(b.pendingControllers) + len(b.pendingTransceivers) + len(b.pendingOccupancy)
	b.mu.Unlock()
	return due || size >= b.batchThreshold
}

// Flush drains every pending table, one transaction per table, bulk
// upserting/inserting with retries. It never silently discards data: a
// table that fails after all retries stays in the pending buffer for the
// next attempt (spec §4.F).
func (b *Batcher) Flush(ctx context.Context) error {
	log := logging.GetLogger()

	b.mu.Lock()
	flights := mapValues(b.pendingFlights)
	controllers := mapValuesCtl(b.pendingControllers)
	transceivers := b.pendingTransceivers
	occupancy := b.pendingOccupancy
	b.mu.Unlock()

	var errs []error

	if len(flights) > 0 {
		if err := b.retryUpsert(ctx, "flights", func() error {
			return b.db.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   flightConflict.columns,
				DoUpdates: flightConflict.doUpdates,
			}).Create(&flights).Error
		}); err != nil {
			errs = append(errs, err)
			log.Errorw("flush flights failed after retries", "error", err)
		} else {
			b.removeFlushedFlights(flights)
		}
	}

	if len(controllers) > 0 {
		if err := b.retryUpsert(ctx, "controllers", func() error {
			return b.db.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   controllerConflict.columns,
				DoUpdates: controllerConflict.doUpdates,
			}).Create(&controllers).Error
		}); err != nil {
			errs = append(errs, err)
			log.Errorw("flush controllers failed after retries", "error", err)
		} else {
			b.removeFlushedControllers(controllers)
		}
	}

	if len(transceivers) > 0 {
		if err := b.retryUpsert(ctx, "transceivers", func() error {
			return b.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&transceivers).Error
		}); err != nil {
			errs = append(errs, err)
			log.Errorw("flush transceivers failed after retries", "error", err)
		} else {
			b.removeFlushedTransceivers(len(transceivers))
		}
	}

	if len(occupancy) > 0 {
		if err := b.retryUpsert(ctx, "flight_sector_occupancy", func() error {
			return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				for i := range occupancy {
					if err := tx.Save(&occupancy[i]).Error; err != nil {
						return err
					}
				}
				return nil
			})
		}); err != nil {
			errs = append(errs, err)
			log.Errorw("flush occupancy failed after retries", "error", err)
		} else {
			b.removeFlushedOccupancy(len(occupancy))
		}
	}

	b.mu.Lock()
	b.lastFlush = time.Now()
	b.mu.Unlock()

	metrics.BatchFlushesTotal.Inc()
	if len(errs) > 0 {
		metrics.BatchFlushFailuresTotal.Add(float64(len(errs)))
		return fmt.Errorf("%w: %d table(s) failed to flush", apperrors.ErrPersistenceTransient, len(errs))
	}
	return nil
}

// retryUpsert runs op once plus up to maxRetries retries (maxRetries+1
// attempts in all), with exponential backoff between attempts.
func (b *Batcher) retryUpsert(ctx context.Context, table string, op func() error) error {
	log := logging.GetLogger()
	var lastErr error
	backoff := 100 * time.Millisecond
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if err := op(); err != nil {
			lastErr = err
			log.Warnw("batch upsert attempt failed", "table", table, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: table %s: %v", apperrors.ErrPersistenceTransient, table, lastErr)
}

func (b *Batcher) removeFlushedFlights(flushed []dbmodels.Flight) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range flushed {
		if cur, ok := b.pendingFlights[f.Callsign]; ok && cur.LastUpdated.Equal(f.LastUpdated) {
			delete(b.pendingFlights, f.Callsign)
		}
	}
}

func (b *Batcher) removeFlushedControllers(flushed []dbmodels.Controller) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range flushed {
		if cur, ok := b.pendingControllers[c.Callsign]; ok && cur.LastUpdated.Equal(c.LastUpdated) {
			delete(b.pendingControllers, c.Callsign)
		}
	}
}

func (b *Batcher) removeFlushedTransceivers(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n >= len(b.pendingTransceivers) {
		b.pendingTransceivers = nil
		return
	}
	b.pendingTransceivers = b.pendingTransceivers[n:]
}

func (b *Batcher) removeFlushedOccupancy(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n >= len(b.pendingOccupancy) {
		b.pendingOccupancy = nil
		return
	}
	b.pendingOccupancy = b.pendingOccupancy[n:]
}

func mapValues(m map[string]dbmodels.Flight) []dbmodels.Flight {
	out := make([]dbmodels.Flight, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func mapValuesCtl(m map[string]dbmodels.Controller) []dbmodels.Controller {
	out := make([]dbmodels.Controller, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
