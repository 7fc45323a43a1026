package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vatpac-net/ingestd/internal/correlator"
	"github.com/vatpac-net/ingestd/internal/dbmodels"
)

// TransceiverRepository implements correlator.SampleSource directly against
// Postgres, used when a flight's samples have already been flushed by the
// Write Batcher and are no longer in the in-memory Coalescer deque.
type TransceiverRepository struct {
	db *sqlx.DB
}

var _ correlator.SampleSource = (*TransceiverRepository)(nil)

// NewTransceiverRepository builds a TransceiverRepository.
func NewTransceiverRepository(db *sqlx.DB) *TransceiverRepository {
	return &TransceiverRepository{db: db}
}

// FlightSamples returns every flight transceiver sample for callsign in
// [from, to], ordered by timestamp (spec §4.H step 1).
func (r *TransceiverRepository) FlightSamples(ctx context.Context, callsign string, from, to time.Time) ([]dbmodels.TransceiverSample, error) {
	var rows []dbmodels.TransceiverSample
	if err := r.db.SelectContext(ctx, &rows, selectFlightTransceiverSamples, callsign, from, to); err != nil {
		return nil, fmt.Errorf("repositories: selecting flight transceiver samples: %w", err)
	}
	return rows, nil
}

// ControllerSamples returns every controller transceiver sample in
// [from, to], enriched with each controller's facility type so the
// Correlator can apply the OBS exclusion (spec §4.H step 2).
func (r *TransceiverRepository) ControllerSamples(ctx context.Context, from, to time.Time) ([]correlator.ControllerSample, error) {
	var rows []correlator.ControllerSample
	if err := r.db.SelectContext(ctx, &rows, selectControllerTransceiverSamples, from, to); err != nil {
		return nil, fmt.Errorf("repositories: selecting controller transceiver samples: %w", err)
	}
	return rows, nil
}
