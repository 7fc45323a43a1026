package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vatpac-net/ingestd/internal/dbmodels"
)

// SummaryRepository writes the one-row-per-completed-flight
// flight_summaries table (spec §3 invariant 3: "exactly one flight_summary
// row per completed flight").
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository builds a SummaryRepository.
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Insert writes a flight summary row, idempotent per (callsign,
// completion_time) via the unique index in internal/db/schema.go.
func (r *SummaryRepository) Insert(ctx context.Context, s dbmodels.FlightSummary) error {
	_, err := r.db.ExecContext(ctx, insertFlightSummary,
		s.Callsign, s.PilotID, s.Departure, s.Arrival, pq.StringArray(s.ControllerCallsigns),
		s.ControllerTimePercentage, s.TimeOnlineMinutes, s.PrimaryEnrouteSector,
		s.TotalEnrouteSectors, s.TotalEnrouteTimeMinutes, s.SectorBreakdown,
		s.CompletionTime, s.DisconnectMethod,
	)
	if err != nil {
		return fmt.Errorf("repositories: inserting flight summary: %w", err)
	}
	return nil
}
