package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vatpac-net/ingestd/internal/dbmodels"
)

// OccupancyRepository reads/writes flight_sector_occupancy rows directly
// via sqlx, following the teacher's raw-SQL read path
// (internal/constants/queries.go + internal/db/postgres.go's sqlx.DB).
type OccupancyRepository struct {
	db *sqlx.DB
}

// NewOccupancyRepository builds an OccupancyRepository.
func NewOccupancyRepository(db *sqlx.DB) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

// OpenRowsForCallsign returns every currently-open occupancy row for a
// flight (spec §4.G partial index on open rows).
func (r *OccupancyRepository) OpenRowsForCallsign(ctx context.Context, callsign string) ([]dbmodels.FlightSectorOccupancy, error) {
	var rows []dbmodels.FlightSectorOccupancy
	if err := r.db.SelectContext(ctx, &rows, selectOpenOccupancyForCallsign, callsign); err != nil {
		return nil, fmt.Errorf("repositories: selecting open occupancy rows: %w", err)
	}
	return rows, nil
}

// ClosedSectorBreakdown returns (sector_name, duration_seconds) pairs for
// every closed occupancy row of a flight, used to build the summary's
// per-sector breakdown (spec §4.E completion step 3).
func (r *OccupancyRepository) ClosedSectorBreakdown(ctx context.Context, callsign string) ([]dbmodels.SectorBreakdownEntry, error) {
	var rows []struct {
		SectorName      string `db:"sector_name"`
		DurationSeconds *int64 `db:"duration_seconds"`
	}
	if err := r.db.SelectContext(ctx, &rows, selectClosedOccupancyForCallsign, callsign); err != nil {
		return nil, fmt.Errorf("repositories: selecting closed occupancy rows: %w", err)
	}

	out := make([]dbmodels.SectorBreakdownEntry, 0, len(rows))
	for _, row := range rows {
		var d int64
		if row.DurationSeconds != nil {
			d = *row.DurationSeconds
		}
		out = append(out, dbmodels.SectorBreakdownEntry{SectorName: row.SectorName, DurationSeconds: d})
	}
	return out, nil
}
