package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ControllerArchiveRepository implements the background archival worker's
// read/archive/delete cycle for stale controllers (spec §5 "background
// cleanup/archival worker"): copy to controllers_archive, then delete from
// the live table, one callsign transactionally at a time.
type ControllerArchiveRepository struct {
	db *sqlx.DB
}

// NewControllerArchiveRepository builds a ControllerArchiveRepository.
func NewControllerArchiveRepository(db *sqlx.DB) *ControllerArchiveRepository {
	return &ControllerArchiveRepository{db: db}
}

// StaleCallsigns returns every controller whose last_updated predates the
// archival cutoff.
func (r *ControllerArchiveRepository) StaleCallsigns(ctx context.Context, cutoff time.Time) ([]string, error) {
	var callsigns []string
	if err := r.db.SelectContext(ctx, &callsigns, selectStaleControllers, cutoff); err != nil {
		return nil, fmt.Errorf("repositories: selecting stale controllers: %w", err)
	}
	return callsigns, nil
}

// Archive moves one controller row into controllers_archive and removes it
// from the live table, in a single transaction so a row is never lost
// between the copy and the delete.
func (r *ControllerArchiveRepository) Archive(ctx context.Context, callsign string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repositories: begin archive tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertControllerArchive, callsign); err != nil {
		return fmt.Errorf("repositories: archiving controller %s: %w", callsign, err)
	}
	if _, err := tx.ExecContext(ctx, deleteController, callsign); err != nil {
		return fmt.Errorf("repositories: deleting archived controller %s: %w", callsign, err)
	}
	return tx.Commit()
}
