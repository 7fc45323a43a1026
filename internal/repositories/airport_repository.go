package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vatpac-net/ingestd/internal/dbmodels"
)

// AirportRepository persists the airport reference table, grounded on the
// teacher's AirportRepository (internal/db/repositories/airport_repository.go).
type AirportRepository struct {
	db *gorm.DB
}

// NewAirportRepository builds an AirportRepository.
func NewAirportRepository(db *gorm.DB) *AirportRepository {
	return &AirportRepository{db: db}
}

// FindByICAO finds an airport by ICAO code (case-insensitive).
func (r *AirportRepository) FindByICAO(ctx context.Context, icao string) (*dbmodels.Airport, error) {
	var airport dbmodels.Airport
	err := r.db.WithContext(ctx).Where("UPPER(icao) = UPPER(?)", icao).First(&airport).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &airport, nil
}

// UpsertBatch bulk-upserts airport rows keyed on icao, used by the
// one-shot reference loader (cmd/loadref).
func (r *AirportRepository) UpsertBatch(ctx context.Context, airports []dbmodels.Airport) error {
	if len(airports) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "icao"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "latitude", "longitude", "elevation_ft", "country", "region", "active",
		}),
	}).CreateInBatches(&airports, 500).Error
	if err != nil {
		return fmt.Errorf("repositories: upserting airports batch: %w", err)
	}
	return nil
}
