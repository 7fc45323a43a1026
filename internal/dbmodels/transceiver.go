package dbmodels

import "time"

// EntityType classifies a transceiver sample's owner (spec §3 invariant 2).
type EntityType string

const (
	EntityFlight EntityType = "flight"
	EntityATC    EntityType = "atc"
)

// TransceiverSample is an append-only time-series row (spec §3
// "Transceiver sample"), keyed by (callsign, transceiver_id, timestamp).
type TransceiverSample struct {
	Callsign      string     `gorm:"column:callsign" db:"callsign"`
	TransceiverID int        `gorm:"column:transceiver_id" db:"transceiver_id"`
	Timestamp     time.Time  `gorm:"column:timestamp" db:"timestamp"`
	Frequency     int64      `gorm:"column:frequency" db:"frequency"`
	Latitude      float64    `gorm:"column:latitude" db:"latitude"`
	Longitude     float64    `gorm:"column:longitude" db:"longitude"`
	HeightMSL     float64    `gorm:"column:height_msl" db:"height_msl"`
	HeightAGL     float64    `gorm:"column:height_agl" db:"height_agl"`
	EntityType    EntityType `gorm:"column:entity_type" db:"entity_type"`
	EntityID      *string    `gorm:"column:entity_id" db:"entity_id"`
}

// TableName specifies the table name for GORM.
func (TransceiverSample) TableName() string { return "transceivers" }
