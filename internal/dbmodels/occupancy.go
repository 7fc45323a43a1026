package dbmodels

import "time"

// FlightSectorOccupancy is one continuous traversal of one sector by one
// flight (spec §3 "Flight sector occupancy"). Invariant: for a given
// (callsign, sector_name) pair, at most one row has ExitTimestamp nil.
type FlightSectorOccupancy struct {
	ID              int64      `gorm:"column:id;primaryKey" db:"id"`
	Callsign        string     `gorm:"column:callsign" db:"callsign"`
	SectorName      string     `gorm:"column:sector_name" db:"sector_name"`
	EntryTimestamp  time.Time  `gorm:"column:entry_timestamp" db:"entry_timestamp"`
	ExitTimestamp   *time.Time `gorm:"column:exit_timestamp" db:"exit_timestamp"`
	EntryLatitude   float64    `gorm:"column:entry_latitude" db:"entry_latitude"`
	EntryLongitude  float64    `gorm:"column:entry_longitude" db:"entry_longitude"`
	ExitLatitude    *float64   `gorm:"column:exit_latitude" db:"exit_latitude"`
	ExitLongitude   *float64   `gorm:"column:exit_longitude" db:"exit_longitude"`
	EntryAltitude   float64    `gorm:"column:entry_altitude" db:"entry_altitude"`
	ExitAltitude    *float64   `gorm:"column:exit_altitude" db:"exit_altitude"`
	DurationSeconds *int64     `gorm:"column:duration_seconds" db:"duration_seconds"`
}

// Open reports whether the row is still open (no exit recorded).
func (o *FlightSectorOccupancy) Open() bool { return o.ExitTimestamp == nil }

// TableName specifies the table name for GORM.
func (FlightSectorOccupancy) TableName() string { return "flight_sector_occupancy" }
