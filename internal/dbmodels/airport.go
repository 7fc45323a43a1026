package dbmodels

import "database/sql"

// Airport is read-only reference data (spec §3 "Airport"). It is loaded once
// by cmd/loadref; the running service does not read this table, since
// internal/airspace builds its airport table from the airports CSV.
type Airport struct {
	ICAO      string        `gorm:"column:icao;primaryKey;type:varchar(4)"`
	Name      string        `gorm:"column:name;type:text;not null"`
	Latitude  float64       `gorm:"column:latitude;type:double precision;not null"`
	Longitude float64       `gorm:"column:longitude;type:double precision;not null"`
	Elevation sql.NullInt64 `gorm:"column:elevation_ft;type:integer"`
	Country   string        `gorm:"column:country;type:varchar(100)"`
	Region    string        `gorm:"column:region;type:varchar(100)"`
	Active    bool          `gorm:"column:active;default:true"`
}

// TableName specifies the table name for GORM.
func (Airport) TableName() string { return "airports" }
