package dbmodels

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// SectorBreakdownEntry is one row of the structured per-sector breakdown
// embedded in a flight summary (spec §3 "sector-breakdown (structured)").
type SectorBreakdownEntry struct {
	SectorName      string `json:"sector_name"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// SectorBreakdown is a JSONB-encoded slice of SectorBreakdownEntry.
type SectorBreakdown []SectorBreakdownEntry

// Value implements driver.Valuer for storing as JSONB.
func (b SectorBreakdown) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner for reading back from JSONB.
func (b *SectorBreakdown) Scan(src interface{}) error {
	if src == nil {
		*b = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("dbmodels: unsupported SectorBreakdown scan type %T", src)
	}
	return json.Unmarshal(raw, b)
}

// FlightSummary is the completion rollup created exactly once per completed
// flight (spec §3 "Flight summary", invariant 3).
type FlightSummary struct {
	ID                      int64           `db:"id"`
	Callsign                string          `db:"callsign"`
	PilotID                 int64           `db:"pilot_id"`
	PilotName               string          `db:"pilot_name"`
	AircraftType            string          `db:"aircraft_type"`
	Departure               string          `db:"departure"`
	Arrival                 string          `db:"arrival"`
	Route                   string          `db:"route"`
	FlightRules             string          `db:"flight_rules"`
	ControllerCallsigns     pq.StringArray  `db:"controller_callsigns"`
	ControllerTimePercentage int            `db:"controller_time_percentage"`
	TimeOnlineMinutes       int             `db:"time_online_minutes"`
	PrimaryEnrouteSector    string          `db:"primary_enroute_sector"`
	TotalEnrouteSectors     int             `db:"total_enroute_sectors"`
	TotalEnrouteTimeMinutes int             `db:"total_enroute_time_minutes"`
	SectorBreakdown         SectorBreakdown `db:"sector_breakdown"`
	CompletionTime          time.Time       `db:"completion_time"`
	DisconnectMethod        DisconnectMethod `db:"disconnect_method"`
}
