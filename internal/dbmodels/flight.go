package dbmodels

import "time"

// FlightStatus is the short-string status enumeration of spec §3/§6,
// enforced in Postgres by a check constraint (see internal/db/schema.go).
type FlightStatus string

const (
	StatusActive    FlightStatus = "active"
	StatusStale     FlightStatus = "stale"
	StatusLanded    FlightStatus = "landed"
	StatusCompleted FlightStatus = "completed"
	StatusCancelled FlightStatus = "cancelled"
	StatusUnknown   FlightStatus = "unknown"
)

// Valid reports whether s is one of the enumerated statuses.
func (s FlightStatus) Valid() bool {
	switch s {
	case StatusActive, StatusStale, StatusLanded, StatusCompleted, StatusCancelled, StatusUnknown:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status (completed/cancelled),
// from which no further transition is possible (spec §4.E transition table).
func (s FlightStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DisconnectMethod records how a landed flight reached completed.
type DisconnectMethod string

const (
	DisconnectDetected DisconnectMethod = "detected"
	DisconnectTimeout  DisconnectMethod = "timeout"
	DisconnectCancel   DisconnectMethod = "cancel"
)

// Flight mirrors spec §3 "Flight". Latitude/longitude/altitude/heading are
// the most recently observed values; flight-plan fields are copied verbatim
// from the feed's nested flight_plan object.
type Flight struct {
	Callsign     string  `gorm:"column:callsign;primaryKey;type:varchar(16)" db:"callsign"`
	PilotID      int64   `gorm:"column:pilot_id" db:"pilot_id"`
	PilotName    string  `gorm:"column:pilot_name" db:"pilot_name"`
	AircraftType string  `gorm:"column:aircraft_type" db:"aircraft_type"`

	Latitude    float64 `gorm:"column:latitude" db:"latitude"`
	Longitude   float64 `gorm:"column:longitude" db:"longitude"`
	Altitude    float64 `gorm:"column:altitude" db:"altitude"`
	Heading     float64 `gorm:"column:heading" db:"heading"`
	Groundspeed float64 `gorm:"column:groundspeed" db:"groundspeed"`
	Transponder string  `gorm:"column:transponder" db:"transponder"`
	QNH         float64 `gorm:"column:qnh" db:"qnh"`

	Departure           string  `gorm:"column:departure" db:"departure"`
	Arrival             string  `gorm:"column:arrival" db:"arrival"`
	Alternate           string  `gorm:"column:alternate" db:"alternate"`
	Route               string  `gorm:"column:route" db:"route"`
	PlannedAltitude     float64 `gorm:"column:planned_altitude" db:"planned_altitude"`
	FlightRules         string  `gorm:"column:flight_rules" db:"flight_rules"`
	CruiseTAS           int     `gorm:"column:cruise_tas" db:"cruise_tas"`
	DepTime             string  `gorm:"column:dep_time" db:"dep_time"`
	EnrouteTime         string  `gorm:"column:enroute_time" db:"enroute_time"`
	FuelTime            string  `gorm:"column:fuel_time" db:"fuel_time"`
	Remarks             string  `gorm:"column:remarks" db:"remarks"`
	RevisionID          int     `gorm:"column:revision_id" db:"revision_id"`
	AssignedTransponder string  `gorm:"column:assigned_transponder" db:"assigned_transponder"`

	LogonTime       time.Time    `gorm:"column:logon_time" db:"logon_time"`
	LastUpdated     time.Time    `gorm:"column:last_updated" db:"last_updated"`
	LastUpdatedLocal time.Time   `gorm:"column:last_updated_local" db:"last_updated_local"`
	FirstSeen       time.Time    `gorm:"column:first_seen" db:"first_seen"`

	Status FlightStatus `gorm:"column:status;type:varchar(16)" db:"status"`

	// Lifecycle bookkeeping, not part of the feed payload.
	StaleSince       *time.Time        `gorm:"column:stale_since" db:"stale_since"`
	LandedAt         *time.Time        `gorm:"column:landed_at" db:"landed_at"`
	LandedArrival    string            `gorm:"column:landed_arrival" db:"landed_arrival"`
	DisconnectedAt   *time.Time        `gorm:"column:disconnected_at" db:"disconnected_at"`
	DisconnectMethod *DisconnectMethod `gorm:"column:disconnect_method;type:varchar(16)" db:"disconnect_method"`
}

// TableName specifies the table name for GORM.
func (Flight) TableName() string { return "flights" }

// FlightArchive holds the identifying fields (pilot, airports, first-seen
// time) of completed flights once moved out of the live table; it carries
// no sample history (spec §4.E step 5, optional/configurable).
type FlightArchive struct {
	Callsign   string    `gorm:"column:callsign;primaryKey;type:varchar(16)" db:"callsign"`
	PilotID    int64     `gorm:"column:pilot_id" db:"pilot_id"`
	PilotName  string    `gorm:"column:pilot_name" db:"pilot_name"`
	Departure  string    `gorm:"column:departure" db:"departure"`
	Arrival    string    `gorm:"column:arrival" db:"arrival"`
	FirstSeen  time.Time `gorm:"column:first_seen" db:"first_seen"`
	ArchivedAt time.Time `gorm:"column:archived_at" db:"archived_at"`
}

// TableName specifies the table name for GORM.
func (FlightArchive) TableName() string { return "flights_archive" }
