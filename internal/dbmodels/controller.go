package dbmodels

import "time"

// Controller mirrors spec §3 "Controller". The row is inserted on first
// appearance, upserted on every tick while present, and archived (moved to
// ControllerArchive) when absent for the archival threshold.
type Controller struct {
	Callsign      string    `gorm:"column:callsign;primaryKey;type:varchar(32)" db:"callsign"`
	ControllerID  int64     `gorm:"column:controller_id" db:"controller_id"`
	Name          string    `gorm:"column:name" db:"name"`
	Rating        int       `gorm:"column:rating" db:"rating"`
	Facility      int       `gorm:"column:facility" db:"facility"`
	VisualRange   int       `gorm:"column:visual_range" db:"visual_range"`
	TextATIS      string    `gorm:"column:text_atis" db:"text_atis"`
	Frequency     string    `gorm:"column:frequency" db:"frequency"`
	Server        string    `gorm:"column:server" db:"server"`
	LogonTime     time.Time `gorm:"column:logon_time" db:"logon_time"`
	LastUpdated   time.Time `gorm:"column:last_updated" db:"last_updated"`
	FirstSeen     time.Time `gorm:"column:first_seen" db:"first_seen"`
	LastSeenLocal time.Time `gorm:"column:last_seen_local" db:"last_seen_local"`
}

// TableName specifies the table name for GORM.
func (Controller) TableName() string { return "controllers" }

// ControllerArchive holds controllers moved out of the live table after the
// archival threshold (spec §5 background cleanup/archival worker).
type ControllerArchive struct {
	Callsign      string    `gorm:"column:callsign;primaryKey;type:varchar(32)" db:"callsign"`
	ControllerID  int64     `gorm:"column:controller_id" db:"controller_id"`
	Name          string    `gorm:"column:name" db:"name"`
	Rating        int       `gorm:"column:rating" db:"rating"`
	Facility      int       `gorm:"column:facility" db:"facility"`
	VisualRange   int       `gorm:"column:visual_range" db:"visual_range"`
	TextATIS      string    `gorm:"column:text_atis" db:"text_atis"`
	Frequency     string    `gorm:"column:frequency" db:"frequency"`
	Server        string    `gorm:"column:server" db:"server"`
	LogonTime     time.Time `gorm:"column:logon_time" db:"logon_time"`
	LastUpdated   time.Time `gorm:"column:last_updated" db:"last_updated"`
	FirstSeen     time.Time `gorm:"column:first_seen" db:"first_seen"`
	LastSeenLocal time.Time `gorm:"column:last_seen_local" db:"last_seen_local"`
	ArchivedAt    time.Time `gorm:"column:archived_at" db:"archived_at"`
}

// TableName specifies the table name for GORM.
func (ControllerArchive) TableName() string { return "controllers_archive" }
