package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ddlStatements are the idempotent CREATE TABLE / CREATE INDEX statements for
// every table named in spec §3/§6, written as raw SQL the way the teacher
// hand-writes queries in internal/constants/queries.go rather than relying on
// GORM AutoMigrate for the hot-path tables.
var ddlStatements = []string{
	`CREATE TABLE IF NOT EXISTS airports (
		icao         varchar(4) PRIMARY KEY,
		name         text NOT NULL,
		latitude     double precision NOT NULL CHECK (latitude BETWEEN -90 AND 90),
		longitude    double precision NOT NULL CHECK (longitude BETWEEN -180 AND 180),
		elevation_ft integer,
		country      varchar(100),
		region       varchar(100),
		active       boolean NOT NULL DEFAULT true
	)`,

	`CREATE TABLE IF NOT EXISTS controllers (
		callsign        varchar(32) PRIMARY KEY,
		controller_id   bigint NOT NULL,
		name            text NOT NULL,
		rating          integer NOT NULL CHECK (rating BETWEEN -1 AND 12),
		facility        integer NOT NULL CHECK (facility BETWEEN 0 AND 6),
		visual_range    integer NOT NULL DEFAULT 0,
		text_atis       text,
		frequency       varchar(16),
		server          varchar(64),
		logon_time      timestamptz,
		last_updated    timestamptz NOT NULL,
		first_seen      timestamptz NOT NULL DEFAULT now(),
		last_seen_local timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_controllers_last_seen ON controllers (callsign, last_seen_local)`,

	`CREATE TABLE IF NOT EXISTS controllers_archive (
		callsign        varchar(32) PRIMARY KEY,
		controller_id   bigint NOT NULL,
		name            text,
		rating          integer,
		facility        integer,
		visual_range    integer,
		text_atis       text,
		frequency       varchar(16),
		server          varchar(64),
		logon_time      timestamptz,
		last_updated    timestamptz,
		first_seen      timestamptz,
		last_seen_local timestamptz,
		archived_at     timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS flights (
		callsign             varchar(16) PRIMARY KEY,
		pilot_id             bigint NOT NULL,
		pilot_name           text,
		aircraft_type        varchar(32),
		latitude             double precision NOT NULL CHECK (latitude BETWEEN -90 AND 90),
		longitude            double precision NOT NULL CHECK (longitude BETWEEN -180 AND 180),
		altitude             double precision NOT NULL CHECK (altitude BETWEEN -1000 AND 100000),
		heading              double precision NOT NULL CHECK (heading BETWEEN 0 AND 360),
		groundspeed          double precision NOT NULL CHECK (groundspeed >= 0),
		transponder          varchar(8),
		qnh                  double precision,
		departure            varchar(4),
		arrival              varchar(4),
		alternate            varchar(4),
		route                text,
		planned_altitude     double precision,
		flight_rules         varchar(4),
		cruise_tas           integer,
		dep_time             varchar(8),
		enroute_time         varchar(8),
		fuel_time            varchar(8),
		remarks              text,
		revision_id          integer,
		assigned_transponder varchar(8),
		logon_time           timestamptz,
		last_updated         timestamptz NOT NULL,
		last_updated_local   timestamptz NOT NULL DEFAULT now(),
		first_seen           timestamptz NOT NULL DEFAULT now(),
		status               varchar(16) NOT NULL DEFAULT 'active'
			CHECK (status IN ('active','stale','landed','completed','cancelled','unknown')),
		stale_since          timestamptz,
		landed_at            timestamptz,
		landed_arrival       varchar(4),
		disconnected_at      timestamptz,
		disconnect_method    varchar(16)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_flights_last_updated ON flights (callsign, last_updated)`,
	`CREATE INDEX IF NOT EXISTS idx_flights_status_landed ON flights (status) WHERE status = 'landed'`,

	`CREATE TABLE IF NOT EXISTS flights_archive (
		callsign    varchar(16) PRIMARY KEY,
		pilot_id    bigint,
		pilot_name  text,
		departure   varchar(4),
		arrival     varchar(4),
		first_seen  timestamptz,
		archived_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS transceivers (
		callsign       varchar(32) NOT NULL,
		transceiver_id integer NOT NULL,
		"timestamp"    timestamptz NOT NULL,
		frequency      bigint NOT NULL CHECK (frequency >= 0),
		latitude       double precision NOT NULL CHECK (latitude BETWEEN -90 AND 90),
		longitude      double precision NOT NULL CHECK (longitude BETWEEN -180 AND 180),
		height_msl     double precision,
		height_agl     double precision,
		entity_type    varchar(8) NOT NULL CHECK (entity_type IN ('flight','atc')),
		entity_id      text,
		PRIMARY KEY (callsign, transceiver_id, "timestamp")
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transceivers_correlator
		ON transceivers (entity_type, callsign, "timestamp", frequency, latitude, longitude)`,

	`CREATE TABLE IF NOT EXISTS flight_sector_occupancy (
		id               bigserial PRIMARY KEY,
		callsign         varchar(16) NOT NULL,
		sector_name      varchar(64) NOT NULL,
		entry_timestamp  timestamptz NOT NULL,
		exit_timestamp   timestamptz,
		entry_latitude   double precision NOT NULL,
		entry_longitude  double precision NOT NULL,
		exit_latitude    double precision,
		exit_longitude   double precision,
		entry_altitude   double precision NOT NULL,
		exit_altitude    double precision,
		duration_seconds bigint CHECK (duration_seconds IS NULL OR duration_seconds >= 0),
		CHECK (exit_timestamp IS NULL OR exit_timestamp >= entry_timestamp)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_occupancy_callsign_sector
		ON flight_sector_occupancy (callsign, sector_name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_occupancy_open_row
		ON flight_sector_occupancy (callsign, sector_name) WHERE exit_timestamp IS NULL`,

	`CREATE TABLE IF NOT EXISTS flight_summaries (
		id                          bigserial PRIMARY KEY,
		callsign                    varchar(16) NOT NULL,
		pilot_id                    bigint,
		pilot_name                  text,
		aircraft_type               varchar(32),
		departure                   varchar(4),
		arrival                     varchar(4),
		route                       text,
		flight_rules                varchar(4),
		controller_callsigns        text[] NOT NULL DEFAULT '{}',
		controller_time_percentage  integer NOT NULL DEFAULT 0 CHECK (controller_time_percentage BETWEEN 0 AND 100),
		time_online_minutes         integer NOT NULL DEFAULT 0,
		primary_enroute_sector      varchar(64),
		total_enroute_sectors       integer NOT NULL DEFAULT 0,
		total_enroute_time_minutes  integer NOT NULL DEFAULT 0,
		sector_breakdown            jsonb NOT NULL DEFAULT '[]',
		completion_time             timestamptz NOT NULL,
		disconnect_method           varchar(16)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_flight_summaries_callsign_completion
		ON flight_summaries (callsign, completion_time)`,
}

// Bootstrap creates every table and index this service owns, idempotently.
// It is invoked automatically at ingestd startup and can also be run
// standalone via cmd/migrate.
func Bootstrap(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range ddlStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: schema statement %d failed: %w", i, err)
		}
	}
	return nil
}
