package repositories

// SQL text for the sqlx-backed read/archive paths of the Persistence
// Layer (spec §4.G), following the teacher's constants package pattern
// (internal/constants/queries.go) of naming each statement for reuse.
const (
	selectFlightTransceiverSamples = `
	SELECT callsign, transceiver_id, timestamp, frequency, latitude, longitude,
	       height_msl, height_agl, entity_type, entity_id
	FROM transceivers
	WHERE entity_type = 'flight' AND callsign = $1 AND timestamp BETWEEN $2 AND $3
	ORDER BY timestamp
	`

	selectControllerTransceiverSamples = `
	SELECT t.callsign, c.facility, t.frequency, t.latitude, t.longitude, t.timestamp
	FROM transceivers t
	JOIN controllers c ON c.callsign = t.callsign
	WHERE t.entity_type = 'atc' AND t.timestamp BETWEEN $1 AND $2
	ORDER BY t.timestamp
	`

	insertFlightSummary = `
	INSERT INTO flight_summaries (
		callsign, pilot_id, departure, arrival, controller_callsigns,
		controller_time_percentage, time_online_minutes, primary_enroute_sector,
		total_enroute_sectors, total_enroute_time_minutes, sector_breakdown,
		completion_time, disconnect_method
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
	)
	ON CONFLICT (callsign, completion_time) DO NOTHING
	`

	selectStaleControllers = `
	SELECT callsign FROM controllers WHERE last_updated < $1
	`

	deleteController = `
	DELETE FROM controllers WHERE callsign = $1
	`

	insertControllerArchive = `
	INSERT INTO controllers_archive (
		callsign, controller_id, name, rating, facility, visual_range,
		text_atis, frequency, server, logon_time, last_updated, first_seen,
		last_seen_local, archived_at
	)
	SELECT callsign, controller_id, name, rating, facility, visual_range,
	       text_atis, frequency, server, logon_time, last_updated, first_seen,
	       last_seen_local, NOW()
	FROM controllers WHERE callsign = $1
	`

	selectOpenOccupancyForCallsign = `
	SELECT id, callsign, sector_name, entry_timestamp, exit_timestamp,
	       entry_latitude, entry_longitude, exit_latitude, exit_longitude,
	       entry_altitude, exit_altitude, duration_seconds
	FROM flight_sector_occupancy
	WHERE callsign = $1 AND exit_timestamp IS NULL
	`

	selectClosedOccupancyForCallsign = `
	SELECT sector_name, duration_seconds
	FROM flight_sector_occupancy
	WHERE callsign = $1 AND exit_timestamp IS NOT NULL
	ORDER BY entry_timestamp
	`
)
