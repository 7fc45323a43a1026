package feed

// RawSnapshot is the top-level shape of the upstream JSON feed (spec §6):
// three entity arrays plus a general block carrying the feed's own
// timestamp. Field names mirror the wire format; optional fields use
// pointers so the parser can tell "absent" from "zero".
type RawSnapshot struct {
	General     RawGeneral      `json:"general"`
	Pilots      []RawPilot      `json:"pilots"`
	Controllers []RawController `json:"controllers"`
	ATIS        []RawController `json:"atis"`
}

// RawGeneral carries the feed-side update timestamp.
type RawGeneral struct {
	UpdateTimestamp string `json:"update_timestamp"`
}

// RawFlightPlan is the nested flight_plan object of a pilot record.
type RawFlightPlan struct {
	FlightRules         string  `json:"flight_rules"`
	AircraftShort        string  `json:"aircraft_short"`
	AircraftFAA          string  `json:"aircraft_faa"`
	Departure            string  `json:"departure"`
	Arrival              string  `json:"arrival"`
	Alternate            string  `json:"alternate"`
	CruiseTAS            string  `json:"cruise_tas"`
	Altitude             string  `json:"altitude"`
	DepTime              string  `json:"deptime"`
	EnrouteTime          string  `json:"enroute_time"`
	FuelTime             string  `json:"fuel_time"`
	Remarks              string  `json:"remarks"`
	RevisionID           int     `json:"revision_id"`
	Route                string  `json:"route"`
	AssignedTransponder  string  `json:"assigned_transponder"`
}

// RawPilot is one entry of the feed's "pilots" array.
type RawPilot struct {
	Callsign       string         `json:"callsign"`
	CID            int64          `json:"cid"`
	Name           string         `json:"name"`
	Server         string         `json:"server"`
	PilotRating    int            `json:"pilot_rating"`
	MilitaryRating int            `json:"military_rating"`
	Latitude       *float64       `json:"latitude"`
	Longitude      *float64       `json:"longitude"`
	Altitude       *float64       `json:"altitude"`
	Groundspeed    *float64       `json:"groundspeed"`
	Heading        *float64       `json:"heading"`
	Transponder    string         `json:"transponder"`
	QNHInHg        float64        `json:"qnh_i_hg"`
	QNHMb          float64        `json:"qnh_mb"`
	LogonTime      string         `json:"logon_time"`
	LastUpdated    string         `json:"last_updated"`
	FlightPlan     *RawFlightPlan `json:"flight_plan"`
}

// RawController is one entry of the feed's "controllers" (or "atis") array.
type RawController struct {
	Callsign    string  `json:"callsign"`
	CID         int64   `json:"cid"`
	Name        string  `json:"name"`
	Rating      int     `json:"rating"`
	Facility    int     `json:"facility"`
	VisualRange int     `json:"visual_range"`
	Frequency   string  `json:"frequency"`
	TextATIS    string  `json:"text_atis"`
	Server      string  `json:"server"`
	LogonTime   string  `json:"logon_time"`
	LastUpdated string  `json:"last_updated"`
}

// RawTransceiverEntry is one entry of the separate transceivers endpoint.
type RawTransceiverEntry struct {
	Callsign     string              `json:"callsign"`
	Transceivers []RawTransceiverUnit `json:"transceivers"`
}

// RawTransceiverUnit is a single radio unit attached to a callsign.
type RawTransceiverUnit struct {
	ID          int     `json:"id"`
	Frequency   int64   `json:"frequency"`
	LatDeg      float64 `json:"latDeg"`
	LonDeg      float64 `json:"lonDeg"`
	HeightMSLM  float64 `json:"heightMslM"`
	HeightAGLM  float64 `json:"heightAglM"`
}
