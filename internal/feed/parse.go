package feed

import (
	"strconv"
	"strings"
	"time"
)

// normalize converts the raw wire structures into the Snapshot the rest of
// the pipeline consumes. Records lacking a callsign are rejected outright
// (spec §4.A: "it rejects records that lack a callsign"); everything else is
// tolerated, with missing optional fields left unset. Range validation of
// numeric fields (spec §3 invariant 2) is intentionally left to the filter
// stage, which is the documented policy boundary, not the parser.
func normalize(raw *RawSnapshot, fetchedAt time.Time) *Snapshot {
	snap := &Snapshot{
		FetchedAt:       fetchedAt,
		UpstreamUpdated: parseTimestamp(raw.General.UpdateTimestamp),
	}

	for _, p := range raw.Pilots {
		obs, ok := normalizePilot(p)
		if !ok {
			snap.SkippedPilots++
			continue
		}
		snap.Pilots = append(snap.Pilots, obs)
	}

	for _, ctl := range raw.Controllers {
		obs, ok := normalizeController(ctl)
		if !ok {
			snap.SkippedControllers++
			continue
		}
		snap.Controllers = append(snap.Controllers, obs)
	}
	for _, ctl := range raw.ATIS {
		obs, ok := normalizeController(ctl)
		if !ok {
			snap.SkippedControllers++
			continue
		}
		snap.Controllers = append(snap.Controllers, obs)
	}

	return snap
}

func normalizePilot(p RawPilot) (FlightObservation, bool) {
	callsign := strings.TrimSpace(p.Callsign)
	if callsign == "" {
		return FlightObservation{}, false
	}

	obs := FlightObservation{
		Callsign:    callsign,
		PilotID:     p.CID,
		PilotName:   p.Name,
		Server:      p.Server,
		PilotRating: p.PilotRating,
		Transponder: p.Transponder,
		LogonTime:   parseTimestamp(p.LogonTime),
		LastUpdated: parseTimestamp(p.LastUpdated),
	}

	if p.Latitude != nil && p.Longitude != nil {
		obs.Latitude = *p.Latitude
		obs.Longitude = *p.Longitude
		obs.HasPosition = true
	}
	if p.Altitude != nil {
		obs.Altitude = *p.Altitude
	}
	if p.Heading != nil {
		obs.Heading = *p.Heading
	}
	if p.Groundspeed != nil {
		obs.Groundspeed = *p.Groundspeed
	}
	if p.QNHMb != 0 {
		obs.QNH = p.QNHMb
	} else {
		obs.QNH = p.QNHInHg
	}

	if p.FlightPlan != nil {
		fp := p.FlightPlan
		obs.Departure = strings.ToUpper(strings.TrimSpace(fp.Departure))
		obs.Arrival = strings.ToUpper(strings.TrimSpace(fp.Arrival))
		obs.Alternate = strings.ToUpper(strings.TrimSpace(fp.Alternate))
		obs.Route = fp.Route
		obs.FlightRules = fp.FlightRules
		obs.AircraftType = firstNonEmpty(fp.AircraftShort, fp.AircraftFAA)
		obs.CruiseTAS = atoiOrZero(fp.CruiseTAS)
		obs.PlannedAltitude = atofOrZero(fp.Altitude)
		obs.DepTime = fp.DepTime
		obs.EnrouteTime = fp.EnrouteTime
		obs.FuelTime = fp.FuelTime
		obs.Remarks = fp.Remarks
		obs.RevisionID = fp.RevisionID
		obs.AssignedTransponder = fp.AssignedTransponder
	}

	return obs, true
}

func normalizeController(c RawController) (ControllerObservation, bool) {
	callsign := strings.TrimSpace(c.Callsign)
	if callsign == "" {
		return ControllerObservation{}, false
	}

	return ControllerObservation{
		Callsign:     callsign,
		ControllerID: c.CID,
		Name:         c.Name,
		Rating:       c.Rating,
		Facility:     c.Facility,
		VisualRange:  c.VisualRange,
		Frequency:    c.Frequency,
		TextATIS:     c.TextATIS,
		Server:       c.Server,
		LogonTime:    parseTimestamp(c.LogonTime),
		LastUpdated:  parseTimestamp(c.LastUpdated),
	}, true
}

// NormalizeTransceivers converts the separate transceivers-endpoint payload.
// Exported because the Feed Client fetches it through a distinct request
// (spec §6: "A separate fetch and normalization per endpoint").
func NormalizeTransceivers(entries []RawTransceiverEntry, observedAt time.Time) []TransceiverObservation {
	var out []TransceiverObservation
	for _, e := range entries {
		callsign := strings.TrimSpace(e.Callsign)
		if callsign == "" {
			continue
		}
		for _, u := range e.Transceivers {
			out = append(out, TransceiverObservation{
				Callsign:      callsign,
				TransceiverID: u.ID,
				Frequency:     u.Frequency,
				Latitude:      u.LatDeg,
				Longitude:     u.LonDeg,
				HeightMSL:     u.HeightMSLM,
				HeightAGL:     u.HeightAGLM,
				Timestamp:     observedAt,
			})
		}
	}
	return out
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Second)
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func atofOrZero(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
