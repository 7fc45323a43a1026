// Package filter implements the Filter Pipeline (spec §4.C): a layered,
// pure predicate chain deciding which controllers and flights from a tick's
// snapshot are in scope for persistence.
package filter

import (
	"strings"

	"github.com/vatpac-net/ingestd/internal/airspace"
	"github.com/vatpac-net/ingestd/internal/feed"
)

// Result accounts for one tick's filtering pass, matching the counters the
// spec requires the pipeline to report.
type Result struct {
	TotalProcessed int
	Included       int
	Excluded       int
	Uncertain      int
}

// Pipeline applies the controller-callsign and flight filters against an
// airspace.Store snapshot. It never mutates its inputs and never panics:
// every test is pure, matching spec §4.C's failure semantics.
type Pipeline struct {
	ref                   *airspace.Store
	caseSensitive         bool
	controllerFilterOn    bool
}

// New builds a Pipeline. caseSensitive controls controller callsign
// matching (spec §4.C: "Case-sensitive by default; configurable").
// controllerFilterEnabled mirrors the callsign_filter_enabled config key.
func New(ref *airspace.Store, caseSensitive bool, controllerFilterEnabled bool) *Pipeline {
	return &Pipeline{ref: ref, caseSensitive: caseSensitive, controllerFilterOn: controllerFilterEnabled}
}

// FilterControllers partitions observations into the included set and a
// count of exclusions. Excluded controllers are counted but never returned
// (spec §4.C: "Excluded controllers are counted but not persisted").
func (p *Pipeline) FilterControllers(obs []feed.ControllerObservation) ([]feed.ControllerObservation, Result) {
	res := Result{TotalProcessed: len(obs)}
	if !p.controllerFilterOn {
		res.Included = len(obs)
		return obs, res
	}

	included := make([]feed.ControllerObservation, 0, len(obs))
	for _, c := range obs {
		if p.controllerAllowed(c.Callsign) {
			included = append(included, c)
			res.Included++
		} else {
			res.Excluded++
		}
	}
	return included, res
}

func (p *Pipeline) controllerAllowed(callsign string) bool {
	if p.caseSensitive {
		return p.ref.IsValidController(callsign)
	}
	return p.ref.IsValidController(strings.ToUpper(callsign))
}

// Decision classifies why a single flight observation was kept or dropped.
type Decision int

const (
	// DecisionExcluded means the flight was dropped by the first test able
	// to resolve it: no regional airport code, or valid coordinates outside
	// the region boundary.
	DecisionExcluded Decision = iota
	// DecisionIncludedAirport means the airport-prefix test resolved the
	// flight as in-region.
	DecisionIncludedAirport
	// DecisionIncludedGeo means the geographic polygon test resolved the
	// flight as in-region.
	DecisionIncludedGeo
	// DecisionUncertain means neither test could resolve the flight, so it
	// was conservatively included (spec §4.C test 3).
	DecisionUncertain
)

// FilterFlights applies the three-stage flight filter in order, first
// failure/success wins (spec §4.C).
func (p *Pipeline) FilterFlights(obs []feed.FlightObservation) ([]feed.FlightObservation, Result) {
	res := Result{TotalProcessed: len(obs)}
	included := make([]feed.FlightObservation, 0, len(obs))

	for _, f := range obs {
		switch p.decideFlight(f) {
		case DecisionIncludedAirport, DecisionIncludedGeo:
			included = append(included, f)
			res.Included++
		case DecisionUncertain:
			included = append(included, f)
			res.Included++
			res.Uncertain++
		default:
			res.Excluded++
		}
	}
	return included, res
}

// decideFlight runs the three ordered tests of spec §4.C. Tests are applied
// in sequence and the first one able to resolve the flight wins ("first
// failure drops the flight"): if either airport field is present, the
// prefix test alone decides the outcome and the geo test is never
// consulted, matching scenario 2 of spec §8 (a flight with both EGLL/KLAX
// set is dropped even though its position test is never run). It never
// panics: a malformed record (missing airport codes AND missing/invalid
// coordinates) is treated as "coordinates missing" and falls through to the
// conservative default.
func (p *Pipeline) decideFlight(f feed.FlightObservation) Decision {
	hasDeparture := strings.TrimSpace(f.Departure) != ""
	hasArrival := strings.TrimSpace(f.Arrival) != ""

	if hasDeparture || hasArrival {
		if (hasDeparture && p.ref.IsRegionalAirport(f.Departure)) ||
			(hasArrival && p.ref.IsRegionalAirport(f.Arrival)) {
			return DecisionIncludedAirport
		}
		return DecisionExcluded
	}

	if f.HasPosition && validCoordinates(f.Latitude, f.Longitude) {
		if p.ref.PointInBoundary(f.Latitude, f.Longitude) {
			return DecisionIncludedGeo
		}
		return DecisionExcluded
	}

	return DecisionUncertain
}

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
