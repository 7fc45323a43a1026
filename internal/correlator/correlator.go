// Package correlator implements the ATC coverage Correlator (spec §4.H):
// given a completed flight's callsign and active lifetime, it determines
// what fraction of the flight's transceiver samples were "covered" by a
// non-observer controller transmission on the same frequency, nearby in
// time and space.
package correlator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vatpac-net/ingestd/internal/cache"
	"github.com/vatpac-net/ingestd/internal/dbmodels"
	"github.com/vatpac-net/ingestd/internal/geo"
	"github.com/vatpac-net/ingestd/internal/metrics"
)

// controllerSampleCacheTTL bounds how long a ControllerSamples query result
// is reused across flights completing within the same window: many flights
// landing within a few seconds of each other query nearly the same [t0-180s,
// t1+180s] controller window, so memoizing it saves a repeat scan of the
// same rows (grounded on the teacher's CacheService fronting a database
// read, internal/common/cache_service.go).
const controllerSampleCacheTTL = 30 * time.Second

// controllerSampleCacheQuantum buckets the window bounds to the nearest 30s
// so that nearby completions share a cache key instead of each minting its
// own.
const controllerSampleCacheQuantum = 30 * time.Second

// maxMatchDistance is the distance bound of spec §4.H. matchController
// compares it against geo.HaversineNM, so it is applied as a great-circle
// distance of 300 nautical miles.
const maxMatchDistance = 300.0

// maxMatchWindow is the time bound for matching a flight sample to a
// controller sample (spec §4.H).
const maxMatchWindow = 180 * time.Second

// facilityOBS is the controller facility code the spec excludes from
// coverage matching ("the controller is not of facility-type OBS").
const facilityOBS = 0

// SampleSource provides the transceiver samples the Correlator needs. It is
// an interface so the Correlator stays independent of the persistence
// layer, the way the teacher keeps services decoupled from repositories
// via constructor-injected interfaces.
type SampleSource interface {
	FlightSamples(ctx context.Context, callsign string, from, to time.Time) ([]dbmodels.TransceiverSample, error)
	ControllerSamples(ctx context.Context, from, to time.Time) ([]ControllerSample, error)
}

// ControllerSample is a controller transceiver sample enriched with the
// controller's facility type, needed to apply the OBS exclusion.
type ControllerSample struct {
	Callsign  string
	Facility  int
	Frequency int64
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

// Result is the Correlator's output for one completed flight.
type Result struct {
	CoveragePercentage int
	ControllerCallsigns []string
	ClassCounts         map[string]int
}

// Correlator computes ATC coverage for a completed flight.
type Correlator struct {
	source SampleSource
	cache  cache.Interface
}

// New builds a Correlator.
func New(source SampleSource) *Correlator {
	return &Correlator{source: source}
}

// SetCache installs the in-process cache ControllerSamples queries are
// memoized through. Optional; a nil cache simply means every completion
// re-queries the controller samples table.
func (c *Correlator) SetCache(ch cache.Interface) {
	c.cache = ch
}

func (c *Correlator) controllerSamples(ctx context.Context, from, to time.Time) ([]ControllerSample, error) {
	if c.cache == nil {
		return c.source.ControllerSamples(ctx, from, to)
	}
	key := fmt.Sprintf("correlator-ctl-samples:%d:%d",
		from.Round(controllerSampleCacheQuantum).Unix(),
		to.Round(controllerSampleCacheQuantum).Unix())
	v, err := c.cache.GetOrSet(key, controllerSampleCacheTTL, func() (any, error) {
		return c.source.ControllerSamples(ctx, from, to)
	})
	if err != nil {
		return nil, err
	}
	samples, ok := v.([]ControllerSample)
	if !ok {
		return c.source.ControllerSamples(ctx, from, to)
	}
	return samples, nil
}

// Correlate implements spec §4.H's five steps for the flight's active
// lifetime [t0, t1].
func (c *Correlator) Correlate(ctx context.Context, callsign string, t0, t1 time.Time) (Result, error) {
	start := time.Now()
	defer func() { metrics.CorrelatorDuration.Observe(time.Since(start).Seconds()) }()

	flightSamples, err := c.source.FlightSamples(ctx, callsign, t0, t1)
	if err != nil {
		return Result{}, err
	}
	if len(flightSamples) == 0 {
		return Result{CoveragePercentage: 0, ClassCounts: map[string]int{}}, nil
	}

	controllerSamples, err := c.controllerSamples(ctx, t0.Add(-maxMatchWindow), t1.Add(maxMatchWindow))
	if err != nil {
		return Result{}, err
	}

	seen := make(map[string]struct{})
	covered := 0
	for _, s := range flightSamples {
		if callsignOfMatch, ok := matchController(s, controllerSamples); ok {
			covered++
			seen[callsignOfMatch] = struct{}{}
		}
	}

	callsigns := make([]string, 0, len(seen))
	for cs := range seen {
		callsigns = append(callsigns, cs)
	}

	classCounts := make(map[string]int)
	for _, cs := range callsigns {
		classCounts[ClassifyCallsign(cs)]++
	}

	return Result{
		CoveragePercentage:  coveragePercent(covered, len(flightSamples)),
		ControllerCallsigns: callsigns,
		ClassCounts:         classCounts,
	}, nil
}

func matchController(s dbmodels.TransceiverSample, candidates []ControllerSample) (string, bool) {
	for _, c := range candidates {
		if c.Facility == facilityOBS {
			continue
		}
		if c.Frequency != s.Frequency {
			continue
		}
		if absDuration(s.Timestamp.Sub(c.Timestamp)) > maxMatchWindow {
			continue
		}
		d := geo.HaversineNM(geo.Point{Lat: s.Latitude, Lon: s.Longitude}, geo.Point{Lat: c.Latitude, Lon: c.Longitude})
		if d > maxMatchDistance {
			continue
		}
		return c.Callsign, true
	}
	return "", false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// coveragePercent computes the integer percentage with round-half-even
// (banker's rounding), per spec §4.H step 4.
func coveragePercent(covered, total int) int {
	if total == 0 {
		return 0
	}
	pct := float64(covered) / float64(total) * 100
	return int(math.RoundToEven(pct))
}

// classSuffixes maps the controller callsign suffix conventions to the
// classification set of spec §4.H.
var classSuffixes = []struct {
	suffix string
	class  string
}{
	{"_FSS", "FSS"},
	{"_CTR", "CTR"},
	{"_APP", "APP"},
	{"_DEP", "APP"},
	{"_TWR", "TWR"},
	{"_GND", "GND"},
	{"_DEL", "DEL"},
}

// ClassifyCallsign classifies a controller callsign by its conventional
// suffix into {FSS, CTR, APP, TWR, GND, DEL, OTHER} (spec §4.H).
func ClassifyCallsign(callsign string) string {
	upper := strings.ToUpper(callsign)
	for _, cs := range classSuffixes {
		if strings.HasSuffix(upper, cs.suffix) {
			return cs.class
		}
	}
	return "OTHER"
}
