// Package airspace implements the Airspace Reference (spec §4.B): the
// airport table, region boundary polygon, named sector polygons, and the
// valid-controller-callsign set, loaded at startup and swappable atomically
// on reload.
package airspace

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vatpac-net/ingestd/internal/cache"
	"github.com/vatpac-net/ingestd/internal/geo"
)

// sectorCacheTTL bounds how long a memoized sector lookup survives a
// Reload; short enough that a sector-boundary edit taking effect a few
// seconds late is immaterial to any consumer (spec §4.B lookups are cheap
// but called once per active flight per tick).
const sectorCacheTTL = 10 * time.Second

// sectorCacheQuantum rounds lat/lon to ~100 m before building a cache key,
// trading a small amount of precision at sector boundaries for a much
// higher hit rate across consecutive ticks of a slow-moving flight.
const sectorCacheQuantum = 0.001

// AirportRef is the subset of airport reference data the rest of the system
// needs for lookups (spec §4.B).
type AirportRef struct {
	ICAO      string
	Latitude  float64
	Longitude float64
	Elevation float64
	HasElevation bool
}

// NamedSector pairs a sector name with its polygon.
type NamedSector struct {
	Name    string
	Polygon geo.Polygon
}

// reference is the immutable snapshot a Store holds a pointer to. Readers
// that grab the pointer via Store.current() see a fully-built, internally
// consistent view even while a reload is replacing it (spec §4.B: "Reloads
// replace structures atomically; in-flight reads see a consistent pre- or
// post-reload view").
type reference struct {
	airports         map[string]AirportRef
	boundary         geo.Polygon
	sectors          []NamedSector
	validControllers map[string]struct{}
	regionLetter     byte
}

// Store holds the current Reference and exposes the read API used by the
// Filter Pipeline, Lifecycle Engine, and Correlator. Reload swaps the
// pointer atomically; it never mutates a reference already handed to a
// reader.
type Store struct {
	ptr atomic.Pointer[reference]

	// sectorCache memoizes SectorContaining lookups, fronting the ray-cast
	// test the same way the teacher's CacheService fronts a database read
	// (internal/common/cache_service.go). Nil until SetSectorCache is
	// called; a nil cache simply means every lookup recomputes.
	sectorCache cache.Interface
}

// NewStore builds a Store from already-parsed components. Callers typically
// obtain these from LoadAirports/LoadBoundary/LoadSectors/LoadCallsigns (see
// loaders.go) and then call Reload once at startup.
func NewStore() *Store { return &Store{} }

// SetSectorCache installs the in-process cache SectorContaining memoizes
// through. Safe to call once at construction time, before any reader can
// observe a missing cache.
func (s *Store) SetSectorCache(c cache.Interface) {
	s.sectorCache = c
}

// Reload atomically replaces the Store's reference data.
func (s *Store) Reload(airports map[string]AirportRef, boundary geo.Polygon, sectors []NamedSector, validControllers map[string]struct{}, regionLetter string) {
	rl := byte('Y')
	if len(regionLetter) > 0 {
		rl = strings.ToUpper(regionLetter)[0]
	}
	ref := &reference{
		airports:         airports,
		boundary:         boundary,
		sectors:          sectors,
		validControllers: validControllers,
		regionLetter:     rl,
	}
	s.ptr.Store(ref)
}

func (s *Store) current() *reference {
	ref := s.ptr.Load()
	if ref == nil {
		return &reference{}
	}
	return ref
}

// IsValidController reports whether callsign is a member of the valid
// controller callsign set (spec §4.C). Case-sensitive, matching the
// default described in spec §4.C (case sensitivity is caller-configurable
// at the filter layer, not here).
func (s *Store) IsValidController(callsign string) bool {
	ref := s.current()
	if ref.validControllers == nil {
		return false
	}
	_, ok := ref.validControllers[callsign]
	return ok
}

// IsRegionalAirport applies the ICAO-prefix rule of spec §4.B: the first
// letter of icao must equal the configured region letter.
func (s *Store) IsRegionalAirport(icao string) bool {
	icao = strings.TrimSpace(icao)
	if icao == "" {
		return false
	}
	ref := s.current()
	return strings.ToUpper(icao)[0] == ref.regionLetter
}

// Airport looks up reference data for an ICAO code.
func (s *Store) Airport(icao string) (AirportRef, bool) {
	ref := s.current()
	a, ok := ref.airports[strings.ToUpper(strings.TrimSpace(icao))]
	return a, ok
}

// PointInBoundary reports whether (lat, lon) lies within the region
// boundary polygon (spec §4.B, P8).
func (s *Store) PointInBoundary(lat, lon float64) bool {
	ref := s.current()
	if ref.boundary.Empty() {
		return false
	}
	return ref.boundary.Contains(geo.Point{Lat: lat, Lon: lon})
}

// sectorHit caches one SectorContaining outcome (name and whether a sector
// matched at all, since "" is itself a valid empty sector name to cache
// negatively against).
type sectorHit struct {
	name string
	ok   bool
}

// SectorContaining returns the name of the sector containing (lat, lon), or
// "" if none. Sectors are checked in load order; the spec does not define a
// precedence for overlapping sectors, so the first match wins (documented
// here since spec.md is silent on this edge case). Results are memoized in
// the optional sector cache keyed by a quantized lat/lon, since the same
// slow-moving flight's position lands in the same cache bucket across many
// consecutive ticks.
func (s *Store) SectorContaining(lat, lon float64) (string, bool) {
	if s.sectorCache != nil {
		key := sectorCacheKey(lat, lon)
		if v, found := s.sectorCache.Get(key); found {
			if hit, ok := v.(sectorHit); ok {
				return hit.name, hit.ok
			}
		}
	}

	ref := s.current()
	pt := geo.Point{Lat: lat, Lon: lon}
	for _, sec := range ref.sectors {
		if sec.Polygon.Contains(pt) {
			s.cacheSector(lat, lon, sectorHit{name: sec.Name, ok: true})
			return sec.Name, true
		}
	}
	s.cacheSector(lat, lon, sectorHit{})
	return "", false
}

func (s *Store) cacheSector(lat, lon float64, hit sectorHit) {
	if s.sectorCache == nil {
		return
	}
	s.sectorCache.Set(sectorCacheKey(lat, lon), hit, sectorCacheTTL)
}

func sectorCacheKey(lat, lon float64) string {
	q := sectorCacheQuantum
	return fmt.Sprintf("sector:%.3f:%.3f", round(lat/q)*q, round(lon/q)*q)
}

func round(f float64) float64 {
	if f < 0 {
		return -float64(int64(-f + 0.5))
	}
	return float64(int64(f + 0.5))
}
