package airspace

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/vatpac-net/ingestd/internal/geo"
)

// LoadAirports reads a CSV of icao,lat,lon,elevation (elevation optional,
// blank meaning unknown) into the map Reload expects. Grounded on the
// teacher's airport reference table (internal/models/gorm/airport.go),
// adapted here to a flat-file loader since this system has no airport
// management API of its own.
func LoadAirports(path string) (map[string]AirportRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("airspace: opening airports file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	out := make(map[string]AirportRef)
	first := true
	for {
		rec, err := r.Read()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			if _, ok := err.(*csv.ParseError); ok {
				continue
			}
			break
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "icao") {
				continue
			}
		}
		if len(rec) < 3 {
			continue
		}
		icao := strings.ToUpper(strings.TrimSpace(rec[0]))
		if icao == "" {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			continue
		}
		ref := AirportRef{ICAO: icao, Latitude: lat, Longitude: lon}
		if len(rec) >= 4 && strings.TrimSpace(rec[3]) != "" {
			if elev, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64); err == nil {
				ref.Elevation = elev
				ref.HasElevation = true
			}
		}
		out[icao] = ref
	}
	return out, nil
}

// LoadBoundary reads a GeoJSON FeatureCollection and unions every polygon
// feature's rings into a single geo.Polygon, the way the region boundary is
// described (spec §4.B). Follows the teacher pack's orb/geojson usage
// (mmp-vice/misc/airspace.go: geojson.UnmarshalFeatureCollection + orb
// geometry type switch).
func LoadBoundary(path string) (geo.Polygon, error) {
	rings, err := loadRings(path, "")
	if err != nil {
		return geo.Polygon{}, err
	}
	return geo.NewPolygon(rings...), nil
}

// LoadSectors reads a GeoJSON FeatureCollection where each feature carries a
// "NAME" (or "name") property identifying the sector, and returns one
// NamedSector per feature, preserving file order (used by
// Store.SectorContaining's first-match precedence).
func LoadSectors(path string) ([]NamedSector, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("airspace: reading sectors file: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("airspace: parsing sectors geojson: %w", err)
	}

	var out []NamedSector
	for _, f := range fc.Features {
		name := propString(f.Properties, "NAME")
		if name == "" {
			name = propString(f.Properties, "name")
		}
		if name == "" {
			continue
		}
		rings, ok := ringsOf(f.Geometry)
		if !ok {
			continue
		}
		out = append(out, NamedSector{Name: name, Polygon: geo.NewPolygon(rings...)})
	}
	return out, nil
}

// LoadCallsigns reads a plain text file of valid controller callsigns, one
// per line, with "#"-prefixed comment lines and blank lines ignored.
func LoadCallsigns(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("airspace: opening callsigns file: %w", err)
	}
	defer f.Close()

	out := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("airspace: scanning callsigns file: %w", err)
	}
	return out, nil
}

func loadRings(path, _ string) ([]orb.Ring, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("airspace: reading boundary file: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("airspace: parsing boundary geojson: %w", err)
	}
	var rings []orb.Ring
	for _, f := range fc.Features {
		r, ok := ringsOf(f.Geometry)
		if !ok {
			continue
		}
		rings = append(rings, r...)
	}
	return rings, nil
}

func ringsOf(g orb.Geometry) ([]orb.Ring, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Ring(v), true
	case orb.MultiPolygon:
		var out []orb.Ring
		for _, poly := range v {
			out = append(out, poly...)
		}
		return out, true
	default:
		return nil, false
	}
}

func propString(m map[string]interface{}, name string) string {
	v, ok := m[name]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
