package airspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vatpac-net/ingestd/internal/geo"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestLoadAirports(t *testing.T) {
	path := writeTemp(t, "airports.csv", "icao,lat,lon,elevation\nYSSY,-33.9461,151.1772,21\nYBBN,-27.3842,153.1175,\n")
	airports, err := LoadAirports(path)
	if err != nil {
		t.Fatalf("LoadAirports: %v", err)
	}
	if len(airports) != 2 {
		t.Fatalf("expected 2 airports, got %d", len(airports))
	}
	syd := airports["YSSY"]
	if !syd.HasElevation || syd.Elevation != 21 {
		t.Errorf("unexpected YSSY elevation: %+v", syd)
	}
	bne := airports["YBBN"]
	if bne.HasElevation {
		t.Errorf("expected YBBN to have no elevation: %+v", bne)
	}
}

func TestLoadCallsigns(t *testing.T) {
	path := writeTemp(t, "callsigns.txt", "# comment\nSY_APP\n\nBN_TWR\n")
	set, err := LoadCallsigns(path)
	if err != nil {
		t.Fatalf("LoadCallsigns: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 callsigns, got %d", len(set))
	}
	if _, ok := set["SY_APP"]; !ok {
		t.Error("expected SY_APP in set")
	}
}

const boundaryGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"NAME": "TEST_REGION"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[140,-40],[160,-40],[160,-10],[140,-10],[140,-40]]]
      }
    }
  ]
}`

func TestLoadBoundaryAndSectors(t *testing.T) {
	boundaryPath := writeTemp(t, "boundary.geojson", boundaryGeoJSON)
	boundary, err := LoadBoundary(boundaryPath)
	if err != nil {
		t.Fatalf("LoadBoundary: %v", err)
	}
	if boundary.Empty() {
		t.Fatal("expected non-empty boundary")
	}
	if !boundary.Contains(geo.Point{Lat: -33.8688, Lon: 151.2093}) {
		t.Error("expected Sydney to be inside test boundary")
	}
	if boundary.Contains(geo.Point{Lat: 51.5074, Lon: -0.1278}) {
		t.Error("expected London to be outside test boundary")
	}

	sectorsPath := writeTemp(t, "sectors.geojson", boundaryGeoJSON)
	sectors, err := LoadSectors(sectorsPath)
	if err != nil {
		t.Fatalf("LoadSectors: %v", err)
	}
	if len(sectors) != 1 || sectors[0].Name != "TEST_REGION" {
		t.Fatalf("unexpected sectors: %+v", sectors)
	}
}

func TestStore_ReloadAndLookups(t *testing.T) {
	boundaryPath := writeTemp(t, "boundary.geojson", boundaryGeoJSON)
	boundary, err := LoadBoundary(boundaryPath)
	if err != nil {
		t.Fatalf("LoadBoundary: %v", err)
	}
	sectors, err := LoadSectors(boundaryPath)
	if err != nil {
		t.Fatalf("LoadSectors: %v", err)
	}
	airports := map[string]AirportRef{
		"YSSY": {ICAO: "YSSY", Latitude: -33.9461, Longitude: 151.1772, Elevation: 21, HasElevation: true},
	}
	callsigns := map[string]struct{}{"SY_APP": {}}

	s := NewStore()
	s.Reload(airports, boundary, sectors, callsigns, "Y")

	if !s.IsValidController("SY_APP") {
		t.Error("expected SY_APP to be a valid controller")
	}
	if s.IsValidController("ZZ_APP") {
		t.Error("expected ZZ_APP to be invalid")
	}
	if !s.IsRegionalAirport("YSSY") {
		t.Error("expected YSSY to be regional")
	}
	if s.IsRegionalAirport("KJFK") {
		t.Error("expected KJFK to not be regional")
	}
	a, ok := s.Airport("yssy")
	if !ok || a.ICAO != "YSSY" {
		t.Errorf("unexpected airport lookup: %+v ok=%v", a, ok)
	}
	if !s.PointInBoundary(-33.8688, 151.2093) {
		t.Error("expected Sydney inside boundary via Store")
	}
	if name, ok := s.SectorContaining(-33.8688, 151.2093); !ok || name != "TEST_REGION" {
		t.Errorf("unexpected sector: %s ok=%v", name, ok)
	}
}
