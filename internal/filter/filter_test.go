package filter

import (
	"testing"

	"github.com/vatpac-net/ingestd/internal/airspace"
	"github.com/vatpac-net/ingestd/internal/feed"
	"github.com/vatpac-net/ingestd/internal/geo"
)

func testStore() *airspace.Store {
	s := airspace.NewStore()
	boundary := boundaryRing()
	s.Reload(
		map[string]airspace.AirportRef{
			"YSSY": {ICAO: "YSSY", Latitude: -33.9461, Longitude: 151.1772},
		},
		boundary,
		nil,
		map[string]struct{}{"SY_APP": {}},
		"Y",
	)
	return s
}

func boundaryRing() geo.Polygon {
	return geo.Polygon{}
}

func TestPipeline_FilterControllers(t *testing.T) {
	p := New(testStore(), true, true)
	obs := []feed.ControllerObservation{
		{Callsign: "SY_APP"},
		{Callsign: "ZZ_APP"},
	}
	included, res := p.FilterControllers(obs)
	if len(included) != 1 || included[0].Callsign != "SY_APP" {
		t.Fatalf("unexpected included set: %+v", included)
	}
	if res.TotalProcessed != 2 || res.Included != 1 || res.Excluded != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPipeline_FilterControllers_Disabled(t *testing.T) {
	p := New(testStore(), true, false)
	obs := []feed.ControllerObservation{{Callsign: "ZZ_APP"}}
	included, res := p.FilterControllers(obs)
	if len(included) != 1 {
		t.Fatalf("expected filter disabled to include everything, got %+v", included)
	}
	if res.Excluded != 0 {
		t.Errorf("expected no exclusions when disabled, got %+v", res)
	}
}

func TestPipeline_FilterFlights_AirportPrefix(t *testing.T) {
	p := New(testStore(), true, true)
	obs := []feed.FlightObservation{
		{Callsign: "QFA1", Departure: "YSSY", Arrival: "YBBN"},
	}
	included, res := p.FilterFlights(obs)
	if len(included) != 1 {
		t.Fatalf("expected flight included via airport prefix, got %+v", included)
	}
	if res.Uncertain != 0 {
		t.Errorf("expected no uncertain flights, got %+v", res)
	}
}

func TestPipeline_FilterFlights_NonRegionalExcluded(t *testing.T) {
	p := New(testStore(), true, true)
	obs := []feed.FlightObservation{
		{Callsign: "UAL456", Departure: "EGLL", Arrival: "KLAX", Latitude: 51.5, Longitude: -0.1, HasPosition: true},
	}
	included, res := p.FilterFlights(obs)
	if len(included) != 0 {
		t.Fatalf("expected non-regional flight excluded, got %+v", included)
	}
	if res.Excluded != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPipeline_FilterFlights_UncertainWhenDataMissing(t *testing.T) {
	p := New(testStore(), true, true)
	obs := []feed.FlightObservation{
		{Callsign: "GHOST1"},
	}
	included, res := p.FilterFlights(obs)
	if len(included) != 1 {
		t.Fatalf("expected uncertain flight to be conservatively included, got %+v", included)
	}
	if res.Uncertain != 1 || res.Included != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPipeline_FilterFlights_Idempotent(t *testing.T) {
	p := New(testStore(), true, true)
	obs := []feed.FlightObservation{
		{Callsign: "QFA1", Departure: "YSSY"},
		{Callsign: "UAL456", Departure: "EGLL", Arrival: "KLAX", Latitude: 51.5, Longitude: -0.1, HasPosition: true},
		{Callsign: "GHOST1"},
	}
	first, resFirst := p.FilterFlights(obs)
	second, resSecond := p.FilterFlights(obs)
	if len(first) != len(second) {
		t.Fatalf("filter pipeline not idempotent: %+v vs %+v", first, second)
	}
	if resFirst != resSecond {
		t.Errorf("filter pipeline counts not idempotent: %+v vs %+v", resFirst, resSecond)
	}
}
