package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/vatpac-net/ingestd/internal/airspace"
	"github.com/vatpac-net/ingestd/internal/config"
	"github.com/vatpac-net/ingestd/internal/dbmodels"
	"github.com/vatpac-net/ingestd/internal/feed"
	"github.com/vatpac-net/ingestd/internal/geo"
	"github.com/vatpac-net/ingestd/internal/store"
)

type fakeCompletion struct {
	callsigns []string
	methods   []dbmodels.DisconnectMethod
}

func (f *fakeCompletion) HandleCompletion(ctx context.Context, callsign string, reason dbmodels.DisconnectMethod) {
	f.callsigns = append(f.callsigns, callsign)
	f.methods = append(f.methods, reason)
}

type fakePersister struct {
	flights []*store.FlightEntry
}

func (f *fakePersister) PersistTerminalFlight(entry *store.FlightEntry) {
	f.flights = append(f.flights, entry)
}

type fakeOccupancy struct {
	updates int
	closes  int
}

func (f *fakeOccupancy) Update(callsign, sector string, pos geo.Point, altitude float64, at time.Time) {
	f.updates++
}
func (f *fakeOccupancy) CloseAll(callsign string, pos geo.Point, altitude float64, at time.Time) {
	f.closes++
}

func testConfig() *config.Config {
	return &config.Config{
		PollInterval:      30 * time.Second,
		StaleMultiplier:   2.5,
		LandingRadiusNM:   15.0,
		LandingAltFt:      1000,
		LandingSpeedKts:   20,
		LandingDupMinutes: 5 * time.Minute,
		TimeoutHours:      time.Hour,
	}
}

func testAirspace() *airspace.Store {
	s := airspace.NewStore()
	s.Reload(
		map[string]airspace.AirportRef{
			"YSSY": {ICAO: "YSSY", Latitude: -33.9461, Longitude: 151.1772, Elevation: 21, HasElevation: true},
		},
		geo.Polygon{}, nil, nil, "Y",
	)
	return s
}

func TestEngine_ActiveToStaleTransition(t *testing.T) {
	c := store.New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1"}}, t0)

	e := New(testConfig(), c, testAirspace(), nil, nil, nil)
	e.Tick(context.Background(), t0)

	f, _ := c.Flight("QFA1")
	if f.Status != string(dbmodels.StatusActive) {
		t.Fatalf("expected active after first tick, got %q", f.Status)
	}

	// Simulate no further observations: callsign absent beyond the stale
	// cutoff (2.5 * 30s = 75s).
	later := t0.Add(2 * time.Minute)
	e.Tick(context.Background(), later)

	f, _ = c.Flight("QFA1")
	if f.Status != string(dbmodels.StatusStale) {
		t.Fatalf("expected stale after absence, got %q", f.Status)
	}
}

func TestEngine_LandingDetector(t *testing.T) {
	c := store.New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{
		{
			Callsign:    "QFA1",
			Arrival:     "YSSY",
			Latitude:    -33.95,
			Longitude:   151.18,
			Altitude:    500,
			Groundspeed: 10,
			HasPosition: true,
		},
	}, t0)

	occ := &fakeOccupancy{}
	e := New(testConfig(), c, testAirspace(), nil, occ, nil)
	e.Tick(context.Background(), t0)

	f, _ := c.Flight("QFA1")
	if f.Status != string(dbmodels.StatusLanded) {
		t.Fatalf("expected landed, got %q", f.Status)
	}
}

func TestEngine_LandingDetector_TooFast(t *testing.T) {
	c := store.New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{
		{
			Callsign:    "QFA1",
			Arrival:     "YSSY",
			Latitude:    -33.95,
			Longitude:   151.18,
			Altitude:    500,
			Groundspeed: 200,
			HasPosition: true,
		},
	}, t0)

	e := New(testConfig(), c, testAirspace(), nil, nil, nil)
	e.Tick(context.Background(), t0)

	f, _ := c.Flight("QFA1")
	if f.Status == string(dbmodels.StatusLanded) {
		t.Fatal("expected flight at 200kt to not be marked landed")
	}
}

func TestEngine_DisconnectDetector(t *testing.T) {
	c := store.New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1"}}, t0)
	c.SetStatus("QFA1", string(dbmodels.StatusLanded), t0, "landed_at")

	fc := &fakeCompletion{}
	e := New(testConfig(), c, testAirspace(), fc, nil, nil)
	e.RunDisconnectDetector(context.Background(), map[string]struct{}{}, t0.Add(time.Minute))

	if len(fc.callsigns) != 1 || fc.callsigns[0] != "QFA1" {
		t.Fatalf("expected completion handler invoked for QFA1, got %+v", fc.callsigns)
	}
	if fc.methods[0] != dbmodels.DisconnectDetected {
		t.Errorf("expected disconnect method 'detected', got %q", fc.methods[0])
	}
	if _, ok := c.Flight("QFA1"); ok {
		t.Fatal("expected completed flight removed from in-memory map")
	}
}

func TestEngine_TimeoutDetector(t *testing.T) {
	c := store.New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1"}}, t0)
	c.SetStatus("QFA1", string(dbmodels.StatusLanded), t0, "landed_at")

	fc := &fakeCompletion{}
	e := New(testConfig(), c, testAirspace(), fc, nil, nil)
	e.RunTimeoutDetector(context.Background(), t0.Add(2*time.Hour))

	if len(fc.callsigns) != 1 {
		t.Fatalf("expected timeout completion, got %+v", fc.callsigns)
	}
	if fc.methods[0] != dbmodels.DisconnectTimeout {
		t.Errorf("expected disconnect method 'timeout', got %q", fc.methods[0])
	}
}

func TestEngine_DisconnectDetector_PersistsTerminalRowBeforeDelete(t *testing.T) {
	c := store.New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1"}}, t0)
	c.SetStatus("QFA1", string(dbmodels.StatusLanded), t0, "landed_at")

	fc := &fakeCompletion{}
	fp := &fakePersister{}
	e := New(testConfig(), c, testAirspace(), fc, nil, fp)
	e.RunDisconnectDetector(context.Background(), map[string]struct{}{}, t0.Add(time.Minute))

	if len(fp.flights) != 1 {
		t.Fatalf("expected the terminal row to be queued for persistence, got %d", len(fp.flights))
	}
	if fp.flights[0].Callsign != "QFA1" {
		t.Errorf("unexpected callsign persisted: %q", fp.flights[0].Callsign)
	}
	if fp.flights[0].Status != string(dbmodels.StatusCompleted) {
		t.Errorf("expected persisted row to already carry the completed status, got %q", fp.flights[0].Status)
	}
	if fp.flights[0].DisconnectMethod != string(dbmodels.DisconnectDetected) {
		t.Errorf("expected persisted row to carry the disconnect method, got %q", fp.flights[0].DisconnectMethod)
	}
}

func TestEngine_Cancel_PersistsTerminalRowBeforeDelete(t *testing.T) {
	c := store.New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1"}}, t0)

	fp := &fakePersister{}
	e := New(testConfig(), c, testAirspace(), nil, nil, fp)
	e.Tick(context.Background(), t0)

	if !e.Cancel(context.Background(), "QFA1", t0.Add(time.Minute)) {
		t.Fatal("expected cancel to succeed for a non-terminal flight")
	}
	if len(fp.flights) != 1 || fp.flights[0].Status != string(dbmodels.StatusCancelled) {
		t.Fatalf("expected cancelled row queued for persistence, got %+v", fp.flights)
	}
}

func TestEngine_Cancel(t *testing.T) {
	c := store.New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1"}}, t0)

	fc := &fakeCompletion{}
	e := New(testConfig(), c, testAirspace(), fc, nil, nil)
	e.Tick(context.Background(), t0)

	if !e.Cancel(context.Background(), "QFA1", t0.Add(time.Minute)) {
		t.Fatal("expected cancel to succeed for a non-terminal flight")
	}
	if _, ok := c.Flight("QFA1"); ok {
		t.Fatal("expected cancelled flight removed from map")
	}
	if e.Cancel(context.Background(), "QFA1", t0.Add(time.Minute)) {
		t.Fatal("expected cancel of an already-removed flight to fail")
	}
}
