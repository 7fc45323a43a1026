package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vatpac-net/ingestd/internal/airspace"
	"github.com/vatpac-net/ingestd/internal/batch"
	"github.com/vatpac-net/ingestd/internal/completion"
	"github.com/vatpac-net/ingestd/internal/config"
	"github.com/vatpac-net/ingestd/internal/dbmodels"
	"github.com/vatpac-net/ingestd/internal/feed"
	"github.com/vatpac-net/ingestd/internal/filter"
	"github.com/vatpac-net/ingestd/internal/geo"
	"github.com/vatpac-net/ingestd/internal/lifecycle"
	"github.com/vatpac-net/ingestd/internal/store"
)

func testOrchestratorConfig(feedURL string) *config.Config {
	return &config.Config{
		FeedBaseURL:             feedURL,
		FeedRequestTimeout:      5 * time.Second,
		PollInterval:            30 * time.Second,
		DisconnectCheckInterval: 30 * time.Second,
		FlushInterval:           5 * time.Minute,
		CleanupInterval:         time.Hour,
		StaleMultiplier:         2.5,
		BatchThreshold:          10000,
		LandingRadiusNM:         15.0,
		LandingAltFt:            1000,
		LandingSpeedKts:         20,
		LandingDupMinutes:       5 * time.Minute,
		TimeoutHours:            time.Hour,
		CallsignFilterEnabled:   true,
	}
}

func testOrchestratorAirspace() *airspace.Store {
	s := airspace.NewStore()
	s.Reload(
		map[string]airspace.AirportRef{
			"YSSY": {ICAO: "YSSY", Latitude: -33.9461, Longitude: 151.1772, Elevation: 21, HasElevation: true},
		},
		geo.Polygon{}, nil, nil, "Y",
	)
	return s
}

func testOrchestratorDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(&dbmodels.Flight{}, &dbmodels.Controller{}, &dbmodels.TransceiverSample{}, &dbmodels.FlightSectorOccupancy{}); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// onGroundPilots returns the raw feed JSON for QFA1 sitting on the YSSY
// runway threshold (within the landing detector's distance/altitude/speed
// thresholds), or nil once present is false, simulating the pilot
// disconnecting from the network.
func onGroundPilots(present bool) []feed.RawPilot {
	if !present {
		return nil
	}
	return []feed.RawPilot{
		{
			Callsign:    "QFA1",
			CID:         1,
			Latitude:    floatPtr(-33.95),
			Longitude:   floatPtr(151.18),
			Altitude:    floatPtr(500),
			Groundspeed: floatPtr(10),
			Heading:     floatPtr(0),
			LastUpdated: "2026-01-01T00:00:00Z",
			FlightPlan:  &feed.RawFlightPlan{Departure: "YMML", Arrival: "YSSY"},
		},
	}
}

func floatPtr(f float64) *float64 { return &f }

// TestOrchestrator_DisconnectDetector_PersistsCompletedRow is a regression
// test: a flight that lands on one poll tick and then disappears from the
// upstream feed must reach Postgres as status=completed, not get stuck at
// whatever status the last poll tick flushed. It also asserts the
// disconnect ticker never hits the network directly — it must reuse the
// poll ticker's already-filtered snapshot.
func TestOrchestrator_DisconnectDetector_PersistsCompletedRow(t *testing.T) {
	var requestCount int32
	var present atomic.Bool
	present.Store(true)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		resp := feed.RawSnapshot{
			General: feed.RawGeneral{UpdateTimestamp: "2026-01-01T00:00:00Z"},
			Pilots:  onGroundPilots(present.Load()),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := testOrchestratorConfig(server.URL)
	ref := testOrchestratorAirspace()
	pipeline := filter.New(ref, true, cfg.CallsignFilterEnabled)
	coalescer := store.New(time.Hour)
	feedClient := feed.New(cfg)
	handler := completion.New(coalescer, nil)
	db := testOrchestratorDB(t)
	batcher := batch.New(db, cfg.BatchThreshold, cfg.FlushInterval)
	persister := NewFlightPersister(batcher)
	engine := lifecycle.New(cfg, coalescer, ref, handler, handler, persister)

	orch := New(cfg, feedClient, pipeline, coalescer, ref, engine, batcher, handler, nil)

	ctx := context.Background()
	t0 := time.Now()

	if err := orch.runPoll(ctx, t0); err != nil {
		t.Fatalf("unexpected error on first poll: %v", err)
	}
	f, ok := coalescer.Flight("QFA1")
	if !ok || f.Status != string(dbmodels.StatusLanded) {
		t.Fatalf("expected QFA1 landed after first poll, got %+v ok=%v", f, ok)
	}

	// Pilot disconnects from the network before the next poll tick.
	present.Store(false)
	if err := orch.runPoll(ctx, t0.Add(30*time.Second)); err != nil {
		t.Fatalf("unexpected error on second poll: %v", err)
	}

	if err := orch.runDisconnect(ctx, t0.Add(45*time.Second)); err != nil {
		t.Fatalf("unexpected error running disconnect detector: %v", err)
	}

	if got := atomic.LoadInt32(&requestCount); got != 2 {
		t.Errorf("expected exactly 2 upstream fetches (one per poll tick), got %d; the disconnect ticker must not re-fetch", got)
	}

	if _, ok := coalescer.Flight("QFA1"); ok {
		t.Error("expected QFA1 removed from the in-memory map once completed")
	}

	row, ok := batcher.PendingFlight("QFA1")
	if !ok {
		t.Fatal("expected QFA1's terminal row to be queued on the Write Batcher")
	}
	if row.Status != dbmodels.StatusCompleted {
		t.Errorf("expected persisted status %q, got %q", dbmodels.StatusCompleted, row.Status)
	}
	if row.DisconnectMethod == nil || *row.DisconnectMethod != dbmodels.DisconnectDetected {
		t.Errorf("expected disconnect_method %q persisted, got %+v", dbmodels.DisconnectDetected, row.DisconnectMethod)
	}

	if err := batcher.Flush(ctx); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	var persisted dbmodels.Flight
	if err := db.First(&persisted, "callsign = ?", "QFA1").Error; err != nil {
		t.Fatalf("expected QFA1 row in the database after flush: %v", err)
	}
	if persisted.Status != dbmodels.StatusCompleted {
		t.Errorf("expected database row status %q, got %q", dbmodels.StatusCompleted, persisted.Status)
	}
}
