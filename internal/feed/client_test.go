package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vatpac-net/ingestd/internal/config"
)

func TestClient_FetchSnapshot_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		lat := -33.868
		lon := 151.209
		alt := 35000.0
		gs := 450.0
		hdg := 90.0
		resp := RawSnapshot{
			General: RawGeneral{UpdateTimestamp: "2026-01-01T00:00:00Z"},
			Pilots: []RawPilot{
				{
					Callsign:    "QFA123",
					CID:         1,
					Latitude:    &lat,
					Longitude:   &lon,
					Altitude:    &alt,
					Groundspeed: &gs,
					Heading:     &hdg,
					LastUpdated: "2026-01-01T00:00:00Z",
					FlightPlan: &RawFlightPlan{
						Departure: "YSSY",
						Arrival:   "YBBN",
					},
				},
				{
					// missing callsign: must be rejected, not merely skipped-as-optional
					CID: 2,
				},
			},
			Controllers: []RawController{
				{Callsign: "SY_APP", CID: 10, Rating: 5, Facility: 4, LastUpdated: "2026-01-01T00:00:00Z"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := &config.Config{FeedBaseURL: server.URL, FeedRequestTimeout: 5 * time.Second}
	client := New(cfg)

	snap, err := client.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Pilots) != 1 {
		t.Fatalf("expected 1 valid pilot, got %d", len(snap.Pilots))
	}
	if snap.SkippedPilots != 1 {
		t.Errorf("expected 1 skipped pilot, got %d", snap.SkippedPilots)
	}
	if snap.Pilots[0].Callsign != "QFA123" {
		t.Errorf("unexpected callsign: %s", snap.Pilots[0].Callsign)
	}
	if snap.Pilots[0].Departure != "YSSY" || snap.Pilots[0].Arrival != "YBBN" {
		t.Errorf("flight plan not normalized: %+v", snap.Pilots[0])
	}
	if len(snap.Controllers) != 1 {
		t.Fatalf("expected 1 controller, got %d", len(snap.Controllers))
	}
}

func TestClient_FetchSnapshot_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := &config.Config{FeedBaseURL: server.URL, FeedRequestTimeout: 5 * time.Second}
	client := New(cfg)

	_, err := client.FetchSnapshot(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}
