package completion

import (
	"testing"
	"time"

	"github.com/vatpac-net/ingestd/internal/geo"
	"github.com/vatpac-net/ingestd/internal/store"
)

func TestHandler_Update_ClosesPreviousSectorForCallsign(t *testing.T) {
	h := New(store.New(time.Minute), nil)
	now := time.Now()

	h.Update("QFA1", "SY_APP", geo.Point{Lat: -33.9, Lon: 151.1}, 10000, now)
	h.Update("QFA1", "SY_CTR", geo.Point{Lat: -34.0, Lon: 151.2}, 15000, now.Add(time.Minute))

	rows := h.PendingOccupancyRows(true)
	if len(rows) != 1 {
		t.Fatalf("expected 1 closed row, got %d", len(rows))
	}
	if rows[0].SectorName != "SY_APP" {
		t.Errorf("expected closed row to be the first sector SY_APP, got %s", rows[0].SectorName)
	}
	if rows[0].ExitTimestamp == nil {
		t.Fatalf("expected exit timestamp to be set")
	}
	if *rows[0].DurationSeconds != 60 {
		t.Errorf("expected duration 60s, got %d", *rows[0].DurationSeconds)
	}
}

func TestHandler_Update_SameSectorDoesNotReopen(t *testing.T) {
	h := New(store.New(time.Minute), nil)
	now := time.Now()

	h.Update("QFA1", "SY_APP", geo.Point{Lat: -33.9, Lon: 151.1}, 10000, now)
	h.Update("QFA1", "SY_APP", geo.Point{Lat: -33.91, Lon: 151.11}, 9900, now.Add(30*time.Second))

	rows := h.PendingOccupancyRows(true)
	if len(rows) != 0 {
		t.Fatalf("expected no closed rows while still in the same sector, got %d", len(rows))
	}
}

func TestHandler_CloseAll_ClosesEveryOpenRowForCallsign(t *testing.T) {
	h := New(store.New(time.Minute), nil)
	now := time.Now()

	h.Update("QFA1", "SY_APP", geo.Point{Lat: -33.9, Lon: 151.1}, 10000, now)
	h.CloseAll("QFA1", geo.Point{Lat: -33.95, Lon: 151.15}, 5000, now.Add(2*time.Minute))

	rows := h.PendingOccupancyRows(true)
	if len(rows) != 1 {
		t.Fatalf("expected 1 closed row after CloseAll, got %d", len(rows))
	}
	if *rows[0].DurationSeconds != 120 {
		t.Errorf("expected duration 120s, got %d", *rows[0].DurationSeconds)
	}
}
