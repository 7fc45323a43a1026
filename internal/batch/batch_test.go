package batch

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vatpac-net/ingestd/internal/dbmodels"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&dbmodels.Flight{}, &dbmodels.Controller{}, &dbmodels.TransceiverSample{}, &dbmodels.FlightSectorOccupancy{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestBatcher_QueueUpsertFlight_Coalesces(t *testing.T) {
	db := setupTestDB(t)
	b := New(db, 10000, 5*time.Minute)

	b.QueueUpsertFlight(dbmodels.Flight{Callsign: "QFA1", Altitude: 1000, LastUpdated: time.Unix(1, 0)})
	b.QueueUpsertFlight(dbmodels.Flight{Callsign: "QFA1", Altitude: 2000, LastUpdated: time.Unix(2, 0)})

	if b.PendingCount() != 1 {
		t.Fatalf("expected repeated upserts of the same callsign to coalesce to 1 pending record, got %d", b.PendingCount())
	}

	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}

	var got dbmodels.Flight
	if err := db.First(&got, "callsign = ?", "QFA1").Error; err != nil {
		t.Fatalf("expected flight persisted: %v", err)
	}
	if got.Altitude != 2000 {
		t.Errorf("expected last-write-wins altitude 2000, got %v", got.Altitude)
	}
	if b.PendingCount() != 0 {
		t.Errorf("expected pending buffer drained after flush, got %d", b.PendingCount())
	}
}

func TestBatcher_FlushAcrossMultipleTicks_SingleRowUpdate(t *testing.T) {
	db := setupTestDB(t)
	b := New(db, 10000, 5*time.Minute)

	for i := 0; i < 50; i++ {
		b.QueueUpsertFlight(dbmodels.Flight{Callsign: "QFA1", Altitude: float64(i), LastUpdated: time.Unix(int64(i), 0)})
	}
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}

	var count int64
	db.Model(&dbmodels.Flight{}).Where("callsign = ?", "QFA1").Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one row for QFA1 regardless of tick count, got %d", count)
	}
}

func TestBatcher_QueueAppendTransceiver_NeverCoalesced(t *testing.T) {
	db := setupTestDB(t)
	b := New(db, 10000, 5*time.Minute)

	b.QueueAppendTransceiver(dbmodels.TransceiverSample{Callsign: "QFA1", TransceiverID: 1, Timestamp: time.Unix(1, 0), EntityType: dbmodels.EntityFlight})
	b.QueueAppendTransceiver(dbmodels.TransceiverSample{Callsign: "QFA1", TransceiverID: 1, Timestamp: time.Unix(2, 0), EntityType: dbmodels.EntityFlight})

	if b.PendingCount() != 2 {
		t.Fatalf("expected appends to never coalesce, got %d pending", b.PendingCount())
	}

	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}

	var count int64
	db.Model(&dbmodels.TransceiverSample{}).Count(&count)
	if count != 2 {
		t.Fatalf("expected both transceiver samples persisted, got %d", count)
	}
}

func TestBatcher_ShouldFlush_SizeTrigger(t *testing.T) {
	db := setupTestDB(t)
	b := New(db, 2, time.Hour)

	if b.ShouldFlush(time.Now()) {
		t.Fatal("expected no flush due with empty batch")
	}
	b.QueueUpsertFlight(dbmodels.Flight{Callsign: "QFA1"})
	b.QueueUpsertFlight(dbmodels.Flight{Callsign: "QFA2"})
	if !b.ShouldFlush(time.Now()) {
		t.Fatal("expected flush due once batch_threshold reached")
	}
}
