package store

import (
	"testing"
	"time"

	"github.com/vatpac-net/ingestd/internal/feed"
)

func TestCoalescer_ApplyFlights_LastWriteWins(t *testing.T) {
	c := New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1", Altitude: 1000}}, t0)
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1", Altitude: 2000}}, t0.Add(time.Minute))

	e, ok := c.Flight("QFA1")
	if !ok {
		t.Fatal("expected QFA1 present")
	}
	if e.Obs.Altitude != 2000 {
		t.Errorf("expected last-write-wins altitude 2000, got %v", e.Obs.Altitude)
	}
	if !e.FirstSeen.Equal(t0) {
		t.Errorf("expected FirstSeen to be preserved across updates, got %v", e.FirstSeen)
	}
}

func TestCoalescer_StatusNotTouchedByApply(t *testing.T) {
	c := New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1"}}, t0)
	c.SetStatus("QFA1", "landed", t0, "landed_at")
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1", Altitude: 500}}, t0.Add(time.Minute))

	e, _ := c.Flight("QFA1")
	if e.Status != "landed" {
		t.Errorf("expected status to survive an observation update, got %q", e.Status)
	}
}

func TestCoalescer_CopyOnRead(t *testing.T) {
	c := New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1"}}, t0)

	snap := c.Flights()
	snap[0].Status = "mutated-locally"

	e, _ := c.Flight("QFA1")
	if e.Status == "mutated-locally" {
		t.Fatal("expected Flights() to return copies, not live pointers")
	}
}

func TestCoalescer_TransceiverPruning(t *testing.T) {
	c := New(10 * time.Minute)
	t0 := time.Now()
	c.ApplyTransceivers([]feed.TransceiverObservation{{Callsign: "QFA1", Timestamp: t0}}, t0)
	c.ApplyTransceivers([]feed.TransceiverObservation{{Callsign: "QFA1", Timestamp: t0.Add(20 * time.Minute)}}, t0.Add(20*time.Minute))

	samples := c.TransceiverSamples("QFA1")
	if len(samples) != 1 {
		t.Fatalf("expected old sample pruned, got %d samples", len(samples))
	}
}

func TestCoalescer_DeleteFlight(t *testing.T) {
	c := New(time.Hour)
	t0 := time.Now()
	c.ApplyFlights([]feed.FlightObservation{{Callsign: "QFA1"}}, t0)
	c.DeleteFlight("QFA1")
	if _, ok := c.Flight("QFA1"); ok {
		t.Fatal("expected flight removed after DeleteFlight")
	}
	if c.FlightCount() != 0 {
		t.Errorf("expected flight count 0, got %d", c.FlightCount())
	}
}
