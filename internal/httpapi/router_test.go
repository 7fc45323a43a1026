package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vatpac-net/ingestd/internal/scheduler"
)

type fakeOrchestrator struct {
	status scheduler.Status
}

func (f fakeOrchestrator) Status() scheduler.Status { return f.status }

func TestRouter_Healthz_NoDB(t *testing.T) {
	router := NewRouter(nil, nil, time.Now().Add(-time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp healthCheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected overall status ok, got %s", resp.Status)
	}
	if resp.Services["postgres"].Status != "unknown" {
		t.Errorf("expected postgres status unknown with nil db, got %s", resp.Services["postgres"].Status)
	}
}

func TestRouter_Status_ReturnsOrchestratorSnapshot(t *testing.T) {
	now := time.Now()
	fake := fakeOrchestrator{status: scheduler.Status{
		ActiveFlights: 42,
		LastPollAt:    now,
	}}
	router := NewRouter(nil, fake, now)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp scheduler.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ActiveFlights != 42 {
		t.Errorf("expected active_flights 42, got %d", resp.ActiveFlights)
	}
}

func TestRouter_Status_NoOrchestrator(t *testing.T) {
	router := NewRouter(nil, nil, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
