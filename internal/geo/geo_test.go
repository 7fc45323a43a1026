package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversineNM_Symmetry(t *testing.T) {
	cases := []struct {
		a, b Point
	}{
		{Point{Lat: -33.8688, Lon: 151.2093}, Point{Lat: -27.4698, Lon: 153.0251}},
		{Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: 0}},
		{Point{Lat: 90, Lon: 0}, Point{Lat: -90, Lon: 0}},
		{Point{Lat: -12.3, Lon: 179.9}, Point{Lat: -12.3, Lon: -179.9}},
	}
	for _, c := range cases {
		d1 := HaversineNM(c.a, c.b)
		d2 := HaversineNM(c.b, c.a)
		if math.Abs(d1-d2) > 1e-6 {
			t.Errorf("HaversineNM(%v,%v)=%v != HaversineNM(%v,%v)=%v", c.a, c.b, d1, c.b, c.a, d2)
		}
	}
}

func TestHaversineNM_ZeroDistance(t *testing.T) {
	p := Point{Lat: -33.9461, Lon: 151.1772}
	if d := HaversineNM(p, p); d != 0 {
		t.Errorf("expected 0 distance for identical points, got %v", d)
	}
}

func TestPolygon_BoundarySafety(t *testing.T) {
	ring := orb.Ring{{140, -40}, {160, -40}, {160, -10}, {140, -10}, {140, -40}}
	poly := NewPolygon(ring)

	if !poly.Contains(Point{Lat: -33.8688, Lon: 151.2093}) {
		t.Error("expected point strictly inside the polygon to be contained")
	}
	if poly.Contains(Point{Lat: 51.5074, Lon: -0.1278}) {
		t.Error("expected point strictly outside the polygon to be excluded")
	}
	// On-edge: documented as contained (ray-cast treats boundary as inside).
	if !poly.Contains(Point{Lat: -40, Lon: 150}) {
		t.Error("expected on-edge point to be contained per documented boundary behavior")
	}
}

func TestPolygon_Empty(t *testing.T) {
	var poly Polygon
	if !poly.Empty() {
		t.Error("expected zero-value polygon to be empty")
	}
	if poly.Contains(Point{Lat: 0, Lon: 0}) {
		t.Error("expected empty polygon to contain nothing")
	}
}
