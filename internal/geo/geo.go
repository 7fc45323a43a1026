// Package geo provides the pure geographic primitives shared by the
// Airspace Reference, the Lifecycle Engine's landing detector, and the
// Correlator: great-circle distance and point-in-polygon membership.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// earthRadiusNM is the mean Earth radius in nautical miles, used by
// HaversineNM. 1 nm = 1852 m exactly; mean radius 6371.0088 km.
const earthRadiusNM = 6371.0088 / 1.852

// Point is a (latitude, longitude) pair in WGS84 degrees.
type Point struct {
	Lat float64
	Lon float64
}

// HaversineNM returns the great-circle distance between a and b in nautical
// miles. It is symmetric by construction (P5): HaversineNM(a,b) ==
// HaversineNM(b,a) for all inputs, since every term depends only on the
// absolute difference of latitudes/longitudes and the product of cosines.
func HaversineNM(a, b Point) float64 {
	lat1 := degToRad(a.Lat)
	lat2 := degToRad(b.Lat)
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusNM * c
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

// Polygon wraps a set of orb.Rings (a point inside any one ring is
// contained; no ring is treated as a hole) with a precomputed bounding box
// so Contains can reject most
// candidates in O(1) before falling back to the O(n) ray-cast (spec §4.B:
// "bounding-box pre-filter when the sector set is large").
type Polygon struct {
	rings []orb.Ring
	bound orb.Bound
}

// NewPolygon builds a Polygon from one or more orb.Rings (the airspace
// loaders pass every ring of each polygon in a FeatureCollection).
func NewPolygon(rings ...orb.Ring) Polygon {
	p := Polygon{rings: rings}
	for i, r := range rings {
		b := r.Bound()
		if i == 0 {
			p.bound = b
		} else {
			p.bound = p.bound.Union(b)
		}
	}
	return p
}

// Contains reports whether pt lies inside the polygon using a bounding-box
// pre-filter followed by a ray-cast test (orb/planar.RingContains) against
// each ring. A point on an edge is documented (P8) as belonging to the
// polygon: orb's ray-cast implementation already treats boundary points as
// contained, and we preserve that behavior rather than special-casing it.
func (p Polygon) Contains(pt Point) bool {
	op := orb.Point{pt.Lon, pt.Lat}
	if !p.bound.Contains(op) {
		return false
	}
	for _, r := range p.rings {
		if planar.RingContains(r, op) {
			return true
		}
	}
	return false
}

// Empty reports whether the polygon has no rings (e.g. failed/absent load).
func (p Polygon) Empty() bool { return len(p.rings) == 0 }
