// Package geo holds the geometric primitives shared by the tracking engine.
// Every distance or containment check in the system goes through here.
package geo

import "math"

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// DistanceKm returns the great-circle distance between two coordinates
// using the haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// SegmentProjection describes where a point falls relative to a segment.
type SegmentProjection struct {
	// Fraction is the position of the projected point along the segment,
	// clamped to [0, 1].
	Fraction float64
	// OffsetKm is the distance from the point to the closest point on the
	// segment.
	OffsetKm float64
}

// ProjectOntoSegment projects p onto the segment from segStart to segEnd in
// a locally-flat approximation, scaling longitude by the cosine of the mean
// latitude. At the distances involved here (tens to low hundreds of km) the
// error is negligible. A zero-length segment projects to Fraction 1.
func ProjectOntoSegment(p, segStart, segEnd Point) SegmentProjection {
	kx := math.Cos(toRad((segStart.Lat + segEnd.Lat) / 2))

	ax, ay := segStart.Lon*kx, segStart.Lat
	bx, by := segEnd.Lon*kx, segEnd.Lat
	px, py := p.Lon*kx, p.Lat

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return SegmentProjection{
			Fraction: 1,
			OffsetKm: DistanceKm(p.Lat, p.Lon, segStart.Lat, segStart.Lon),
		}
	}

	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closestLon := (ax + t*dx) / kx
	closestLat := ay + t*dy

	return SegmentProjection{
		Fraction: t,
		OffsetKm: DistanceKm(p.Lat, p.Lon, closestLat, closestLon),
	}
}

// WithinRadius reports whether p lies inside the circle around center.
func WithinRadius(p, center Point, radiusMeters float64) bool {
	return DistanceKm(p.Lat, p.Lon, center.Lat, center.Lon)*1000 <= radiusMeters
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
