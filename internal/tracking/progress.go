package tracking

import (
	"logistics-live-tracking/internal/domain/depot"
	"logistics-live-tracking/internal/geo"
)

// ProgressInput names every parameter of the progress calculation
// explicitly. Progress and ETA deliberately take distinct input structs so
// their arguments can never be swapped silently.
type ProgressInput struct {
	Origin      *depot.Depot
	Destination *depot.Depot
	Latitude    float64
	Longitude   float64
}

// Progress is the geometric portion of a trip snapshot.
type Progress struct {
	Percent             float64
	TotalDistanceKm     float64
	DistanceTraveledKm  float64
	DistanceRemainingKm float64
	AtOrigin            bool
	AtDestination       bool
}

// ComputeProgress projects the current position onto the straight
// origin→destination segment. The straight-line model is deliberate: the
// containment radii and nearest-depot fallback are tuned around it, and the
// clamp guarantees the reported progress stays in [0, 100] however far the
// actual road wanders from the line.
func ComputeProgress(in ProgressInput) Progress {
	originPt := geo.Point{Lat: in.Origin.Latitude, Lon: in.Origin.Longitude}
	destPt := geo.Point{Lat: in.Destination.Latitude, Lon: in.Destination.Longitude}
	current := geo.Point{Lat: in.Latitude, Lon: in.Longitude}

	total := geo.DistanceKm(originPt.Lat, originPt.Lon, destPt.Lat, destPt.Lon)
	if total == 0 {
		// Origin and destination resolve to the same depot — a data error
		// upstream. Report the trip as complete instead of dividing by zero.
		return Progress{
			Percent:       100,
			AtOrigin:      true,
			AtDestination: true,
		}
	}

	proj := geo.ProjectOntoSegment(current, originPt, destPt)
	traveled := total * proj.Fraction

	return Progress{
		Percent:             proj.Fraction * 100,
		TotalDistanceKm:     total,
		DistanceTraveledKm:  traveled,
		DistanceRemainingKm: total - traveled,
		AtOrigin:            geo.WithinRadius(current, originPt, in.Origin.RadiusMeters),
		AtDestination:       geo.WithinRadius(current, destPt, in.Destination.RadiusMeters),
	}
}

// NearestDepot scans the catalog for the depot closest to the position.
// Used as a fallback label when neither origin nor destination containment
// holds, so users see "near <depot>" instead of nothing.
func NearestDepot(latitude, longitude float64, depots []*depot.Depot) (*depot.Depot, float64, bool) {
	var (
		nearest *depot.Depot
		best    float64
	)

	for _, d := range depots {
		dist := geo.DistanceKm(latitude, longitude, d.Latitude, d.Longitude)
		if nearest == nil || dist < best {
			nearest = d
			best = dist
		}
	}

	if nearest == nil {
		return nil, 0, false
	}
	return nearest, best, true
}
