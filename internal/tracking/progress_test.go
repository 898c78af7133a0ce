package tracking

import (
	"math"
	"testing"

	"logistics-live-tracking/internal/domain/depot"
)

var (
	testOrigin      = &depot.Depot{Name: "Harare Depot", Latitude: -17.8, Longitude: 31.0, RadiusMeters: 500}
	testDestination = &depot.Depot{Name: "Bulawayo Depot", Latitude: -20.1, Longitude: 28.6, RadiusMeters: 500}
)

func TestComputeProgress_Midpoint(t *testing.T) {
	p := ComputeProgress(ProgressInput{
		Origin:      testOrigin,
		Destination: testDestination,
		Latitude:    (testOrigin.Latitude + testDestination.Latitude) / 2,
		Longitude:   (testOrigin.Longitude + testDestination.Longitude) / 2,
	})

	if math.Abs(p.Percent-50) > 1 {
		t.Errorf("expected ~50%%, got %f", p.Percent)
	}
	if p.AtOrigin || p.AtDestination {
		t.Error("midpoint must not be contained in either depot")
	}
	if math.Abs(p.DistanceTraveledKm+p.DistanceRemainingKm-p.TotalDistanceKm) > 1e-9 {
		t.Errorf("distances do not sum: %f + %f != %f",
			p.DistanceTraveledKm, p.DistanceRemainingKm, p.TotalDistanceKm)
	}
}

func TestComputeProgress_AtOrigin(t *testing.T) {
	p := ComputeProgress(ProgressInput{
		Origin:      testOrigin,
		Destination: testDestination,
		Latitude:    testOrigin.Latitude,
		Longitude:   testOrigin.Longitude,
	})

	if !p.AtOrigin {
		t.Error("vehicle at origin center must be contained")
	}
	if p.AtDestination {
		t.Error("vehicle at origin must not be at destination")
	}
	if p.Percent > 1 {
		t.Errorf("expected ~0%% at origin, got %f", p.Percent)
	}
}

func TestComputeProgress_ClampsFarOffRoute(t *testing.T) {
	// Perpendicular offset far larger than the route itself.
	p := ComputeProgress(ProgressInput{
		Origin:      testOrigin,
		Destination: testDestination,
		Latitude:    -14.0,
		Longitude:   25.0,
	})

	if p.Percent < 0 || p.Percent > 100 {
		t.Errorf("progress out of range: %f", p.Percent)
	}
	if p.DistanceRemainingKm < 0 {
		t.Errorf("negative remaining distance: %f", p.DistanceRemainingKm)
	}
}

func TestComputeProgress_ZeroLengthRoute(t *testing.T) {
	p := ComputeProgress(ProgressInput{
		Origin:      testOrigin,
		Destination: testOrigin,
		Latitude:    -18.5,
		Longitude:   30.0,
	})

	if p.Percent != 100 {
		t.Errorf("expected 100%% for degenerate route, got %f", p.Percent)
	}
	if !p.AtOrigin || !p.AtDestination {
		t.Error("degenerate route must report both containments true")
	}
}

func TestNearestDepot(t *testing.T) {
	depots := []*depot.Depot{testOrigin, testDestination}

	// Just outside Harare.
	nearest, distKm, ok := NearestDepot(-17.9, 31.0, depots)
	if !ok {
		t.Fatal("expected a nearest depot")
	}
	if nearest.Name != "Harare Depot" {
		t.Errorf("expected Harare Depot, got %s", nearest.Name)
	}
	if distKm <= 0 || distKm > 20 {
		t.Errorf("implausible distance: %f", distKm)
	}
}

func TestNearestDepot_EmptyCatalog(t *testing.T) {
	if _, _, ok := NearestDepot(-17.9, 31.0, nil); ok {
		t.Error("expected no result for empty catalog")
	}
}
