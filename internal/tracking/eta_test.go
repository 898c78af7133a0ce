package tracking

import (
	"testing"
	"time"
)

func TestComputeETA_LowSpeedFallsBackToAverage(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// 2 km/h is a stopped-at-the-gate reading and must not be extrapolated
	// into a 50-hour ETA.
	eta := ComputeETA(ETAInput{DistanceRemainingKm: 100, CurrentSpeedKmh: 2}, now)

	if eta.DurationMinutes != 100 {
		t.Errorf("expected 100 minutes at the 60 km/h average, got %d", eta.DurationMinutes)
	}
	if got, want := eta.ArrivalAt, now.Add(100*time.Minute); !got.Equal(want) {
		t.Errorf("expected arrival %v, got %v", want, got)
	}
}

func TestComputeETA_UsesLiveSpeedWhenAboveFloor(t *testing.T) {
	now := time.Now()

	eta := ComputeETA(ETAInput{DistanceRemainingKm: 100, CurrentSpeedKmh: 80}, now)
	if eta.DurationMinutes != 75 {
		t.Errorf("expected 75 minutes at 80 km/h, got %d", eta.DurationMinutes)
	}
}

func TestComputeETA_FloorBoundary(t *testing.T) {
	// Exactly at the floor still counts as too slow.
	eta := ComputeETA(ETAInput{DistanceRemainingKm: 60, CurrentSpeedKmh: 10}, time.Now())
	if eta.DurationMinutes != 60 {
		t.Errorf("expected average speed at the boundary, got %d minutes", eta.DurationMinutes)
	}
}

func TestComputeETA_CustomAverage(t *testing.T) {
	eta := ComputeETA(ETAInput{DistanceRemainingKm: 90, CurrentSpeedKmh: 0, AverageSpeedKmh: 45}, time.Now())
	if eta.DurationMinutes != 120 {
		t.Errorf("expected 120 minutes at 45 km/h, got %d", eta.DurationMinutes)
	}
}

func TestComputeETA_ZeroDistance(t *testing.T) {
	now := time.Now()
	eta := ComputeETA(ETAInput{DistanceRemainingKm: 0, CurrentSpeedKmh: 80}, now)
	if eta.DurationMinutes != 0 {
		t.Errorf("expected 0 minutes, got %d", eta.DurationMinutes)
	}
	if !eta.ArrivalAt.Equal(now) {
		t.Errorf("expected immediate arrival, got %v", eta.ArrivalAt)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h 00m"},
		{125, "2h 05m"},
	}

	for _, tc := range cases {
		if got := formatDuration(tc.minutes); got != tc.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tc.minutes, got, tc.want)
		}
	}
}

func TestIsMoving(t *testing.T) {
	// The moving badge threshold sits below the ETA speed floor, so a truck
	// crawling at 7 km/h shows as moving while its ETA uses the average.
	if IsMoving(5) {
		t.Error("5 km/h is stationary")
	}
	if !IsMoving(7) {
		t.Error("7 km/h is moving")
	}
	if IsMoving(0) {
		t.Error("0 km/h is stationary")
	}
}
