package tracking

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultAverageSpeedKmh is assumed when the live speed reading is too
	// low to extrapolate from.
	DefaultAverageSpeedKmh = 60.0

	// minUsableSpeedKmh is the floor below which an instantaneous reading
	// (stopped at a light, loading) is replaced by the average speed so a
	// near-zero value never produces an absurd ETA.
	minUsableSpeedKmh = 10.0

	// movingSpeedKmh feeds the moving/stationary UI label only; it is
	// deliberately lower than the ETA speed floor.
	movingSpeedKmh = 5.0
)

// ETAInput names the ETA parameters explicitly, mirroring ProgressInput.
type ETAInput struct {
	DistanceRemainingKm float64
	CurrentSpeedKmh     float64
	// AverageSpeedKmh overrides DefaultAverageSpeedKmh when positive.
	AverageSpeedKmh float64
}

// ETA is an arrival estimate with a human-readable duration.
type ETA struct {
	ArrivalAt       time.Time `json:"arrival_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Label           string    `json:"label"`
}

// ComputeETA converts remaining distance and a speed estimate into an
// arrival time.
func ComputeETA(in ETAInput, now time.Time) ETA {
	average := in.AverageSpeedKmh
	if average <= 0 {
		average = DefaultAverageSpeedKmh
	}

	effective := in.CurrentSpeedKmh
	if effective <= minUsableSpeedKmh {
		effective = average
	}

	minutes := int(math.Round(in.DistanceRemainingKm / effective * 60))
	if minutes < 0 {
		minutes = 0
	}

	return ETA{
		ArrivalAt:       now.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Label:           formatDuration(minutes),
	}
}

// IsMoving classifies the speed reading for the moving/stationary badge.
func IsMoving(speedKmh float64) bool {
	return speedKmh > movingSpeedKmh
}

func formatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
