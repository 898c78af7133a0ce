package load

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle status of a load.
type Status string

const (
	StatusPending   Status = "pending"   // Created, not yet scheduled
	StatusScheduled Status = "scheduled" // Vehicle and dates assigned
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled" // Terminal, never set by tracking
)

// ActiveStatuses are the statuses the poller tracks live.
var ActiveStatuses = []Status{StatusPending, StatusScheduled, StatusInTransit}

// Load represents a shipment between two depots.
type Load struct {
	ID uuid.UUID

	Reference string

	// Origin and Destination are depot display names resolved through the
	// depot catalog.
	Origin      string
	Destination string

	Status Status

	// VehicleIdentifier links the load to a telemetry asset by unit ID or
	// registration code. Nil means no live tracking for this load.
	VehicleIdentifier *string

	DriverName *string
	ClientName *string

	// Geofence-derived timestamps, set by the status reducer.
	ActualLoadingArrival      *time.Time
	ActualLoadingDeparture    *time.Time
	ActualOffloadingArrival   *time.Time
	ActualOffloadingDeparture *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the load participates in live tracking.
func (l *Load) IsActive() bool {
	switch l.Status {
	case StatusPending, StatusScheduled, StatusInTransit:
		return true
	}
	return false
}
