package load

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TimestampPatch carries the actual-arrival/departure fields a status
// transition sets. Nil fields are left untouched.
type TimestampPatch struct {
	ActualLoadingArrival      *time.Time
	ActualLoadingDeparture    *time.Time
	ActualOffloadingArrival   *time.Time
	ActualOffloadingDeparture *time.Time
}

// Repository is the shipment store as seen by the tracking engine.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Load, error)

	// ListActive returns loads with status pending, scheduled or in_transit.
	ListActive(ctx context.Context) ([]*Load, error)

	// UpdateStatus applies one lifecycle transition as a single conditional
	// update: the row is only written if its status still equals current.
	// Returns ErrStaleStatus when the condition no longer holds and
	// ErrLoadNotFound when the load does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, current, next Status, patch TimestampPatch) error
}
