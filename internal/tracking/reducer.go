package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"logistics-live-tracking/internal/domain/load"
)

// EventKind is a discrete geofence crossing signal.
type EventKind string

const (
	LoadingArrival      EventKind = "loading_arrival"
	LoadingDeparture    EventKind = "loading_departure"
	OffloadingArrival   EventKind = "offloading_arrival"
	OffloadingDeparture EventKind = "offloading_departure"
)

// Event is one geofence crossing for a load.
type Event struct {
	LoadID    uuid.UUID `json:"load_id"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher mirrors applied events to downstream consumers
// (notifications, audit). Publishing is best-effort.
type EventPublisher interface {
	PublishGeofenceEvent(ctx context.Context, ev Event) error
}

// State machine for geofence-driven status transitions. Statuses only move
// forward (pending/scheduled → in_transit → delivered); any (event, status)
// pair outside the table is ignored, which makes the reducer idempotent
// against duplicate and out-of-order geofence signals.
var eventTransitions = map[EventKind]struct {
	allowedFrom map[load.Status]bool
	// next is empty when the event only records a timestamp.
	next load.Status
}{
	LoadingArrival: {
		allowedFrom: map[load.Status]bool{load.StatusPending: true, load.StatusScheduled: true},
	},
	LoadingDeparture: {
		allowedFrom: map[load.Status]bool{load.StatusPending: true, load.StatusScheduled: true},
		next:        load.StatusInTransit,
	},
	OffloadingArrival: {
		allowedFrom: map[load.Status]bool{load.StatusInTransit: true},
	},
	OffloadingDeparture: {
		allowedFrom: map[load.Status]bool{load.StatusInTransit: true},
		next:        load.StatusDelivered,
	},
}

// Reducer derives shipment lifecycle transitions from geofence events and
// writes them back to the load store.
type Reducer struct {
	loads     load.Repository
	publisher EventPublisher
	log       *zap.Logger
}

func NewReducer(loads load.Repository, publisher EventPublisher, log *zap.Logger) *Reducer {
	return &Reducer{
		loads:     loads,
		publisher: publisher,
		log:       log,
	}
}

// Apply consumes one event. It returns (false, nil) when the event is
// ignored per the transition table, and a non-nil error when the store
// write failed — in which case the event is NOT consumed and must be
// redelivered, otherwise a load could be left stuck in-transit forever.
func (r *Reducer) Apply(ctx context.Context, ev Event) (bool, error) {
	l, err := r.loads.GetByID(ctx, ev.LoadID)
	if err != nil {
		return false, err
	}

	rule, known := eventTransitions[ev.Kind]
	if !known || !rule.allowedFrom[l.Status] {
		r.log.Debug("Ignoring geofence event for current status",
			zap.String("load_id", ev.LoadID.String()),
			zap.String("event", string(ev.Kind)),
			zap.String("status", string(l.Status)),
		)
		return false, nil
	}

	next := rule.next
	if next == "" {
		next = l.Status
	}

	if err := r.loads.UpdateStatus(ctx, l.ID, l.Status, next, timestampPatch(ev)); err != nil {
		return false, err
	}

	r.log.Info("Applied geofence event",
		zap.String("load_id", ev.LoadID.String()),
		zap.String("event", string(ev.Kind)),
		zap.String("from", string(l.Status)),
		zap.String("to", string(next)),
	)

	if r.publisher != nil {
		if err := r.publisher.PublishGeofenceEvent(ctx, ev); err != nil {
			r.log.Warn("Failed to publish geofence event", zap.Error(err))
		}
	}

	return true, nil
}

func timestampPatch(ev Event) load.TimestampPatch {
	ts := ev.Timestamp

	switch ev.Kind {
	case LoadingArrival:
		return load.TimestampPatch{ActualLoadingArrival: &ts}
	case LoadingDeparture:
		return load.TimestampPatch{ActualLoadingDeparture: &ts}
	case OffloadingArrival:
		return load.TimestampPatch{ActualOffloadingArrival: &ts}
	case OffloadingDeparture:
		return load.TimestampPatch{ActualOffloadingDeparture: &ts}
	}
	return load.TimestampPatch{}
}
