package tracking

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the per-load trip progress view recomputed on every poll
// cycle. It is never persisted; only the latest value per load is retained
// for display.
type Snapshot struct {
	LoadID    uuid.UUID `json:"load_id"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`

	VehicleLabel string `json:"vehicle_label,omitempty"`
	HasFix       bool   `json:"has_fix"`

	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	SpeedKmh       float64  `json:"speed_kmh"`
	HeadingDegrees float64  `json:"heading_degrees"`
	IsMoving       bool     `json:"is_moving"`

	ProgressPercent     float64 `json:"progress_percent"`
	TotalDistanceKm     float64 `json:"total_distance_km"`
	DistanceTraveledKm  float64 `json:"distance_traveled_km"`
	DistanceRemainingKm float64 `json:"distance_remaining_km"`

	AtOrigin      bool `json:"at_origin"`
	AtDestination bool `json:"at_destination"`

	NearestDepotName string  `json:"nearest_depot_name,omitempty"`
	NearestDepotKm   float64 `json:"nearest_depot_km,omitempty"`

	ETA *ETA `json:"eta,omitempty"`

	// StatusNote explains why progress could not be computed, e.g.
	// "no vehicle position" or "no destination coordinates". Empty when the
	// snapshot is complete.
	StatusNote string `json:"status_note,omitempty"`

	// LastUpdatedAt labels stale data instead of hiding it.
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// SnapshotStore keeps the latest snapshot per load. Values survive failed
// ticks so the dashboard shows stale-but-labeled data rather than nothing.
type SnapshotStore struct {
	mu     sync.RWMutex
	byLoad map[uuid.UUID]Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{byLoad: make(map[uuid.UUID]Snapshot)}
}

func (s *SnapshotStore) Put(snap Snapshot) {
	s.mu.Lock()
	s.byLoad[snap.LoadID] = snap
	s.mu.Unlock()
}

func (s *SnapshotStore) Get(loadID uuid.UUID) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.byLoad[loadID]
	return snap, ok
}

func (s *SnapshotStore) List() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Snapshot, 0, len(s.byLoad))
	for _, snap := range s.byLoad {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Reference < out[j].Reference
	})
	return out
}

// Drop removes the snapshot for a load that is no longer active.
func (s *SnapshotStore) Drop(loadID uuid.UUID) {
	s.mu.Lock()
	delete(s.byLoad, loadID)
	s.mu.Unlock()
}
