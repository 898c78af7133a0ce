package tracking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"logistics-live-tracking/internal/domain/depot"
	"logistics-live-tracking/internal/domain/load"
	"logistics-live-tracking/internal/geo"
	"logistics-live-tracking/internal/telemetry"
	apperrors "logistics-live-tracking/pkg/errors"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultTickTimeout  = 12 * time.Second

	// A vehicle must leave this multiple of the depot radius before a
	// departure fires, so GPS jitter at the boundary does not generate
	// arrival/departure storms.
	exitHysteresisFactor = 1.5
)

// Status notes shown on snapshots when progress cannot be computed. The
// wording distinguishes "never matched" from "matched but the provider
// returned no fix" from "route depots unresolvable".
const (
	noteNoVehicle     = "no vehicle unit matched"
	noteNoFix         = "no vehicle position"
	noteNoOrigin      = "no origin coordinates"
	noteNoDestination = "no destination coordinates"
)

// AssetSource is the slice of the telemetry client the poller depends on.
type AssetSource interface {
	ListAssetsWithFix(ctx context.Context, organisationID string) ([]telemetry.Asset, error)
}

type PollerConfig struct {
	OrganisationID  string
	Interval        time.Duration
	TickTimeout     time.Duration
	AverageSpeedKmh float64
}

type containmentState struct {
	AtOrigin      bool
	AtDestination bool
}

// Poller drives the whole tracking pipeline on a fixed interval: one
// organisation-level asset fetch per tick, then matching, progress, ETA and
// geofence crossing detection for every active load. Ticks never overlap;
// a tick scheduled while the previous one is still in flight is skipped.
type Poller struct {
	cfg       PollerConfig
	assets    AssetSource
	loads     load.Repository
	depots    depot.Catalog
	reducer   *Reducer
	snapshots *SnapshotStore
	hub       *Hub
	metrics   *MetricsTracker
	log       *zap.Logger
	now       func() time.Time

	inFlight atomic.Bool

	mu          sync.Mutex
	containment map[uuid.UUID]containmentState
}

func NewPoller(
	cfg PollerConfig,
	assets AssetSource,
	loads load.Repository,
	depots depot.Catalog,
	reducer *Reducer,
	snapshots *SnapshotStore,
	hub *Hub,
	log *zap.Logger,
) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = defaultTickTimeout
	}
	if cfg.AverageSpeedKmh <= 0 {
		cfg.AverageSpeedKmh = DefaultAverageSpeedKmh
	}

	return &Poller{
		cfg:         cfg,
		assets:      assets,
		loads:       loads,
		depots:      depots,
		reducer:     reducer,
		snapshots:   snapshots,
		hub:         hub,
		metrics:     NewMetricsTracker(),
		log:         log,
		now:         time.Now,
		containment: make(map[uuid.UUID]containmentState),
	}
}

// Run drives the poll loop until the context is cancelled. An in-flight
// tick finishes (or times out) before Run returns to its caller's shutdown
// sequence.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("Poller started",
		zap.Duration("interval", p.cfg.Interval),
		zap.Duration("tick_timeout", p.cfg.TickTimeout),
	)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.runTick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Poller stopped")
			return
		case <-ticker.C:
			p.runTick(ctx)
		}
	}
}

func (p *Poller) runTick(ctx context.Context) {
	err := p.PollOnce(ctx)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrTickInFlight):
		p.log.Warn("Skipping poll tick, previous tick still in flight")
	case errors.Is(err, context.Canceled):
	default:
		p.log.Error("Poll tick failed", zap.Error(err))
	}
}

// PollOnce executes a single tick. Returns ErrTickInFlight when another
// tick (scheduled or API-triggered) is still running.
func (p *Poller) PollOnce(ctx context.Context) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.Update(func(m *PollMetrics) { m.TicksSkipped++ })
		return apperrors.ErrTickInFlight
	}
	defer p.inFlight.Store(false)

	tickCtx, cancel := context.WithTimeout(ctx, p.cfg.TickTimeout)
	defer cancel()

	started := time.Now()
	err := p.tick(tickCtx)
	elapsed := time.Since(started)

	p.metrics.Update(func(m *PollMetrics) {
		m.LastTickAt = p.now()
		m.LastTickMillis = elapsed.Milliseconds()
		if err != nil {
			m.TicksFailed++
		} else {
			m.TicksCompleted++
		}
	})

	return err
}

func (p *Poller) tick(ctx context.Context) error {
	// Session-level failures (cannot authenticate, cannot list assets)
	// abort the whole tick and are reported once, not once per load. The
	// previous snapshots stay available, labeled with their update time.
	assets, err := p.assets.ListAssetsWithFix(ctx, p.cfg.OrganisationID)
	if err != nil {
		return err
	}

	activeLoads, err := p.loads.ListActive(ctx)
	if err != nil {
		return err
	}

	now := p.now()
	var eventsApplied int64
	active := make(map[uuid.UUID]bool, len(activeLoads))

	for _, l := range activeLoads {
		active[l.ID] = true
		snap, events := p.evaluate(l, assets, now)
		p.snapshots.Put(snap)

		for _, ev := range events {
			applied, err := p.reducer.Apply(ctx, ev)
			if err != nil {
				// Not consumed: roll back the containment flag so the
				// crossing is re-detected and redelivered next tick.
				p.revertContainment(ev)
				p.log.Error("Failed to apply geofence event, will redeliver",
					zap.String("load_id", ev.LoadID.String()),
					zap.String("event", string(ev.Kind)),
					zap.Error(err),
				)
				continue
			}
			if applied {
				eventsApplied++
			}
		}
	}

	// Loads that left the active set (delivered, cancelled) disappear from
	// the dashboard on the following tick.
	for _, snap := range p.snapshots.List() {
		if !active[snap.LoadID] {
			p.snapshots.Drop(snap.LoadID)
			p.forgetContainment(snap.LoadID)
		}
	}

	if p.hub != nil {
		p.hub.Broadcast(p.snapshots.List())
	}

	p.metrics.Update(func(m *PollMetrics) {
		m.AssetsSeen = len(assets)
		m.LoadsTracked = len(activeLoads)
		m.EventsEmitted += eventsApplied
	})

	return nil
}

// evaluate builds the snapshot for one load and detects geofence crossings.
// Every failure mode downgrades to a labeled snapshot instead of an error
// so one load cannot blank out the fleet view.
func (p *Poller) evaluate(l *load.Load, assets []telemetry.Asset, now time.Time) (Snapshot, []Event) {
	snap := Snapshot{
		LoadID:        l.ID,
		Reference:     l.Reference,
		Status:        string(l.Status),
		LastUpdatedAt: now,
	}

	asset, err := ResolveAsset(l, assets)
	if err != nil {
		snap.StatusNote = noteFor(err)
		return snap, nil
	}

	snap.VehicleLabel = asset.DisplayName
	if snap.VehicleLabel == "" {
		snap.VehicleLabel = asset.Code
	}
	snap.SpeedKmh = asset.SpeedKmh
	snap.HeadingDegrees = asset.HeadingDegrees
	snap.IsMoving = IsMoving(asset.SpeedKmh)

	if !asset.HasFix() {
		snap.StatusNote = noteFor(apperrors.ErrNoFix)
		return snap, nil
	}
	snap.HasFix = true
	snap.Latitude = asset.Latitude
	snap.Longitude = asset.Longitude

	origin, err := p.depots.Lookup(l.Origin)
	if err != nil {
		snap.StatusNote = noteNoOrigin
		return snap, nil
	}
	destination, err := p.depots.Lookup(l.Destination)
	if err != nil {
		snap.StatusNote = noteNoDestination
		return snap, nil
	}

	progress := ComputeProgress(ProgressInput{
		Origin:      origin,
		Destination: destination,
		Latitude:    *asset.Latitude,
		Longitude:   *asset.Longitude,
	})

	snap.ProgressPercent = progress.Percent
	snap.TotalDistanceKm = progress.TotalDistanceKm
	snap.DistanceTraveledKm = progress.DistanceTraveledKm
	snap.DistanceRemainingKm = progress.DistanceRemainingKm
	snap.AtOrigin = progress.AtOrigin
	snap.AtDestination = progress.AtDestination

	eta := ComputeETA(ETAInput{
		DistanceRemainingKm: progress.DistanceRemainingKm,
		CurrentSpeedKmh:     asset.SpeedKmh,
		AverageSpeedKmh:     p.cfg.AverageSpeedKmh,
	}, now)
	snap.ETA = &eta

	if !progress.AtOrigin && !progress.AtDestination {
		if nearest, distKm, ok := NearestDepot(*asset.Latitude, *asset.Longitude, p.depots.All()); ok {
			snap.NearestDepotName = nearest.Name
			snap.NearestDepotKm = distKm
		}
	}

	events := p.detectCrossings(l, origin, destination, *asset.Latitude, *asset.Longitude, now)
	return snap, events
}

// detectCrossings compares this tick's containment against the previous
// tick's and emits one event per boundary crossing.
func (p *Poller) detectCrossings(l *load.Load, origin, destination *depot.Depot, lat, lon float64, now time.Time) []Event {
	p.mu.Lock()
	prev := p.containment[l.ID]
	p.mu.Unlock()

	cur := containmentState{
		AtOrigin:      withinWithHysteresis(lat, lon, origin, prev.AtOrigin),
		AtDestination: withinWithHysteresis(lat, lon, destination, prev.AtDestination),
	}

	var events []Event
	if cur.AtOrigin && !prev.AtOrigin {
		events = append(events, Event{LoadID: l.ID, Kind: LoadingArrival, Timestamp: now})
	}
	if !cur.AtOrigin && prev.AtOrigin {
		events = append(events, Event{LoadID: l.ID, Kind: LoadingDeparture, Timestamp: now})
	}
	if cur.AtDestination && !prev.AtDestination {
		events = append(events, Event{LoadID: l.ID, Kind: OffloadingArrival, Timestamp: now})
	}
	if !cur.AtDestination && prev.AtDestination {
		events = append(events, Event{LoadID: l.ID, Kind: OffloadingDeparture, Timestamp: now})
	}

	p.mu.Lock()
	p.containment[l.ID] = cur
	p.mu.Unlock()

	// A restart must not re-stamp actuals already recorded for this load.
	filtered := events[:0]
	for _, ev := range events {
		if !alreadyRecorded(l, ev.Kind) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

func (p *Poller) forgetContainment(loadID uuid.UUID) {
	p.mu.Lock()
	delete(p.containment, loadID)
	p.mu.Unlock()
}

func (p *Poller) revertContainment(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.containment[ev.LoadID]
	switch ev.Kind {
	case LoadingArrival:
		st.AtOrigin = false
	case LoadingDeparture:
		st.AtOrigin = true
	case OffloadingArrival:
		st.AtDestination = false
	case OffloadingDeparture:
		st.AtDestination = true
	}
	p.containment[ev.LoadID] = st
}

// Metrics returns a copy of the current poll metrics.
func (p *Poller) Metrics() PollMetrics {
	return p.metrics.Snapshot()
}

func withinWithHysteresis(lat, lon float64, d *depot.Depot, wasInside bool) bool {
	radius := d.RadiusMeters
	if wasInside {
		radius *= exitHysteresisFactor
	}
	return geo.WithinRadius(
		geo.Point{Lat: lat, Lon: lon},
		geo.Point{Lat: d.Latitude, Lon: d.Longitude},
		radius,
	)
}

// noteFor maps a tracking error to the status note shown on the snapshot.
func noteFor(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNoMatch):
		return noteNoVehicle
	case errors.Is(err, apperrors.ErrNoFix):
		return noteNoFix
	}
	return err.Error()
}

func alreadyRecorded(l *load.Load, kind EventKind) bool {
	switch kind {
	case LoadingArrival:
		return l.ActualLoadingArrival != nil
	case LoadingDeparture:
		return l.ActualLoadingDeparture != nil
	case OffloadingArrival:
		return l.ActualOffloadingArrival != nil
	case OffloadingDeparture:
		return l.ActualOffloadingDeparture != nil
	}
	return false
}
