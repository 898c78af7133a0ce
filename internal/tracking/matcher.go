package tracking

import (
	"logistics-live-tracking/internal/domain/load"
	"logistics-live-tracking/internal/telemetry"
	apperrors "logistics-live-tracking/pkg/errors"
)

// ResolveAsset binds a load's configured vehicle identifier to a currently
// known telemetry asset. The identifier is compared exactly (case-sensitive)
// against the asset's unit ID and registration code; the first match wins.
//
// ErrNoMatch is not a failure: it means no live tracking is available for
// this load, which is a normal state shown to users as "No GPS".
func ResolveAsset(l *load.Load, assets []telemetry.Asset) (*telemetry.Asset, error) {
	if l.VehicleIdentifier == nil || *l.VehicleIdentifier == "" {
		return nil, apperrors.ErrNoMatch
	}

	identifier := *l.VehicleIdentifier
	for i := range assets {
		if assets[i].ID == identifier || assets[i].Code == identifier {
			return &assets[i], nil
		}
	}
	return nil, apperrors.ErrNoMatch
}
