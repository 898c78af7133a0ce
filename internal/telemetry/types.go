package telemetry

import "time"

// Organisation is a provider-side grouping of assets.
type Organisation struct {
	ID   string
	Name string
}

// Asset is the canonical, normalized shape of a tracked vehicle as returned
// by the provider. Latitude and Longitude are nil when the unit has no fix.
type Asset struct {
	ID              string
	DisplayName     string
	Code            string
	Latitude        *float64
	Longitude       *float64
	HeadingDegrees  float64
	SpeedKmh        float64
	InTrip          bool
	IsEnabled       bool
	LastConnectedAt *time.Time
}

// HasFix reports whether the asset carries a usable position.
func (a *Asset) HasFix() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Geofence is a provider-defined zone, listed per organisation.
type Geofence struct {
	ID   string
	Name string
}

// GeofenceDetail adds the zone geometry to a Geofence.
type GeofenceDetail struct {
	ID           string
	Name         string
	Latitude     *float64
	Longitude    *float64
	RadiusMeters float64
	Points       []GeofencePoint
}

// GeofencePoint is one vertex of a polygonal geofence.
type GeofencePoint struct {
	Latitude  float64
	Longitude float64
}
