package telemetry

import (
	"encoding/json"
	"strconv"
	"time"
)

// The provider has been observed to use inconsistent field casing across
// endpoints (e.g. `LastLatitude` from one, `lastLatitude` from another).
// Each canonical field is therefore decoded from a fixed priority list of
// source keys, so the rest of the system only ever sees the Asset shape.

func (a *Asset) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.ID = pickString(raw, "id", "Id", "ID", "assetId", "AssetId")
	a.DisplayName = pickString(raw, "name", "Name", "description", "Description")
	a.Code = pickString(raw, "code", "Code", "registration", "Registration")
	a.Latitude = pickFloatPtr(raw, "lastLatitude", "LastLatitude", "latitude", "Latitude")
	a.Longitude = pickFloatPtr(raw, "lastLongitude", "LastLongitude", "longitude", "Longitude")
	a.HeadingDegrees = pickFloat(raw, 0, "lastHeading", "LastHeading", "heading", "Heading")
	a.SpeedKmh = pickFloat(raw, 0, "lastSpeed", "LastSpeed", "speed", "Speed")
	a.InTrip = pickBool(raw, false, "inTrip", "InTrip", "isInTrip", "IsInTrip")
	a.IsEnabled = pickBool(raw, true, "isEnabled", "IsEnabled", "enabled", "Enabled")
	a.LastConnectedAt = pickTimePtr(raw, "lastConnectedDate", "LastConnectedDate", "lastConnected", "LastConnected")

	return nil
}

func (o *Organisation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.ID = pickString(raw, "id", "Id", "ID", "organisationId", "OrganisationId")
	o.Name = pickString(raw, "name", "Name", "description", "Description")

	return nil
}

func (g *Geofence) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.ID = pickString(raw, "id", "Id", "ID", "geofenceId", "GeofenceId")
	g.Name = pickString(raw, "name", "Name", "description", "Description")

	return nil
}

func (g *GeofenceDetail) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.ID = pickString(raw, "id", "Id", "ID")
	g.Name = pickString(raw, "name", "Name", "description", "Description")
	g.Latitude = pickFloatPtr(raw, "latitude", "Latitude", "centerLatitude", "CenterLatitude")
	g.Longitude = pickFloatPtr(raw, "longitude", "Longitude", "centerLongitude", "CenterLongitude")
	g.RadiusMeters = pickFloat(raw, 0, "radius", "Radius", "radiusMeters", "RadiusMeters")

	if pts, ok := raw["points"]; ok {
		_ = json.Unmarshal(pts, &g.Points)
	} else if pts, ok := raw["Points"]; ok {
		_ = json.Unmarshal(pts, &g.Points)
	}

	return nil
}

func (p *GeofencePoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Latitude = pickFloat(raw, 0, "latitude", "Latitude", "lat", "Lat")
	p.Longitude = pickFloat(raw, 0, "longitude", "Longitude", "lng", "Lng", "lon", "Lon")

	return nil
}

func pickString(raw map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		rv, ok := raw[k]
		if !ok || string(rv) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(rv, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(rv, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func pickFloat(raw map[string]json.RawMessage, fallback float64, keys ...string) float64 {
	if v := pickFloatPtr(raw, keys...); v != nil {
		return *v
	}
	return fallback
}

func pickFloatPtr(raw map[string]json.RawMessage, keys ...string) *float64 {
	for _, k := range keys {
		rv, ok := raw[k]
		if !ok || string(rv) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(rv, &f); err == nil {
			return &f
		}
		// Some endpoints return numerics as strings.
		var s string
		if err := json.Unmarshal(rv, &s); err == nil {
			if parsed, perr := strconv.ParseFloat(s, 64); perr == nil {
				return &parsed
			}
		}
	}
	return nil
}

func pickBool(raw map[string]json.RawMessage, fallback bool, keys ...string) bool {
	for _, k := range keys {
		rv, ok := raw[k]
		if !ok || string(rv) == "null" {
			continue
		}
		var b bool
		if err := json.Unmarshal(rv, &b); err == nil {
			return b
		}
	}
	return fallback
}

func pickTimePtr(raw map[string]json.RawMessage, keys ...string) *time.Time {
	for _, k := range keys {
		rv, ok := raw[k]
		if !ok || string(rv) == "null" {
			continue
		}
		var t time.Time
		if err := json.Unmarshal(rv, &t); err == nil {
			return &t
		}
		var epoch int64
		if err := json.Unmarshal(rv, &epoch); err == nil && epoch > 0 {
			// Values above ~2001-09 in milliseconds are unambiguous.
			if epoch > 1e12 {
				t = time.UnixMilli(epoch)
			} else {
				t = time.Unix(epoch, 0)
			}
			return &t
		}
	}
	return nil
}
