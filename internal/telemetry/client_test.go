package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "logistics-live-tracking/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/authenticate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	session := newTestSession(t, srv.URL, nil, time.Now())
	return NewClient(session), srv
}

func TestListAssets_NormalizesFieldCasing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organisation/42/asset" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// One asset per observed casing variant, plus a numeric ID and a
		// string-encoded latitude.
		w.Write([]byte(`[
			{"Id": 12, "Name": "Truck A", "Code": "ABC123", "LastLatitude": "-17.5", "LastLongitude": -28.9, "LastSpeed": 62.5, "IsEnabled": true, "InTrip": true},
			{"id": "7", "name": "Truck B", "code": "XYZ789", "lastLatitude": null, "lastLongitude": null, "isEnabled": false}
		]`))
	})

	assets, err := client.ListAssets(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}

	a := assets[0]
	if a.ID != "12" {
		t.Errorf("numeric id should normalize to string, got %q", a.ID)
	}
	if a.DisplayName != "Truck A" || a.Code != "ABC123" {
		t.Errorf("pascal-case fields not normalized: %+v", a)
	}
	if a.Latitude == nil || *a.Latitude != -17.5 {
		t.Errorf("string-encoded latitude not normalized: %v", a.Latitude)
	}
	if a.SpeedKmh != 62.5 || !a.InTrip || !a.IsEnabled {
		t.Errorf("scalar fields not normalized: %+v", a)
	}

	b := assets[1]
	if b.ID != "7" || b.DisplayName != "Truck B" {
		t.Errorf("camel-case fields not normalized: %+v", b)
	}
	if b.HasFix() {
		t.Error("null coordinates must decode as no fix")
	}
	if b.IsEnabled {
		t.Error("explicit isEnabled=false must be kept")
	}
}

func TestListAssetsWithFix_FiltersNoFixAndDisabled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": "1", "name": "With fix", "lastLatitude": -17.8, "lastLongitude": 31.0, "isEnabled": true},
			{"id": "2", "name": "No fix", "isEnabled": true},
			{"id": "3", "name": "Disabled", "lastLatitude": -17.8, "lastLongitude": 31.0, "isEnabled": false}
		]`))
	})

	assets, err := client.ListAssetsWithFix(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets))
	}
	if assets[0].ID != "1" {
		t.Errorf("wrong asset survived the filter: %+v", assets[0])
	}
}

func TestListGeofences_404MapsToEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	geofences, err := client.ListGeofences(context.Background(), "42")
	if err != nil {
		t.Fatalf("404 should map to an empty list, got error: %v", err)
	}
	if len(geofences) != 0 {
		t.Errorf("expected empty list, got %d", len(geofences))
	}
}

func TestListOrganisations_NormalizesShapes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organisation" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// Numeric id in one shape, organisationId plus description in the
		// other.
		w.Write([]byte(`[
			{"Id": 42, "Name": "Acme Haulage"},
			{"organisationId": "43", "description": "Beta Freight"}
		]`))
	})

	orgs, err := client.ListOrganisations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("expected 2 organisations, got %d", len(orgs))
	}
	if orgs[0].ID != "42" || orgs[0].Name != "Acme Haulage" {
		t.Errorf("pascal-case organisation not normalized: %+v", orgs[0])
	}
	if orgs[1].ID != "43" || orgs[1].Name != "Beta Freight" {
		t.Errorf("organisationId/description not normalized: %+v", orgs[1])
	}
}

func TestGetAssetDetail_NormalizesDetailShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/asset/101" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// The detail endpoint uses plain latitude/longitude and a
		// registration field instead of the list endpoint's keys.
		w.Write([]byte(`{"assetId": 101, "description": "Truck C", "registration": "DEF456", "latitude": -18.2, "longitude": "30.1", "speed": 54.0, "heading": 270}`))
	})

	asset, err := client.GetAssetDetail(context.Background(), "101")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.ID != "101" || asset.DisplayName != "Truck C" || asset.Code != "DEF456" {
		t.Errorf("detail identifiers not normalized: %+v", asset)
	}
	if !asset.HasFix() || *asset.Latitude != -18.2 || *asset.Longitude != 30.1 {
		t.Errorf("detail coordinates not normalized: %+v", asset)
	}
	if asset.SpeedKmh != 54.0 || asset.HeadingDegrees != 270 {
		t.Errorf("detail speed/heading not normalized: %+v", asset)
	}
	if !asset.IsEnabled {
		t.Error("missing isEnabled must default to true")
	}
}

func TestGetGeofenceDetail_NormalizesGeometry(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geofence/9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"Id": 9, "Name": "Harare Yard", "centerLatitude": -17.83, "centerLongitude": 31.05, "radiusMeters": 500, "points": [{"lat": -17.82, "lng": 31.04}, {"latitude": -17.84, "longitude": 31.06}]}`))
	})

	detail, err := client.GetGeofenceDetail(context.Background(), "9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.ID != "9" || detail.Name != "Harare Yard" {
		t.Errorf("geofence identifiers not normalized: %+v", detail)
	}
	if detail.Latitude == nil || *detail.Latitude != -17.83 || detail.RadiusMeters != 500 {
		t.Errorf("geofence center not normalized: %+v", detail)
	}
	if len(detail.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(detail.Points))
	}
	if detail.Points[0].Latitude != -17.82 || detail.Points[0].Longitude != 31.04 {
		t.Errorf("lat/lng point not normalized: %+v", detail.Points[0])
	}
	if detail.Points[1].Latitude != -17.84 || detail.Points[1].Longitude != 31.06 {
		t.Errorf("latitude/longitude point not normalized: %+v", detail.Points[1])
	}
}

func TestListAssets_ServerErrorSurfacesAsAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListAssets(context.Background(), "42")

	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "organisation/42/asset" {
		t.Errorf("unexpected endpoint: %s", apiErr.Endpoint)
	}
}
