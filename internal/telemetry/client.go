package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "logistics-live-tracking/pkg/errors"
)

// Client provides typed, normalized access to the provider endpoints
// through a Session. Errors other than the session's 401 handling and the
// geofence 404 special case are surfaced as *apperrors.APIError and left
// for the poll scheduler to retry on its next cycle.
type Client struct {
	session *Session
}

func NewClient(session *Session) *Client {
	return &Client{session: session}
}

func (c *Client) ListOrganisations(ctx context.Context) ([]Organisation, error) {
	var orgs []Organisation
	if err := c.session.getJSON(ctx, "organisation", &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (c *Client) ListAssets(ctx context.Context, organisationID string) ([]Asset, error) {
	var assets []Asset
	path := fmt.Sprintf("organisation/%s/asset", organisationID)
	if err := c.session.getJSON(ctx, path, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// ListAssetsWithFix returns enabled assets that carry a position. Assets
// without a fix never participate in progress calculation.
func (c *Client) ListAssetsWithFix(ctx context.Context, organisationID string) ([]Asset, error) {
	assets, err := c.ListAssets(ctx, organisationID)
	if err != nil {
		return nil, err
	}

	out := make([]Asset, 0, len(assets))
	for _, a := range assets {
		if a.HasFix() && a.IsEnabled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (c *Client) GetAssetDetail(ctx context.Context, assetID string) (*Asset, error) {
	var asset Asset
	if err := c.session.getJSON(ctx, "asset/"+assetID, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// ListGeofences returns the organisation's geofences. A 404 means the
// feature is unavailable for this organisation and maps to an empty list.
func (c *Client) ListGeofences(ctx context.Context, organisationID string) ([]Geofence, error) {
	var geofences []Geofence
	path := fmt.Sprintf("organisation/%s/geofence", organisationID)
	if err := c.session.getJSON(ctx, path, &geofences); err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return []Geofence{}, nil
		}
		return nil, err
	}
	return geofences, nil
}

func (c *Client) GetGeofenceDetail(ctx context.Context, geofenceID string) (*GeofenceDetail, error) {
	var detail GeofenceDetail
	if err := c.session.getJSON(ctx, "geofence/"+geofenceID, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}
