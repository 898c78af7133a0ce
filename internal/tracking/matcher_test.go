package tracking

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"logistics-live-tracking/internal/domain/load"
	"logistics-live-tracking/internal/telemetry"
	apperrors "logistics-live-tracking/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestResolveAsset(t *testing.T) {
	assets := []telemetry.Asset{
		{ID: "101", Code: "ABC123", DisplayName: "Truck A"},
		{ID: "102", Code: "XYZ789", DisplayName: "Truck B"},
	}

	cases := []struct {
		name       string
		identifier *string
		wantID     string
	}{
		{"match by unit id", strPtr("102"), "102"},
		{"match by registration code", strPtr("ABC123"), "101"},
		{"case sensitive, no match", strPtr("abc123"), ""},
		{"unknown identifier", strPtr("DEF456"), ""},
		{"nil identifier", nil, ""},
		{"empty identifier", strPtr(""), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := &load.Load{ID: uuid.New(), VehicleIdentifier: tc.identifier}

			got, err := ResolveAsset(l, assets)
			if tc.wantID == "" {
				if !errors.Is(err, apperrors.ErrNoMatch) {
					t.Errorf("expected ErrNoMatch, got asset %+v err %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || got.ID != tc.wantID {
				t.Errorf("expected asset %s, got %+v", tc.wantID, got)
			}
		})
	}
}

func TestResolveAsset_FirstMatchWins(t *testing.T) {
	assets := []telemetry.Asset{
		{ID: "1", Code: "SHARED"},
		{ID: "2", Code: "SHARED"},
	}
	l := &load.Load{ID: uuid.New(), VehicleIdentifier: strPtr("SHARED")}

	got, err := ResolveAsset(l, assets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "1" {
		t.Errorf("expected first asset to win, got %+v", got)
	}
}
