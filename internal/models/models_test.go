// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestCoordinatesOffset(t *testing.T) {
	t.Parallel()

	origins := []Coordinates{
		{Lat: 53.5511, Lng: 9.9937},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 0, Lng: 0},
	}
	for _, origin := range origins {
		for _, bearing := range []float64{0, math.Pi / 3, math.Pi, 5 * math.Pi / 4} {
			moved := origin.Offset(bearing, 100)
			d := DistanceMeters(origin, moved)
			if math.Abs(d-100) > 0.5 {
				t.Errorf("Offset(%v, %v, 100m) moved %.3fm", origin, bearing, d)
			}
		}
	}
}

func TestCoordinatesOffset_StaysInRange(t *testing.T) {
	t.Parallel()

	origins := []Coordinates{
		{Lat: -17.8, Lng: 179.9999},
		{Lat: 12.5, Lng: -179.9999},
		{Lat: 89.9999, Lng: 0},
		{Lat: -89.9999, Lng: 120},
	}
	for _, origin := range origins {
		for i := 0; i < 200; i++ {
			bearing := 2 * math.Pi * float64(i) / 200
			moved := origin.Offset(bearing, 150)
			if moved.Lat < -90 || moved.Lat > 90 || moved.Lng < -180 || moved.Lng >= 180 {
				t.Fatalf("Offset(%v, %.3f, 150m) = %v, out of range", origin, bearing, moved)
			}
			if d := DistanceMeters(origin, moved); math.Abs(d-150) > 0.5 {
				t.Errorf("Offset(%v, %.3f, 150m) moved %.3fm", origin, bearing, d)
			}
		}
	}

	east := Coordinates{Lat: -17.8, Lng: 179.9999}.Offset(math.Pi/2, 100)
	if east.Lng > -179.99 {
		t.Errorf("eastward move across the antimeridian = %v, want lng near -180", east)
	}
}

func TestDistanceMeters(t *testing.T) {
	t.Parallel()

	hamburg := Coordinates{Lat: 53.5511, Lng: 9.9937}
	berlin := Coordinates{Lat: 52.5200, Lng: 13.4050}
	d := DistanceMeters(hamburg, berlin)
	if d < 250_000 || d > 260_000 {
		t.Errorf("Hamburg-Berlin = %.0fm, want ~255km", d)
	}
	if DistanceMeters(hamburg, hamburg) != 0 {
		t.Error("distance to self must be zero")
	}
}

func TestOwnerRefMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		a, b  OwnerRef
		match bool
	}{
		{"same user", OwnerRef{UserID: "u1"}, OwnerRef{UserID: "u1"}, true},
		{"other user", OwnerRef{UserID: "u1"}, OwnerRef{UserID: "u2"}, false},
		{"integration pair", OwnerRef{IntegrationUserID: "x", IntegrationType: "crm"},
			OwnerRef{IntegrationUserID: "x", IntegrationType: "crm"}, true},
		{"integration type differs", OwnerRef{IntegrationUserID: "x", IntegrationType: "crm"},
			OwnerRef{IntegrationUserID: "x", IntegrationType: "other"}, false},
		{"empty filter matches nothing", OwnerRef{}, OwnerRef{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.a.Matches(tt.b); got != tt.match {
				t.Errorf("Matches() = %v, want %v", got, tt.match)
			}
		})
	}
}

func TestOwnerVariants(t *testing.T) {
	t.Parallel()

	parent := &StandaloneUser{UserID: "parent"}
	child := &StandaloneUser{UserID: "child", ParentUser: parent}
	solo := &StandaloneUser{UserID: "solo"}
	integ := &IntegrationUser{InternalID: "i1", IntegrationUserID: "ext", IntegrationType: "crm"}

	if got := child.Billing(); got.HolderID != "parent" || !got.Subscription() {
		t.Errorf("child billing = %+v, want parent subscription", got)
	}
	if got := solo.Billing().HolderID; got != "solo" {
		t.Errorf("solo holder = %q", got)
	}
	if integ.Billing().Subscription() {
		t.Error("integration owners are not subscription governed")
	}
	if solo.Parent() != nil {
		t.Error("Parent() must be a nil interface when no parent is linked")
	}
	if integ.Parent() != nil {
		t.Error("integration Parent() must be a nil interface when no parent is linked")
	}
	if child.Parent().ID() != "parent" {
		t.Error("child parent mismatch")
	}
	if integ.Ref() != (OwnerRef{IntegrationUserID: "ext", IntegrationType: "crm"}) {
		t.Errorf("integration ref = %+v", integ.Ref())
	}
}

func TestSubscriptionAddressExpiration(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limited := &Subscription{Plan: PlanTrial, AddressLifetime: 14 * 24 * time.Hour}
	unlimited := &Subscription{Plan: PlanBusinessPlus}

	exp := limited.AddressExpiration(now)
	if exp == nil || !exp.Equal(now.Add(14*24*time.Hour)) {
		t.Errorf("limited expiration = %v", exp)
	}
	if unlimited.AddressExpiration(now) != nil {
		t.Error("unlimited plan must not expire addresses")
	}
	var none *Subscription
	if none.AddressExpiration(now) != nil || none.IsTrial() {
		t.Error("nil subscription must be unlimited and not trial")
	}
}

func TestContingentValidAt(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := ContingentEntry{Amount: 10, ValidFrom: from, ValidUntil: from.AddDate(0, 1, 0)}

	if !entry.ValidAt(from) {
		t.Error("ValidFrom is inclusive")
	}
	if entry.ValidAt(from.AddDate(0, 1, 0)) {
		t.Error("ValidUntil is exclusive")
	}
	if entry.ValidAt(from.Add(-time.Second)) {
		t.Error("entry must not be valid before ValidFrom")
	}
}

func TestAccessTokenForms(t *testing.T) {
	t.Parallel()

	single := NewSingleToken("abc")
	if single.IsSplit() {
		t.Error("single token reported as split")
	}
	if single.Match("abc") != TokenSingle || single.Match("nope") != TokenNone || single.Match("") != TokenNone {
		t.Error("single token match mismatch")
	}

	split := NewSplitToken("addr", "unaddr")
	if _, ok := split.Single(); ok {
		t.Error("split token must not expose a single token")
	}
	if split.Match("addr") != TokenAddress || split.Match("unaddr") != TokenUnaddress {
		t.Error("split token match mismatch")
	}
}

func TestAccessTokenJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewSplitToken("a", "u"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"token"`) {
		t.Errorf("split token leaked single field: %s", data)
	}

	var decoded AccessToken
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if a, u, ok := decoded.Split(); !ok || a != "a" || u != "u" {
		t.Errorf("decoded = %v %v %v", a, u, ok)
	}

	bad := []string{
		`{"token":"t","addressToken":"a","unaddressToken":"u"}`,
		`{"addressToken":"a"}`,
	}
	for _, in := range bad {
		var tok AccessToken
		if err := json.Unmarshal([]byte(in), &tok); !errors.Is(err, ErrAmbiguousToken) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrAmbiguousToken", in, err)
		}
	}
}

func TestConfigurationClone(t *testing.T) {
	t.Parallel()

	orig := DefaultConfiguration()
	orig.EntityVisibility = []EntityVisibility{{ID: "l1", EntityType: EntityRealEstateListing}}
	cp := orig.Clone()
	cp.DefaultActiveMeans[0] = MeansCar
	cp.EntityVisibility[0].Excluded = true

	if orig.DefaultActiveMeans[0] != MeansWalk || orig.EntityVisibility[0].Excluded {
		t.Error("Clone shares slices with the original")
	}
	if !orig.References("l1") || orig.References("l2") {
		t.Error("References mismatch")
	}
}

func TestReasonError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("search: %w", NewReasonError(ErrQuotaExceeded, "Monthly limit reached"))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Error("errors.Is must see the kind")
	}
	if ReasonOf(err) != "Monthly limit reached" {
		t.Errorf("ReasonOf = %q", ReasonOf(err))
	}

	cause := errors.New("dial tcp: timeout")
	perr := ProviderFailure("poi provider", cause)
	if !errors.Is(perr, ErrProvider) || !errors.Is(perr, cause) {
		t.Error("provider failure must expose kind and cause")
	}
	if ReasonOf(errors.New("plain")) != "" {
		t.Error("plain errors carry no reason")
	}
}

func TestSearchResultClone(t *testing.T) {
	t.Parallel()

	orig := &SearchResult{
		PlacesLocation: &Place{PlaceID: "p"},
		RoutingProfiles: map[MeansOfTransportation]RoutingProfile{
			MeansWalk: {Locations: []PointOfInterest{{ID: "poi"}}},
		},
	}
	cp := orig.Clone()
	cp.PlacesLocation.PlaceID = "changed"
	cp.RoutingProfiles[MeansWalk].Locations[0].ID = "changed"

	if orig.PlacesLocation.PlaceID != "p" || orig.RoutingProfiles[MeansWalk].Locations[0].ID != "poi" {
		t.Error("Clone shares state with the original")
	}
}
