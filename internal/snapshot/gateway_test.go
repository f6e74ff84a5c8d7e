// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
)

type gatewayFixture struct {
	store   *memStore
	gateway *Gateway
	paying  *models.StandaloneUser
	trial   *models.StandaloneUser
	crm     *models.IntegrationUser
}

func newGatewayFixture() *gatewayFixture {
	f := &gatewayFixture{
		store:  newMemStore(),
		paying: &models.StandaloneUser{UserID: "paying"},
		trial:  &models.StandaloneUser{UserID: "trial"},
		crm:    &models.IntegrationUser{InternalID: "i1", IntegrationUserID: "agent", IntegrationType: "onoffice"},
	}
	f.store.owners = []models.Owner{f.paying, f.trial, f.crm}
	gate := featureGate{"paying": {models.FeatureHTMLSnippet}}
	redactor := NewRedactor([]byte("test-redaction-key"), config.RedactionConfig{})
	f.gateway = NewGateway(f.store, gate, redactor).WithClock(func() time.Time { return now })
	return f
}

func (f *gatewayFixture) snapshot(id string, owner models.Owner, showAddress bool) *models.Snapshot {
	cfg := models.DefaultConfiguration()
	cfg.ShowAddress = showAddress
	return f.store.add(&models.Snapshot{
		ID:             id,
		Owner:          owner.Ref(),
		Token:          models.NewSingleToken("tok-" + id),
		Config:         cfg,
		SearchResult:   *walkResult(berlin),
		SubjectListing: &models.RealEstateListing{ID: "subject", Address: "Alexanderplatz 1", Coordinates: berlin},
		CreatedAt:      now.Add(-time.Hour),
	})
}

func TestFetchByIDOwnership(t *testing.T) {
	f := newGatewayFixture()
	f.snapshot("s1", f.paying, true)
	ctx := context.Background()

	s, err := f.gateway.FetchByID(ctx, f.paying, "s1", ModeOwner)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if s.Token.IsZero() {
		t.Error("owner view lost the token")
	}
	if f.store.touches["s1"] != 1 {
		t.Errorf("touches = %d, want 1", f.store.touches["s1"])
	}

	if _, err := f.gateway.FetchByID(ctx, f.trial, "s1", ModeOwner); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign fetch err = %v, want ErrNotFound", err)
	}
	if _, err := f.gateway.FetchByID(ctx, f.paying, "missing", ModeOwner); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing fetch err = %v, want ErrNotFound", err)
	}
	if f.store.touches["s1"] != 1 {
		t.Error("failed fetch recorded an access")
	}
}

func TestIntegrationOwnershipUsesPair(t *testing.T) {
	f := newGatewayFixture()
	f.snapshot("s1", f.crm, true)
	sameUserOtherPartner := &models.IntegrationUser{InternalID: "i2", IntegrationUserID: "agent", IntegrationType: "propstack"}

	if _, err := f.gateway.FetchByID(context.Background(), sameUserOtherPartner, "s1", ModeOwner); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound across integration types", err)
	}
	if _, err := f.gateway.FetchByID(context.Background(), f.crm, "s1", ModeEmbed); err != nil {
		t.Errorf("integration embed fetch: %v", err)
	}
}

func TestFeatureGate(t *testing.T) {
	f := newGatewayFixture()
	f.snapshot("t1", f.trial, true)
	ctx := context.Background()

	if _, err := f.gateway.FetchByID(ctx, f.trial, "t1", ModeOwner); err != nil {
		t.Errorf("owner view of a trial snapshot: %v", err)
	}
	if _, err := f.gateway.FetchByID(ctx, f.trial, "t1", ModeEmbed); !errors.Is(err, models.ErrFeatureUnavailable) {
		t.Errorf("embed err = %v, want ErrFeatureUnavailable", err)
	}
	if _, err := f.gateway.FetchByToken(ctx, "tok-t1"); !errors.Is(err, models.ErrFeatureUnavailable) {
		t.Errorf("token err = %v, want ErrFeatureUnavailable", err)
	}
}

func TestExpiredSnapshotIsTerminal(t *testing.T) {
	f := newGatewayFixture()
	s := f.snapshot("s1", f.paying, true)
	past := now.Add(-time.Minute)
	s.ExpiresAt = &past
	ctx := context.Background()

	for _, mode := range []Mode{ModeOwner, ModeEmbed} {
		if _, err := f.gateway.FetchByID(ctx, f.paying, "s1", mode); !errors.Is(err, models.ErrLocationExpired) {
			t.Errorf("%s err = %v, want ErrLocationExpired", mode, err)
		}
	}
	if _, err := f.gateway.FetchByToken(ctx, "tok-s1"); !errors.Is(err, models.ErrLocationExpired) {
		t.Errorf("token err = %v, want ErrLocationExpired", err)
	}
}

func TestIframeExpiredOnlyInEmbedContext(t *testing.T) {
	f := newGatewayFixture()
	s := f.snapshot("s1", f.crm, true)
	past := now.Add(-time.Minute)
	s.IframeExpiresAt = &past
	ctx := context.Background()

	if _, err := f.gateway.FetchByID(ctx, f.crm, "s1", ModeOwner); err != nil {
		t.Errorf("owner fetch: %v", err)
	}
	if _, err := f.gateway.FetchByID(ctx, f.crm, "s1", ModeEmbed); !errors.Is(err, models.ErrIframeExpired) {
		t.Errorf("embed err = %v, want ErrIframeExpired", err)
	}
	if _, err := f.gateway.FetchByToken(ctx, "tok-s1"); !errors.Is(err, models.ErrIframeExpired) {
		t.Errorf("token err = %v, want ErrIframeExpired", err)
	}
}

func TestRedaction(t *testing.T) {
	f := newGatewayFixture()
	f.snapshot("hidden", f.paying, false)
	f.snapshot("shown", f.paying, true)
	ctx := context.Background()

	first, err := f.gateway.FetchByToken(ctx, "tok-hidden")
	if err != nil {
		t.Fatalf("FetchByToken: %v", err)
	}
	res := first.SearchResult
	if res.PlacesLocation != nil || first.SubjectListing != nil {
		t.Error("redacted snapshot discloses the place or subject listing")
	}
	if d := models.DistanceMeters(res.Location, berlin); d < DefaultMinJitterMeters-1 || d > DefaultMaxJitterMeters+1 {
		t.Errorf("jitter distance = %.1fm, want within [50, 150]", d)
	}
	if res.CenterOfInterest.Name != "" || res.CenterOfInterest.Address != "" || !res.CenterOfInterest.Coordinates.Equal(res.Location) {
		t.Errorf("center of interest = %+v", res.CenterOfInterest)
	}
	walk := res.RoutingProfiles[models.MeansWalk]
	if len(walk.Locations) != 1 || walk.Locations[0].DistanceMeters != 110 {
		t.Errorf("POI data changed: %+v", walk.Locations)
	}
	if !first.Token.IsZero() {
		t.Error("public view discloses the token")
	}

	second, err := f.gateway.FetchByToken(ctx, "tok-hidden")
	if err != nil {
		t.Fatalf("second FetchByToken: %v", err)
	}
	if !second.SearchResult.Location.Equal(res.Location) {
		t.Error("jitter differs between fetches")
	}

	stored := f.store.find("hidden")
	if !stored.SearchResult.Location.Equal(berlin) || stored.SearchResult.PlacesLocation == nil {
		t.Error("redaction mutated the stored snapshot")
	}

	owner, err := f.gateway.FetchByID(ctx, f.paying, "hidden", ModeOwner)
	if err != nil || !owner.SearchResult.Location.Equal(berlin) {
		t.Errorf("owner view redacted: %v, %v", owner, err)
	}

	shown, err := f.gateway.FetchByToken(ctx, "tok-shown")
	if err != nil || !shown.SearchResult.Location.Equal(berlin) || shown.SearchResult.PlacesLocation == nil {
		t.Errorf("address-shown snapshot redacted: %v", err)
	}
}

func TestSplitTokenRedaction(t *testing.T) {
	f := newGatewayFixture()
	s := f.snapshot("s1", f.paying, false)
	s.Token = models.NewSplitToken("with-address", "without-address")
	ctx := context.Background()

	withAddress, err := f.gateway.FetchByToken(ctx, "with-address")
	if err != nil {
		t.Fatalf("address token: %v", err)
	}
	if !withAddress.SearchResult.Location.Equal(berlin) || withAddress.SearchResult.PlacesLocation == nil {
		t.Error("address token did not disclose the address")
	}

	s.Config.ShowAddress = true
	withoutAddress, err := f.gateway.FetchByToken(ctx, "without-address")
	if err != nil {
		t.Fatalf("unaddress token: %v", err)
	}
	if withoutAddress.SearchResult.Location.Equal(berlin) || withoutAddress.SearchResult.PlacesLocation != nil {
		t.Error("unaddress token disclosed the address")
	}

	if _, err := f.gateway.FetchByToken(ctx, "tok-s1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("stale single token err = %v, want ErrNotFound", err)
	}
	if f.store.find("s1").VisitAmount != 2 {
		t.Errorf("VisitAmount = %d, want 2", f.store.find("s1").VisitAmount)
	}
}

func TestJitterIsKeyed(t *testing.T) {
	a := NewRedactor([]byte("key-a"), config.RedactionConfig{})
	b := NewRedactor([]byte("key-b"), config.RedactionConfig{})
	bearingA, metersA := a.Jitter("snapshot-1")
	bearingB, metersB := b.Jitter("snapshot-1")
	if bearingA == bearingB && metersA == metersB {
		t.Error("different keys produced the same jitter")
	}

	narrow := NewRedactor([]byte("k"), config.RedactionConfig{MinJitterMeters: 200, MaxJitterMeters: 100})
	for _, id := range []string{"a", "b", "c", "d"} {
		if _, m := narrow.Jitter(id); m < 200 {
			t.Errorf("jitter %v below configured minimum", m)
		}
	}
}
