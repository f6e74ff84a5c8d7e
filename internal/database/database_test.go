// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
)

// testDBSemaphore serializes DuckDB usage across tests; concurrent CGO calls
// from many in-memory databases hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

var testDBMutex sync.Mutex

// setupTestDB creates an in-memory database. The semaphore is held until the
// test completes.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Errorf("Failed to close test database: %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s")
		return nil
	}
}

var (
	baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	berlin   = models.Coordinates{Lat: 52.520008, Lng: 13.404954}
	hamburg  = models.Coordinates{Lat: 53.551086, Lng: 9.993682}
)

func TestOwnerClause(t *testing.T) {
	tests := []struct {
		name     string
		ref      models.OwnerRef
		wantSQL  string
		wantArgs int
	}{
		{"empty ref selects nothing", models.OwnerRef{}, "FALSE", 0},
		{"standalone", models.OwnerRef{UserID: "u1"}, "user_id = ?", 1},
		{"integration", models.OwnerRef{IntegrationUserID: "x", IntegrationType: "crm"},
			"integration_user_id = ? AND integration_type = ?", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := ownerClause(tt.ref)
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestUsersAndCounters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	parent := &models.StandaloneUser{UserID: "parent", Email: "p@example.com", TemplateID: "tpl-1"}
	child := &models.StandaloneUser{
		UserID:     "child",
		Email:      "c@example.com",
		ParentUser: parent,
		Branding:   models.Appearance{PrimaryColor: "#ff0000"},
		Countries:  []string{"de", "at"},
	}
	for _, u := range []*models.StandaloneUser{parent, child} {
		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s): %v", u.UserID, err)
		}
	}

	got, err := db.GetUser(ctx, "child")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.ParentUser == nil || got.ParentUser.UserID != "parent" {
		t.Fatalf("parent not loaded: %+v", got.ParentUser)
	}
	if got.ParentUser.TemplateID != "tpl-1" {
		t.Errorf("parent template = %q", got.ParentUser.TemplateID)
	}
	if got.Branding.PrimaryColor != "#ff0000" {
		t.Errorf("color = %q", got.Branding.PrimaryColor)
	}
	if len(got.Countries) != 2 || got.Countries[0] != "de" {
		t.Errorf("countries = %v", got.Countries)
	}

	missing, err := db.GetUser(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("GetUser(missing) = %v, %v; want nil, nil", missing, err)
	}

	for want := 1; want <= 3; want++ {
		n, err := db.IncrementRequestsExecuted(ctx, "parent", baseTime.Add(time.Duration(want)*time.Hour))
		if err != nil {
			t.Fatalf("IncrementRequestsExecuted: %v", err)
		}
		if n != want {
			t.Errorf("counter = %d, want %d", n, want)
		}
	}
	if n, _ := db.RequestsExecuted(ctx, "child"); n != 0 {
		t.Errorf("child counter = %d, want 0", n)
	}
	if _, err := db.IncrementRequestsExecuted(ctx, "nobody", baseTime); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("increment unknown user err = %v, want ErrNotFound", err)
	}

	charges, err := db.ExecutedRequests(ctx, "parent", baseTime.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ExecutedRequests: %v", err)
	}
	if len(charges) != 2 || !charges[0].Equal(baseTime.Add(2*time.Hour)) || !charges[1].Equal(baseTime.Add(3*time.Hour)) {
		t.Errorf("charges since +2h = %v, want +2h and +3h", charges)
	}
	if none, _ := db.ExecutedRequests(ctx, "nobody", baseTime); len(none) != 0 {
		t.Errorf("unknown holder has charges: %v", none)
	}

	if err := db.SetUserTemplate(ctx, "child", "tpl-2"); err != nil {
		t.Fatalf("SetUserTemplate: %v", err)
	}
	got, _ = db.GetUser(ctx, "child")
	if got.TemplateID != "tpl-2" {
		t.Errorf("template = %q, want tpl-2", got.TemplateID)
	}
}

func TestIntegrationUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	parent := &models.IntegrationUser{InternalID: "ip", IntegrationUserID: "agency", IntegrationType: "onoffice"}
	child := &models.IntegrationUser{InternalID: "ic", IntegrationUserID: "agent", IntegrationType: "onoffice", ParentUser: parent}
	same := &models.IntegrationUser{InternalID: "other", IntegrationUserID: "agent", IntegrationType: "propstack"}
	for _, u := range []*models.IntegrationUser{parent, child, same} {
		if err := db.CreateIntegrationUser(ctx, u); err != nil {
			t.Fatalf("CreateIntegrationUser(%s): %v", u.InternalID, err)
		}
	}

	got, err := db.GetIntegrationUser(ctx, "agent", "onoffice")
	if err != nil {
		t.Fatalf("GetIntegrationUser: %v", err)
	}
	if got.InternalID != "ic" {
		t.Errorf("InternalID = %q, want ic", got.InternalID)
	}
	if got.ParentUser == nil || got.ParentUser.InternalID != "ip" {
		t.Errorf("parent not loaded: %+v", got.ParentUser)
	}

	other, err := db.GetIntegrationUser(ctx, "agent", "propstack")
	if err != nil {
		t.Fatalf("GetIntegrationUser: %v", err)
	}
	if other.InternalID != "other" || other.ParentUser != nil {
		t.Errorf("integration type not respected: %+v", other)
	}

	owner, err := db.GetOwner(ctx, child.Ref())
	if err != nil || owner == nil || owner.ID() != "ic" {
		t.Errorf("GetOwner = %v, %v", owner, err)
	}
	owner, err = db.GetOwner(ctx, models.OwnerRef{IntegrationUserID: "ghost", IntegrationType: "onoffice"})
	if err != nil || owner != nil {
		t.Errorf("GetOwner(missing) = %v, %v; want nil, nil", owner, err)
	}
}

func TestSubscriptionsAndContingents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := &models.Subscription{OwnerID: "u1", Plan: models.PlanTrial,
		StartsAt: baseTime.AddDate(0, -2, 0), EndsAt: baseTime.AddDate(0, 1, 0)}
	current := &models.Subscription{OwnerID: "u1", Plan: models.PlanPayPerUse, AddressLifetime: 30 * 24 * time.Hour,
		StartsAt: baseTime.AddDate(0, -1, 0), EndsAt: baseTime.AddDate(0, 1, 0)}
	for _, s := range []*models.Subscription{old, current} {
		if err := db.CreateSubscription(ctx, s); err != nil {
			t.Fatalf("CreateSubscription: %v", err)
		}
	}

	sub, err := db.ActiveSubscription(ctx, "u1", baseTime)
	if err != nil {
		t.Fatalf("ActiveSubscription: %v", err)
	}
	if sub == nil || sub.Plan != models.PlanPayPerUse {
		t.Fatalf("active subscription = %+v, want pay-per-use", sub)
	}
	if sub.AddressLifetime != 30*24*time.Hour {
		t.Errorf("lifetime = %v", sub.AddressLifetime)
	}
	if none, err := db.ActiveSubscription(ctx, "u1", baseTime.AddDate(1, 0, 0)); err != nil || none != nil {
		t.Errorf("expired subscription returned: %v, %v", none, err)
	}

	entries := []*models.ContingentEntry{
		{OwnerID: "u1", Kind: models.ContingentMonthly, Amount: 10,
			ValidFrom: baseTime.AddDate(0, 0, -10), ValidUntil: baseTime.AddDate(0, 0, 20)},
		{OwnerID: "u1", Kind: models.ContingentIncrease, Amount: 5,
			ValidFrom: baseTime.AddDate(0, 0, -1), ValidUntil: baseTime.AddDate(0, 0, 1)},
		{OwnerID: "u1", Kind: models.ContingentMonthly, Amount: 99,
			ValidFrom: baseTime.AddDate(0, -2, 0), ValidUntil: baseTime.AddDate(0, -1, 0)},
		{OwnerID: "u1", Kind: models.ContingentMonthly, Amount: 7,
			ValidFrom: baseTime.AddDate(0, 0, 20), ValidUntil: baseTime.AddDate(0, 1, 20)},
	}
	for _, c := range entries {
		if err := db.AddContingent(ctx, c); err != nil {
			t.Fatalf("AddContingent: %v", err)
		}
	}
	started, err := db.Contingents(ctx, "u1", baseTime)
	if err != nil {
		t.Fatalf("Contingents: %v", err)
	}
	if len(started) != 3 {
		t.Fatalf("started contingents = %d, want 3 (lapsed included, future excluded)", len(started))
	}
	if started[0].Amount != 99 {
		t.Errorf("first entry = %+v, want the oldest first", started[0])
	}
	valid := 0
	for _, c := range started {
		if c.ValidAt(baseTime) {
			valid += c.Amount
		}
	}
	if valid != 15 {
		t.Errorf("valid amount = %d, want 15", valid)
	}
}

func TestLocationSearches(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := models.OwnerRef{UserID: "u1"}
	expires := baseTime.Add(time.Hour)
	records := []*models.LocationSearchRecord{
		{Owner: owner, Coordinates: berlin, Means: []models.MeansOfTransportation{models.MeansWalk},
			CreatedAt: baseTime, ExpiresAt: &expires, IsTrial: true},
		{Owner: owner, Coordinates: berlin, Means: []models.MeansOfTransportation{models.MeansCar},
			CreatedAt: baseTime.Add(time.Minute), ExpiresAt: &expires, IsTrial: true},
		{Owner: owner, Coordinates: hamburg, SearchTitle: "Hafen", CreatedAt: baseTime.Add(2 * time.Minute)},
		{Owner: models.OwnerRef{UserID: "u2"}, Coordinates: berlin, CreatedAt: baseTime.Add(3 * time.Minute)},
	}
	for _, r := range records {
		if err := db.CreateLocationSearch(ctx, r); err != nil {
			t.Fatalf("CreateLocationSearch: %v", err)
		}
	}

	latest, err := db.LatestLocationSearch(ctx, owner, berlin)
	if err != nil {
		t.Fatalf("LatestLocationSearch: %v", err)
	}
	if latest == nil || len(latest.Means) != 1 || latest.Means[0] != models.MeansCar {
		t.Fatalf("latest = %+v, want the CAR record", latest)
	}
	if latest.ExpiresAt == nil || !latest.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", latest.ExpiresAt, expires)
	}

	near := models.Coordinates{Lat: berlin.Lat + 0.000001, Lng: berlin.Lng}
	if r, err := db.LatestLocationSearch(ctx, owner, near); err != nil || r != nil {
		t.Errorf("nearby coordinates matched: %+v, %v", r, err)
	}
	if r, _ := db.LatestLocationSearch(ctx, models.OwnerRef{}, berlin); r != nil {
		t.Errorf("empty owner matched a record")
	}

	history, err := db.ListLocationSearches(ctx, owner, 10)
	if err != nil {
		t.Fatalf("ListLocationSearches: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2 distinct locations", len(history))
	}
	if history[0].SearchTitle != "Hafen" {
		t.Errorf("history not newest first: %+v", history[0])
	}

	until := baseTime.AddDate(0, 6, 0)
	if err := db.ExtendLocationSearchExpiration(ctx, owner, berlin, until); err != nil {
		t.Fatalf("ExtendLocationSearchExpiration: %v", err)
	}
	latest, _ = db.LatestLocationSearch(ctx, owner, berlin)
	if !latest.ExpiresAt.Equal(until) {
		t.Errorf("ExpiresAt = %v, want %v", latest.ExpiresAt, until)
	}
	if err := db.ExtendLocationSearchExpiration(ctx, owner, near, until); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("extend unknown location err = %v, want ErrNotFound", err)
	}

	deleted, err := db.DeleteTrialLocationSearches(ctx, owner)
	if err != nil {
		t.Fatalf("DeleteTrialLocationSearches: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if r, _ := db.LatestLocationSearch(ctx, models.OwnerRef{UserID: "u2"}, berlin); r == nil {
		t.Error("trial purge removed another owner's record")
	}
}

func newTestSnapshot(owner models.OwnerRef, token models.AccessToken, created time.Time) *models.Snapshot {
	return &models.Snapshot{
		Owner:  owner,
		Token:  token,
		Config: models.DefaultConfiguration(),
		SearchResult: models.SearchResult{
			Location: berlin,
			CenterOfInterest: models.PointOfInterest{
				ID: "center", Name: "Alexanderplatz 1", Category: models.CenterOfInterestCategory, Coordinates: berlin,
			},
			RoutingProfiles: map[models.MeansOfTransportation]models.RoutingProfile{
				models.MeansWalk: {Means: models.MeansWalk, DistanceMeters: 1000},
			},
		},
		CreatedAt: created,
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := models.OwnerRef{UserID: "u1"}
	first := newTestSnapshot(owner, models.NewSingleToken("tok-1"), baseTime)
	first.SubjectListing = &models.RealEstateListing{ID: "l1", Name: "Flat", Coordinates: berlin}
	first.Listings = []models.RealEstateListing{{ID: "l2", Name: "House", Coordinates: hamburg}}
	second := newTestSnapshot(owner, models.NewSingleToken("tok-2"), baseTime.Add(time.Minute))
	foreign := newTestSnapshot(models.OwnerRef{UserID: "u2"}, models.NewSingleToken("tok-3"), baseTime.Add(2*time.Minute))

	for _, s := range []*models.Snapshot{first, second, foreign} {
		if err := db.CreateSnapshot(ctx, s); err != nil {
			t.Fatalf("CreateSnapshot: %v", err)
		}
	}

	got, err := db.GetSnapshot(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if tok, ok := got.Token.Single(); !ok || tok != "tok-1" {
		t.Errorf("token = %q, %v", tok, ok)
	}
	if got.SubjectListing == nil || got.SubjectListing.ID != "l1" {
		t.Errorf("subject listing = %+v", got.SubjectListing)
	}
	if len(got.Listings) != 1 || got.SearchResult.CenterOfInterest.Name != "Alexanderplatz 1" {
		t.Errorf("payload not round-tripped: %+v", got)
	}
	if !got.Config.ShowAddress || len(got.Config.DefaultActiveMeans) != 3 {
		t.Errorf("config = %+v", got.Config)
	}

	latest, err := db.LatestSnapshot(ctx, owner)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("latest = %s, want %s", latest.ID, second.ID)
	}

	first.Description = "updated"
	first.Config.ShowAddress = false
	if err := db.UpdateSnapshot(ctx, first); err != nil {
		t.Fatalf("UpdateSnapshot: %v", err)
	}
	latest, _ = db.LatestSnapshot(ctx, owner)
	if latest.ID != first.ID || latest.Description != "updated" || latest.Config.ShowAddress {
		t.Errorf("update not reflected in latest: %+v", latest)
	}

	page, total, err := db.ListSnapshots(ctx, owner, 1, 0)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if total != 2 || len(page) != 1 || page[0].ID != second.ID {
		t.Errorf("page = %d items (total %d), first %s", len(page), total, page[0].ID)
	}

	for want := 1; want <= 2; want++ {
		visits, err := db.TouchSnapshot(ctx, first.ID, baseTime.Add(time.Hour))
		if err != nil {
			t.Fatalf("TouchSnapshot: %v", err)
		}
		if visits != want {
			t.Errorf("visits = %d, want %d", visits, want)
		}
	}
	got, _ = db.GetSnapshot(ctx, first.ID)
	if got.LastAccess == nil || !got.LastAccess.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("LastAccess = %v", got.LastAccess)
	}

	if err := db.DeleteSnapshot(ctx, owner, foreign.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("deleting a foreign snapshot err = %v, want ErrNotFound", err)
	}
	if err := db.DeleteSnapshot(ctx, owner, second.ID); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	if s, _ := db.GetSnapshot(ctx, second.ID); s != nil {
		t.Error("snapshot still present after delete")
	}
}

func TestSnapshotTokens(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := newTestSnapshot(models.OwnerRef{UserID: "u1"}, models.NewSingleToken("single"), baseTime)
	if err := db.CreateSnapshot(ctx, s); err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if got, _ := db.GetSnapshotByToken(ctx, "single"); got == nil || got.ID != s.ID {
		t.Fatalf("lookup by single token failed")
	}

	if err := db.UpdateSnapshotToken(ctx, s.ID, models.NewSplitToken("addr", "unaddr")); err != nil {
		t.Fatalf("UpdateSnapshotToken: %v", err)
	}
	if got, _ := db.GetSnapshotByToken(ctx, "single"); got != nil {
		t.Error("old single token still resolves")
	}
	for _, tok := range []string{"addr", "unaddr"} {
		got, err := db.GetSnapshotByToken(ctx, tok)
		if err != nil || got == nil {
			t.Fatalf("lookup by %s failed: %v", tok, err)
		}
		if !got.Token.IsSplit() {
			t.Errorf("token not split after reload")
		}
	}
	if got, _ := db.GetSnapshotByToken(ctx, ""); got != nil {
		t.Error("empty token matched a snapshot")
	}
}

func TestSnapshotRequiresToken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := models.OwnerRef{UserID: "u1"}

	for name, token := range map[string]models.AccessToken{
		"none":          {},
		"half of split": models.NewSplitToken("addr", ""),
	} {
		if err := db.CreateSnapshot(ctx, newTestSnapshot(owner, token, baseTime)); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("CreateSnapshot(%s) err = %v, want ErrInvalidInput", name, err)
		}
	}
	if _, total, _ := db.ListSnapshots(ctx, owner, 10, 0); total != 0 {
		t.Errorf("%d snapshots stored without a token", total)
	}

	s := newTestSnapshot(owner, models.NewSingleToken("single"), baseTime)
	if err := db.CreateSnapshot(ctx, s); err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if err := db.UpdateSnapshotToken(ctx, s.ID, models.AccessToken{}); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("clearing the token err = %v, want ErrInvalidInput", err)
	}

	_, err := db.conn.ExecContext(ctx,
		`UPDATE snapshots SET token = NULL, address_token = 'a', unaddress_token = NULL WHERE id = ?`, s.ID)
	if err == nil {
		t.Error("schema accepted a snapshot without a usable token")
	}
	if got, _ := db.GetSnapshotByToken(ctx, "single"); got == nil {
		t.Error("rejected update changed the stored token")
	}
}

func TestIntegrationSnapshots(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := models.OwnerRef{IntegrationUserID: "agent", IntegrationType: "onoffice"}
	s := newTestSnapshot(owner, models.NewSingleToken("t1"), baseTime)
	s.Integration = &models.SnapshotIntegration{IntegrationID: "estate-7", IntegrationUserID: "agent", IntegrationType: "onoffice"}
	if err := db.CreateSnapshot(ctx, s); err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}

	window := baseTime.AddDate(0, 1, 0)
	if err := db.SetIframeExpiration(ctx, s.ID, &window); err != nil {
		t.Fatalf("SetIframeExpiration: %v", err)
	}

	prior, err := db.LatestSnapshotForIntegration(ctx, owner, "estate-7")
	if err != nil {
		t.Fatalf("LatestSnapshotForIntegration: %v", err)
	}
	if prior == nil || prior.IframeExpiresAt == nil || !prior.IframeExpiresAt.Equal(window) {
		t.Fatalf("prior = %+v, want iframe window %v", prior, window)
	}
	if prior.Integration == nil || prior.Integration.IntegrationID != "estate-7" {
		t.Errorf("integration = %+v", prior.Integration)
	}
	if other, _ := db.LatestSnapshotForIntegration(ctx, owner, "estate-8"); other != nil {
		t.Error("different external reference matched")
	}
}

func TestSnapshotExpirationAndTrialPurge(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := models.OwnerRef{UserID: "u1"}
	trial := newTestSnapshot(owner, models.NewSingleToken("a"), baseTime)
	trial.IsTrial = true
	kept := newTestSnapshot(owner, models.NewSingleToken("b"), baseTime)
	for _, s := range []*models.Snapshot{trial, kept} {
		if err := db.CreateSnapshot(ctx, s); err != nil {
			t.Fatalf("CreateSnapshot: %v", err)
		}
	}

	until := baseTime.AddDate(1, 0, 0)
	n, err := db.ExtendSnapshotExpiration(ctx, owner, berlin, until)
	if err != nil {
		t.Fatalf("ExtendSnapshotExpiration: %v", err)
	}
	if n != 2 {
		t.Errorf("extended = %d, want 2", n)
	}

	deleted, err := db.DeleteTrialSnapshots(ctx, owner)
	if err != nil {
		t.Fatalf("DeleteTrialSnapshots: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	got, _ := db.GetSnapshot(ctx, kept.ID)
	if got == nil || got.ExpiresAt == nil || !got.ExpiresAt.Equal(until) {
		t.Errorf("kept snapshot = %+v", got)
	}
}

func TestListings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := models.OwnerRef{UserID: "u1"}
	listings := []*models.RealEstateListing{
		{Owner: owner, Name: "Flat", Address: "Alexanderplatz 1", Coordinates: berlin,
			Price: 350000, ShowInSnapshot: true, CreatedAt: baseTime},
		{Owner: owner, Name: "Hidden", Address: "Hafen 2", Coordinates: hamburg,
			ShowInSnapshot: false, CreatedAt: baseTime.Add(time.Minute)},
		{Owner: models.OwnerRef{UserID: "u2"}, Name: "Other", Address: "x", Coordinates: berlin,
			ShowInSnapshot: true, CreatedAt: baseTime},
	}
	for _, l := range listings {
		if err := db.CreateListing(ctx, l); err != nil {
			t.Fatalf("CreateListing: %v", err)
		}
	}

	got, err := db.ListListings(ctx, owner)
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listings = %d, want 2", len(got))
	}
	if got[0].Name != "Flat" || got[0].Price != 350000 || !got[0].ShowInSnapshot {
		t.Errorf("first listing = %+v", got[0])
	}
	if got[1].ShowInSnapshot {
		t.Error("ShowInSnapshot not persisted")
	}
	if !got[0].Owner.Matches(owner) {
		t.Errorf("owner = %+v", got[0].Owner)
	}
}
