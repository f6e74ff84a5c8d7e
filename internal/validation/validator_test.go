// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/areamap/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

func validQuery() models.SearchQuery {
	return models.SearchQuery{
		Coordinates: models.Coordinates{Lat: 52.52, Lng: 13.405},
		Transportation: []models.TransportationParam{
			{Type: models.MeansWalk, Amount: 10, Unit: models.UnitMinutes},
			{Type: models.MeansCar, Amount: 5, Unit: models.UnitKilometers},
		},
		Categories: []string{"supermarket", "kindergarten"},
	}
}

func TestValidateStruct_SearchQuery(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(q *models.SearchQuery)
		wantField string
		wantTag   string
	}{
		{name: "valid", mutate: func(*models.SearchQuery) {}},
		{name: "no profiles is valid", mutate: func(q *models.SearchQuery) { q.Transportation = nil }},
		{
			name:      "latitude out of range",
			mutate:    func(q *models.SearchQuery) { q.Coordinates.Lat = 91 },
			wantField: "coordinates.lat",
			wantTag:   "latitude",
		},
		{
			name:      "longitude out of range",
			mutate:    func(q *models.SearchQuery) { q.Coordinates.Lng = -181 },
			wantField: "coordinates.lng",
			wantTag:   "longitude",
		},
		{
			name:      "unknown means",
			mutate:    func(q *models.SearchQuery) { q.Transportation[0].Type = "TRAIN" },
			wantField: "meansOfTransportation[0].type",
			wantTag:   "means",
		},
		{
			name:      "unknown unit",
			mutate:    func(q *models.SearchQuery) { q.Transportation[1].Unit = "MILES" },
			wantField: "meansOfTransportation[1].unit",
			wantTag:   "distunit",
		},
		{
			name:      "zero amount",
			mutate:    func(q *models.SearchQuery) { q.Transportation[0].Amount = 0 },
			wantField: "meansOfTransportation[0].amount",
			wantTag:   "gt",
		},
		{
			name:      "empty category",
			mutate:    func(q *models.SearchQuery) { q.Categories = []string{""} },
			wantField: "preferredAmenities[0]",
			wantTag:   "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuery()
			tt.mutate(&q)

			verr := ValidateStruct(&q)
			if tt.wantTag == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_Configuration(t *testing.T) {
	cfg := models.DefaultConfiguration()
	cfg.PrimaryColor = "#00aaFF"
	if verr := ValidateStruct(&cfg); verr != nil {
		t.Fatalf("valid configuration rejected: %v", verr)
	}

	cfg.PrimaryColor = "blue"
	verr := ValidateStruct(&cfg)
	if verr == nil {
		t.Fatal("invalid color accepted")
	}
	if got := verr.Errors()[0].Error(); got != "primaryColor must be a color of the form #rrggbb" {
		t.Errorf("message = %q", got)
	}

	cfg.PrimaryColor = ""
	cfg.DefaultActiveMeans = []models.MeansOfTransportation{"PLANE"}
	if verr := ValidateStruct(&cfg); verr == nil {
		t.Error("unknown default means accepted")
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error carries field details", func(t *testing.T) {
		q := validQuery()
		q.Coordinates.Lat = 100

		apiErr := ValidateStruct(&q).ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %q", apiErr.Code)
		}
		if apiErr.Details["field"] != "coordinates.lat" {
			t.Errorf("Details = %v", apiErr.Details)
		}
	})

	t.Run("multiple errors are joined", func(t *testing.T) {
		q := validQuery()
		q.Coordinates.Lat = 100
		q.Transportation[0].Type = "BOAT"

		verr := ValidateStruct(&q)
		apiErr := verr.ToAPIError()
		if !strings.Contains(apiErr.Message, "; ") {
			t.Errorf("Message = %q, want joined messages", apiErr.Message)
		}
		fields, ok := apiErr.Details["fields"].([]map[string]any)
		if !ok || len(fields) != 2 {
			t.Errorf("Details[fields] = %v", apiErr.Details["fields"])
		}
	})

	t.Run("empty error", func(t *testing.T) {
		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})
}

func TestTranslateMinMax(t *testing.T) {
	type sample struct {
		Title string   `json:"title" validate:"max=3"`
		Tags  []string `json:"tags" validate:"max=1"`
	}
	verr := ValidateStruct(&sample{Title: "toolong", Tags: []string{"a", "b"}})
	if verr == nil {
		t.Fatal("expected errors")
	}
	got := verr.Error()
	for _, want := range []string{"title must be at most 3 characters", "tags must be at most 1 items"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}
