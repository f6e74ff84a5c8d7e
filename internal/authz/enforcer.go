// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/areamap/internal/models"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// EnforcerConfig holds configuration for the plan feature enforcer.
type EnforcerConfig struct {
	// ModelPath is the path to the Casbin model file.
	// If empty, uses embedded model.
	ModelPath string

	// PolicyPath is the path to the Casbin policy file.
	// If empty, uses embedded policy.
	PolicyPath string
}

// Enforcer decides which plans grant which features. Plans inherit the
// features of the plans they are grouped under.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer creates a plan feature enforcer.
func NewEnforcer(cfg EnforcerConfig) (*Enforcer, error) {
	var m model.Model
	var err error

	if cfg.ModelPath != "" && fileExists(cfg.ModelPath) {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			return fmt.Errorf("malformed policy line %q", line)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		var err error
		switch parts[0] {
		case "p":
			_, err = enforcer.AddPolicy(parts[1], parts[2])
		case "g":
			_, err = enforcer.AddGroupingPolicy(parts[1], parts[2])
		default:
			err = fmt.Errorf("unknown policy type %q", parts[0])
		}
		if err != nil {
			return fmt.Errorf("failed to load policy line %q: %w", line, err)
		}
	}
	return nil
}

// HasFeature reports whether plan grants feature.
func (e *Enforcer) HasFeature(plan models.PlanType, feature models.Feature) (bool, error) {
	if plan == "" {
		return false, nil
	}
	allowed, err := e.enforcer.Enforce(string(plan), string(feature))
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}

// Features returns every feature plan grants, including inherited ones.
func (e *Enforcer) Features(plan models.PlanType) ([]models.Feature, error) {
	perms, err := e.enforcer.GetImplicitPermissionsForUser(string(plan))
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	features := make([]models.Feature, 0, len(perms))
	for _, p := range perms {
		if len(p) >= 2 {
			features = append(features, models.Feature(p[1]))
		}
	}
	return features, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
