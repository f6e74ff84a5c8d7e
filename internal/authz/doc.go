// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package authz gates plan features using Casbin.
//
// Subjects are subscription plans, objects are features. Plans inherit the
// features of the plans they are grouped under:
//
//	[request_definition]
//	r = sub, obj
//
//	[policy_definition]
//	p = sub, obj
//
//	[role_definition]
//	g = _, _
//
//	[matchers]
//	m = g(r.sub, p.sub) && r.obj == p.obj
//
// The default policy:
//
//	p, PAY_PER_USE, html_snippet
//	p, BUSINESS_PLUS, custom_templates
//	p, BUSINESS_PLUS, split_tokens
//	g, BUSINESS_PLUS, PAY_PER_USE
//	g, ENTERPRISE, BUSINESS_PLUS
//
// TRIAL grants nothing. Both files are embedded; EnforcerConfig.ModelPath
// and EnforcerConfig.PolicyPath override them from disk.
//
// # Usage
//
//	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{})
//	if err != nil {
//	    return err
//	}
//	gate := authz.NewGate(enforcer, ledger)
//	if err := gate.Require(ctx, owner, models.FeatureHTMLSnippet); err != nil {
//	    return err // models.ErrFeatureUnavailable
//	}
//
// Integration owners are billed per product and bypass the gate.
package authz
