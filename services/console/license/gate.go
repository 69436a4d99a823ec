// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package license implements the usage-limit admission gate: a short-TTL
// cached view of the tenant's license state, consulted before any answer
// job is dispatched.
//
// The gate fails open. If the remote limit service cannot be reached the
// decision is "allowed" with CheckFailed set, so telemetry can tell
// "allowed because checked" from "allowed because the check failed". This
// is a deliberate availability-over-enforcement policy; do not change it
// to fail-closed without flagging the behavior change to stakeholders.
package license

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/questdesk/questdesk/services/console/datatypes"
	"github.com/questdesk/questdesk/services/console/observability"
)

var tracer = otel.Tracer("questdesk.console.license")

// DefaultTTL is how long a fetched license state stays fresh.
const DefaultTTL = 5 * time.Minute

// Decision is the gate's admission answer for one meter.
type Decision struct {
	// Allowed permits dispatch. False only for a hard breach.
	Allowed bool `json:"allowed"`

	// Blocked marks a hard breach. Dispatch must be refused and the
	// breach surfaced as an error, not a warning.
	Blocked bool `json:"blocked"`

	// CheckFailed marks a decision produced by the fail-open path after
	// a transport failure.
	CheckFailed bool `json:"check_failed,omitempty"`

	// Warnings carries soft breaches for the confirmation summary.
	Warnings []datatypes.Warning `json:"warnings,omitempty"`

	// Usage and Limit carry breach detail when available (Blocked only).
	Usage int64 `json:"usage,omitempty"`
	Limit int64 `json:"limit,omitempty"`

	// FetchedAt is when the underlying report was fetched. Zero on the
	// fail-open path.
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// Service is the remote limit query, implemented by backend.Client.
type Service interface {
	CheckUsageLimit(ctx context.Context, meters []datatypes.MeterID) (*datatypes.UsageReport, error)
}

// Option configures a Gate.
type Option func(*Gate)

// WithTTL overrides the cache validity window.
func WithTTL(ttl time.Duration) Option {
	return func(g *Gate) { g.ttl = ttl }
}

// WithClock injects a clock. Tests use this to expire entries without
// sleeping.
func WithClock(clock Clock) Option {
	return func(g *Gate) { g.clock = clock }
}

// WithMetrics attaches flow metrics for limit-check accounting.
func WithMetrics(m *observability.FlowMetrics) Option {
	return func(g *Gate) { g.metrics = m }
}

// Gate caches license decisions per meter with a validity window.
//
// Reads are snapshots: a decision handed out stays valid for the flow
// that captured it even if the cache is invalidated mid-flow; the next
// flow picks up fresh data. Concurrent refetches for the same meter are
// deduplicated through singleflight. Safe for concurrent use.
type Gate struct {
	svc     Service
	clock   Clock
	ttl     time.Duration
	metrics *observability.FlowMetrics

	mu     sync.Mutex
	cache  map[datatypes.MeterID]Decision
	flight singleflight.Group
}

// NewGate creates a Gate over the given limit service.
func NewGate(svc Service, opts ...Option) *Gate {
	g := &Gate{
		svc:   svc,
		clock: systemClock{},
		ttl:   DefaultTTL,
		cache: make(map[datatypes.MeterID]Decision),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns the admission decision for a meter.
//
// A cached decision younger than the TTL is returned without a network
// call. Otherwise the remote service is queried and the result cached
// with a fresh timestamp. Transport failures fail open: the returned
// decision allows dispatch and sets CheckFailed, and nothing is cached
// so the next check retries.
func (g *Gate) Check(ctx context.Context, meter datatypes.MeterID) Decision {
	ctx, span := tracer.Start(ctx, "Gate.Check")
	defer span.End()
	span.SetAttributes(attribute.String("meter", string(meter)))

	if d, ok := g.cached(meter); ok {
		g.count(meter, d, "cache")
		return d
	}

	v, err, _ := g.flight.Do(string(meter), func() (any, error) {
		// Re-check under flight: another caller may have just stored it.
		if d, ok := g.cached(meter); ok {
			return d, nil
		}
		report, err := g.svc.CheckUsageLimit(ctx, []datatypes.MeterID{meter})
		if err != nil {
			return Decision{}, err
		}
		d := decide(meter, report, g.clock.Now())
		g.store(meter, d)
		return d, nil
	})
	if err != nil {
		slog.Warn("limit check failed, failing open", "meter", meter, "error", err)
		span.RecordError(err)
		d := Decision{Allowed: true, CheckFailed: true}
		g.count(meter, d, "error")
		return d
	}

	d := v.(Decision)
	g.count(meter, d, "remote")
	return d
}

// Invalidate drops every cached decision. Wired to the tenant
// configuration changed signal: the next Check refetches regardless of
// the validity window.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	g.cache = make(map[datatypes.MeterID]Decision)
	g.mu.Unlock()
	slog.Debug("license cache invalidated")
}

func (g *Gate) cached(meter datatypes.MeterID) (Decision, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.cache[meter]
	if !ok {
		return Decision{}, false
	}
	if g.clock.Now().Sub(d.FetchedAt) >= g.ttl {
		delete(g.cache, meter)
		return Decision{}, false
	}
	return d, true
}

func (g *Gate) store(meter datatypes.MeterID, d Decision) {
	g.mu.Lock()
	g.cache[meter] = d
	g.mu.Unlock()
}

func (g *Gate) count(meter datatypes.MeterID, d Decision, source string) {
	if g.metrics == nil {
		return
	}
	result := "allowed"
	switch {
	case d.Blocked:
		result = "blocked"
	case len(d.Warnings) > 0:
		result = "warned"
	}
	g.metrics.LimitChecksTotal.WithLabelValues(string(meter), result, source).Inc()
}

// decide folds a usage report into a Decision for one meter. A BLOCKED
// breach wins over everything; WARNED breaches and warning entries become
// soft warnings.
func decide(meter datatypes.MeterID, report *datatypes.UsageReport, now time.Time) Decision {
	d := Decision{Allowed: true, FetchedAt: now}

	for _, b := range report.Breaches {
		if b.Meter != meter {
			continue
		}
		switch b.Status {
		case datatypes.BreachBlocked:
			d.Allowed = false
			d.Blocked = true
			d.Usage = b.Usage
			d.Limit = b.Limit
		case datatypes.BreachWarned:
			d.Warnings = append(d.Warnings, datatypes.Warning{
				Meter:        b.Meter,
				UsagePercent: b.WarningPercent,
			})
		}
	}
	for _, w := range report.Warnings {
		if w.Meter == meter {
			d.Warnings = append(d.Warnings, w)
		}
	}

	return d
}
