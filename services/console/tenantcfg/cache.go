// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tenantcfg caches the tenant's corpus configuration and owns
// the invalidate/refresh lifecycle around it.
//
// The cache is an explicit owned object, constructed once per tenant
// context and passed by reference to every consumer; there is no
// module-level singleton. Mutations always replace whole sub-structures
// atomically (a reader holds either the old snapshot or the new one,
// never a mix), and invalidation follows the lazy-refresh discipline:
// Invalidate marks the data stale and clears derived artifacts, and
// whichever consumer needs fresh data next triggers the refetch.
package tenantcfg

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"github.com/questdesk/questdesk/services/console/datatypes"
	"github.com/questdesk/questdesk/services/console/observability"
)

var tracer = otel.Tracer("questdesk.console.tenantcfg")

// Fetcher loads tenant configuration from the platform backend,
// implemented by backend.Client.
type Fetcher interface {
	FetchTenantConfig(ctx context.Context, keys []string) (*datatypes.TenantConfig, error)
}

// configKeys are the sub-structures requested on every fetch.
var configKeys = []string{"corpus_config", "label_friendly_names", "topic_type_preselection"}

// MenuEntry is one precomputed dropdown row, derived from the snapshot.
type MenuEntry struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Cache holds the current tenant configuration snapshot.
//
// Readers get immutable snapshots: Snapshot never returns nil, and a
// snapshot captured before an invalidation stays coherent for the flow
// that captured it. Safe for concurrent use.
type Cache struct {
	fetcher Fetcher
	metrics *observability.FlowMetrics

	mu      sync.RWMutex
	current *datatypes.TenantConfig
	stale   bool

	// menus is derived from current and rebuilt lazily; cleared on
	// every update or invalidation.
	menus map[string][]MenuEntry

	subMu         sync.Mutex
	nextSubID     int
	onInvalidated map[int]func()
	onRefreshed   map[int]func(*datatypes.TenantConfig)

	flight singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics attaches metrics for invalidation/refresh accounting.
func WithMetrics(m *observability.FlowMetrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// NewCache creates a Cache with no data loaded. Queries before the first
// load see empty defaults, never nil.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:       fetcher,
		current:       datatypes.EmptyTenantConfig(),
		stale:         true,
		menus:         make(map[string][]MenuEntry),
		onInvalidated: make(map[int]func()),
		onRefreshed:   make(map[int]func(*datatypes.TenantConfig)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current configuration. The returned value is
// shared and must be treated as read-only.
func (c *Cache) Snapshot() *datatypes.TenantConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Stale reports whether the snapshot predates the last invalidation (or
// no load has happened yet).
func (c *Cache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

// Update replaces the whole configuration atomically and notifies
// refresh subscribers. Derived artifacts are cleared in the same
// critical section so no consumer can read menus built from the old
// hierarchy against the new one.
func (c *Cache) Update(cfg datatypes.TenantConfig) {
	next := cfg
	if next.LabelFriendlyNames == nil {
		next.LabelFriendlyNames = map[string]string{}
	}
	if next.TopicTypePreselection == nil {
		next.TopicTypePreselection = map[string][]string{}
	}

	c.mu.Lock()
	c.current = &next
	c.stale = false
	c.menus = make(map[string][]MenuEntry)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ConfigRefreshesTotal.Inc()
	}
	slog.Info("tenant configuration updated",
		"domains", len(next.CorpusConfig.Domains),
		"labels", len(next.LabelFriendlyNames))
	c.notifyRefreshed(&next)
}

// Invalidate marks the configuration stale, clears derived artifacts and
// notifies invalidation subscribers. It does not refetch; the next
// consumer that needs fresh data calls Refresh.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.menus = make(map[string][]MenuEntry)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ConfigInvalidationsTotal.Inc()
	}
	slog.Info("tenant configuration invalidated")
	c.notifyInvalidated()
}

// Refresh fetches a fresh configuration and installs it. Concurrent
// callers share one fetch. Returns the installed snapshot.
func (c *Cache) Refresh(ctx context.Context) (*datatypes.TenantConfig, error) {
	ctx, span := tracer.Start(ctx, "Cache.Refresh")
	defer span.End()

	v, err, _ := c.flight.Do("refresh", func() (any, error) {
		cfg, err := c.fetcher.FetchTenantConfig(ctx, configKeys)
		if err != nil {
			return nil, err
		}
		c.Update(*cfg)
		return c.Snapshot(), nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return v.(*datatypes.TenantConfig), nil
}

// OnInvalidated registers a callback fired after every invalidation.
// The returned function unsubscribes.
func (c *Cache) OnInvalidated(fn func()) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.onInvalidated[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.onInvalidated, id)
	}
}

// OnRefreshed registers a callback fired with the new snapshot after
// every update. The returned function unsubscribes.
func (c *Cache) OnRefreshed(fn func(*datatypes.TenantConfig)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.onRefreshed[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.onRefreshed, id)
	}
}

func (c *Cache) notifyInvalidated() {
	c.subMu.Lock()
	subs := make([]func(), 0, len(c.onInvalidated))
	for _, fn := range c.onInvalidated {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (c *Cache) notifyRefreshed(cfg *datatypes.TenantConfig) {
	c.subMu.Lock()
	subs := make([]func(*datatypes.TenantConfig), 0, len(c.onRefreshed))
	for _, fn := range c.onRefreshed {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(cfg)
	}
}
