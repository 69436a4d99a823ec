// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package answerflow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/questdesk/questdesk/services/console/observability"
)

// DefaultFlowTTL is how long a prepared flow waits for a user decision
// before the registry drops it. An expired flow id yields
// ErrFlowNotFound and the user re-runs the whole flow.
const DefaultFlowTTL = 10 * time.Minute

// Registry holds flows between preparation and decision. It exists
// because confirmation arrives on a later HTTP request than preparation;
// library callers using Orchestrator.Run never need it.
//
// Safe for concurrent use.
type Registry struct {
	ttl     time.Duration
	metrics *observability.FlowMetrics

	mu    sync.Mutex
	flows map[string]*Flow

	janitorOnce sync.Once
	stopOnce    sync.Once
	stop        chan struct{}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFlowTTL overrides the pending-flow lifetime.
func WithFlowTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.ttl = ttl }
}

// WithRegistryMetrics attaches flow metrics for the pending gauge.
func WithRegistryMetrics(m *observability.FlowMetrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		ttl:   DefaultFlowTTL,
		flows: make(map[string]*Flow),
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Put stores a flow awaiting confirmation.
func (r *Registry) Put(flow *Flow) {
	r.mu.Lock()
	r.flows[flow.ID] = flow
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.PendingFlows.Inc()
	}
}

// Get returns a pending flow by id, or ErrFlowNotFound when the id is
// unknown or the flow expired.
func (r *Registry) Get(id string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flow, ok := r.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	if time.Since(flow.CreatedAt) > r.ttl {
		delete(r.flows, id)
		if r.metrics != nil {
			r.metrics.PendingFlows.Dec()
		}
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

// Remove drops a flow after it reaches a terminal state.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	_, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()
	if ok && r.metrics != nil {
		r.metrics.PendingFlows.Dec()
	}
}

// StartJanitor launches the background sweep that drops expired and
// terminal flows. Call Close to stop it. Calling more than once is a
// no-op.
func (r *Registry) StartJanitor(interval time.Duration) {
	r.janitorOnce.Do(func() {
		go r.janitor(interval)
	})
}

// Close stops the janitor, if running. Safe to call more than once.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	now := time.Now()
	var dropped int
	r.mu.Lock()
	for id, flow := range r.flows {
		if now.Sub(flow.CreatedAt) > r.ttl || flow.State().terminal() {
			delete(r.flows, id)
			dropped++
		}
	}
	r.mu.Unlock()
	if dropped > 0 {
		if r.metrics != nil {
			r.metrics.PendingFlows.Sub(float64(dropped))
		}
		slog.Debug("swept pending flows", "dropped", dropped)
	}
}
