// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package answerflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/questdesk/questdesk/services/console/datatypes"
	"github.com/questdesk/questdesk/services/console/license"
	"github.com/questdesk/questdesk/services/console/observability"
)

var tracer = otel.Tracer("questdesk.console.answerflow")

// State names a position in the confirmation state machine.
type State string

const (
	StateIdle                 State = "idle"
	StateValidating           State = "validating"
	StateValidationFailed     State = "validation_failed"
	StateGrouping             State = "grouping"
	StateCheckingLimit        State = "checking_limit"
	StateLimitBlocked         State = "limit_blocked"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateCancelled            State = "cancelled"
	StateDispatching          State = "dispatching"
	StateDispatchFailed       State = "dispatch_failed"
	StateDone                 State = "done"
)

// terminal reports whether no further transition can occur from s.
func (s State) terminal() bool {
	switch s {
	case StateValidationFailed, StateLimitBlocked, StateCancelled,
		StateDispatchFailed, StateDone:
		return true
	}
	return false
}

// LargeBatchThreshold is the question count above which the confirmation
// summary carries a large-batch warning.
const LargeBatchThreshold = 30

// Request is one confirmation attempt: the rows selected in the grid at
// action time plus the requested tier and dispatch options.
type Request struct {
	Items       []datatypes.QuestionItem
	Tier        datatypes.AnswerTier
	Path        datatypes.DispatchPath
	VectorIndex string
}

// Summary is what the user sees before deciding. It reports exactly what
// will happen on accept: how many questions, how many sub-jobs, and every
// warning the gate or active-job query produced.
type Summary struct {
	QuestionCount    int                 `json:"question_count"`
	SubJobCount      int                 `json:"sub_job_count"`
	ActiveJobs       int                 `json:"active_jobs"`
	LargeBatch       bool                `json:"large_batch"`
	LimitWarnings    []datatypes.Warning `json:"limit_warnings,omitempty"`
	LimitCheckFailed bool                `json:"limit_check_failed,omitempty"`
}

// LimitGate is the admission check consulted before confirmation and
// again immediately before dispatch.
type LimitGate interface {
	Check(ctx context.Context, meter datatypes.MeterID) license.Decision
}

// ConfigSource hands out tenant configuration snapshots.
type ConfigSource interface {
	Snapshot() *datatypes.TenantConfig
}

// Dispatcher starts an answer job on the backend.
type Dispatcher interface {
	DispatchJob(ctx context.Context, req datatypes.DispatchRequest) (*datatypes.DispatchReceipt, error)
}

// ActiveJobsQuerier reports jobs already running for the tenant. Failure
// to reach it must not block a flow; it degrades to zero active jobs.
type ActiveJobsQuerier interface {
	QueryActiveJobs(ctx context.Context) ([]datatypes.ActiveJob, error)
}

// Flow is one confirmation attempt moving through the state machine.
// Snapshot, Groups and Summary are captured at preparation time and never
// refreshed mid-flow: if the tenant configuration is invalidated while
// the user decides, this flow finishes on its captured data and the next
// flow picks up the new state.
type Flow struct {
	ID        string
	Request   Request
	Snapshot  *datatypes.TenantConfig
	Groups    []SubJobGroup
	Summary   Summary
	CreatedAt time.Time

	// Validation holds the failure lists when State is
	// StateValidationFailed. Always complete, never pre-truncated.
	Validation ValidationResult

	mu      sync.Mutex
	state   State
	decided bool
}

// State returns the flow's current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) setState(next State) {
	f.mu.Lock()
	prev := f.state
	f.state = next
	f.mu.Unlock()
	slog.Debug("flow transition", "flow_id", f.ID, "from", prev, "to", next)
}

// OrchestratorConfig wires an Orchestrator's collaborators. Gate, Config
// and Dispatcher are required; ActiveJobs and Metrics are optional.
type OrchestratorConfig struct {
	Gate       LimitGate
	Config     ConfigSource
	Dispatcher Dispatcher
	ActiveJobs ActiveJobsQuerier
	Metrics    *observability.FlowMetrics
}

// Orchestrator sequences validation, grouping, the license gate, user
// confirmation and dispatch for answer jobs. It holds no per-flow state
// itself; each Prepare produces an independent Flow.
type Orchestrator struct {
	gate       LimitGate
	config     ConfigSource
	dispatcher Dispatcher
	activeJobs ActiveJobsQuerier
	metrics    *observability.FlowMetrics
}

// NewOrchestrator creates an Orchestrator from its collaborators.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		gate:       cfg.Gate,
		config:     cfg.Config,
		dispatcher: cfg.Dispatcher,
		activeJobs: cfg.ActiveJobs,
		metrics:    cfg.Metrics,
	}
}

// Prepare runs a flow from Idle up to AwaitingConfirmation.
//
// The sequencing is strict: validation completes over the whole batch
// before grouping starts, grouping completes before the first limit
// check, and no network call happens before validation passes. Returns
// the flow in StateAwaitingConfirmation on success; on failure the
// returned error is one of ErrNothingSelected, *ValidationError or
// *LimitBlockedError, with the flow (when one exists) in the matching
// terminal state.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*Flow, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.Prepare")
	defer span.End()
	span.SetAttributes(
		attribute.Int("rows", len(req.Items)),
		attribute.String("tier", string(req.Tier)),
	)

	if len(req.Items) == 0 {
		// Short-circuit: never enters Validating.
		o.finish("nothing_selected", time.Time{})
		return nil, ErrNothingSelected
	}

	flow := &Flow{
		ID:        uuid.NewString(),
		Request:   req,
		CreatedAt: time.Now(),
		state:     StateIdle,
	}

	flow.setState(StateValidating)
	flow.Snapshot = o.config.Snapshot()
	result := ValidateRows(req.Items, flow.Snapshot)
	if !result.Valid() {
		flow.Validation = result
		flow.setState(StateValidationFailed)
		o.finish("validation_failed", flow.CreatedAt)
		err := &ValidationError{Result: result}
		span.SetStatus(codes.Error, err.Error())
		return flow, err
	}

	flow.setState(StateGrouping)
	flow.Groups = GroupRows(req.Items)

	flow.setState(StateCheckingLimit)
	meter := req.Tier.Meter()
	decision := o.gate.Check(ctx, meter)
	if decision.Blocked {
		flow.setState(StateLimitBlocked)
		o.finish("limit_blocked", flow.CreatedAt)
		err := &LimitBlockedError{Meter: meter, Usage: decision.Usage, Limit: decision.Limit}
		span.SetStatus(codes.Error, err.Error())
		return flow, err
	}

	flow.Summary = Summary{
		QuestionCount:    len(req.Items),
		SubJobCount:      len(flow.Groups),
		ActiveJobs:       o.countActiveJobs(ctx),
		LargeBatch:       len(req.Items) > LargeBatchThreshold,
		LimitWarnings:    decision.Warnings,
		LimitCheckFailed: decision.CheckFailed,
	}
	flow.setState(StateAwaitingConfirmation)

	if o.metrics != nil {
		o.metrics.SubJobsPerFlow.Observe(float64(flow.Summary.SubJobCount))
		o.metrics.QuestionsPerFlow.Observe(float64(flow.Summary.QuestionCount))
	}
	slog.Info("flow awaiting confirmation",
		"flow_id", flow.ID,
		"questions", flow.Summary.QuestionCount,
		"sub_jobs", flow.Summary.SubJobCount,
		"tier", req.Tier)
	return flow, nil
}

// Decide resolves a flow in AwaitingConfirmation.
//
// Decline cancels with no side effects. Accept re-checks the license
// gate first, because confirmation is asynchronous and the tenant's
// state may have changed while the user decided; a breach found now
// moves the flow to LimitBlocked instead of dispatching. Once dispatch
// starts there is no cancellation; its outcome is awaited to completion.
func (o *Orchestrator) Decide(ctx context.Context, flow *Flow, accept bool) (*datatypes.DispatchReceipt, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.Decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("flow_id", flow.ID),
		attribute.Bool("accept", accept),
	)

	if !flow.claimDecision() {
		return nil, ErrFlowResolved
	}

	if !accept {
		flow.setState(StateCancelled)
		o.finish("cancelled", flow.CreatedAt)
		slog.Info("flow cancelled", "flow_id", flow.ID)
		return nil, nil
	}

	meter := flow.Request.Tier.Meter()
	decision := o.gate.Check(ctx, meter)
	if decision.Blocked {
		flow.setState(StateLimitBlocked)
		o.finish("limit_blocked", flow.CreatedAt)
		err := &LimitBlockedError{Meter: meter, Usage: decision.Usage, Limit: decision.Limit}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	flow.setState(StateDispatching)
	receipt, err := o.dispatcher.DispatchJob(ctx, flow.dispatchRequest())
	if err != nil {
		flow.setState(StateDispatchFailed)
		o.finish("dispatch_failed", flow.CreatedAt)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("flow dispatch failed", "flow_id", flow.ID, "error", err)
		return nil, &DispatchError{Err: err}
	}

	flow.setState(StateDone)
	o.finish("done", flow.CreatedAt)
	slog.Info("flow dispatched",
		"flow_id", flow.ID,
		"job_id", receipt.JobID,
		"shard_key", receipt.ShardKey)
	return receipt, nil
}

// ConfirmFunc presents a summary and resolves to the user's decision.
// Returning an error counts as a decline.
type ConfirmFunc func(ctx context.Context, summary Summary) (bool, error)

// Run drives a whole flow for library callers: Prepare, confirm, Decide.
func (o *Orchestrator) Run(ctx context.Context, req Request, confirm ConfirmFunc) (*datatypes.DispatchReceipt, error) {
	flow, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	accept, err := confirm(ctx, flow.Summary)
	if err != nil {
		_, _ = o.Decide(ctx, flow, false)
		return nil, err
	}
	return o.Decide(ctx, flow, accept)
}

// claimDecision marks an AwaitingConfirmation flow as decided so exactly
// one decision can proceed, even if two arrive concurrently.
func (f *Flow) claimDecision() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateAwaitingConfirmation || f.decided {
		return false
	}
	f.decided = true
	return true
}

func (f *Flow) dispatchRequest() datatypes.DispatchRequest {
	path := f.Request.Path
	if path == "" {
		path = datatypes.PathBulk
	}
	ids := make([]string, 0, len(f.Request.Items))
	for _, item := range f.Request.Items {
		ids = append(ids, item.ID)
	}
	return datatypes.DispatchRequest{
		Tier:        f.Request.Tier,
		RowIDs:      ids,
		Path:        path,
		VectorIndex: f.Request.VectorIndex,
	}
}

func (o *Orchestrator) countActiveJobs(ctx context.Context) int {
	if o.activeJobs == nil {
		return 0
	}
	jobs, err := o.activeJobs.QueryActiveJobs(ctx)
	if err != nil {
		// The warning text is best-effort; an unreachable job-status
		// collaborator must not block the flow.
		slog.Warn("active job query failed, assuming none", "error", err)
		return 0
	}
	return len(jobs)
}

func (o *Orchestrator) finish(outcome string, start time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.FlowsTotal.WithLabelValues(outcome).Inc()
	if !start.IsZero() {
		o.metrics.FlowDurationSeconds.WithLabelValues(outcome).
			Observe(time.Since(start).Seconds())
	}
}
