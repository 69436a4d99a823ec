// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package backend is the HTTP client for the QuestDesk platform backend:
// tenant configuration, usage limits, job dispatch and active-job
// queries. The engine consumes these as interfaces; this client is the
// production implementation.
//
// Every call is throttled through a shared rate limiter and carries an
// OpenTelemetry span. Transport failures are wrapped, never swallowed;
// the policy of what a failure means (fail open, degrade to zero, abort)
// belongs to the callers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/questdesk/questdesk/services/console/datatypes"
)

var tracer = otel.Tracer("questdesk.console.backend")

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 30 * time.Second

// Client talks to the platform backend over HTTP+JSON.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// Config configures a Client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://platform:9400".
	BaseURL string

	// Timeout bounds a single call. Default: DefaultTimeout.
	Timeout time.Duration

	// RequestsPerSecond throttles outbound calls. Zero disables
	// throttling.
	RequestsPerSecond float64
}

// NewClient creates a Client. BaseURL is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL not set")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		limiter:    limiter,
	}, nil
}

type tenantConfigRequest struct {
	Keys []string `json:"keys"`
}

// FetchTenantConfig returns the corpus hierarchy, label names and
// preselection tables for the requested keys.
func (c *Client) FetchTenantConfig(ctx context.Context, keys []string) (*datatypes.TenantConfig, error) {
	ctx, span := tracer.Start(ctx, "Client.FetchTenantConfig")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("keys", keys))

	var out datatypes.TenantConfig
	err := c.postJSON(ctx, "/v1/tenant/config/query", tenantConfigRequest{Keys: keys}, &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch tenant config: %w", err)
	}
	return &out, nil
}

type usageLimitRequest struct {
	Meters []datatypes.MeterID `json:"meters"`
}

// CheckUsageLimit queries breach and warning state for the given meters.
func (c *Client) CheckUsageLimit(ctx context.Context, meters []datatypes.MeterID) (*datatypes.UsageReport, error) {
	ctx, span := tracer.Start(ctx, "Client.CheckUsageLimit")
	defer span.End()

	var out datatypes.UsageReport
	err := c.postJSON(ctx, "/v1/license/usage/check", usageLimitRequest{Meters: meters}, &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("check usage limit: %w", err)
	}
	return &out, nil
}

// DispatchJob starts an answer job and returns its receipt.
func (c *Client) DispatchJob(ctx context.Context, req datatypes.DispatchRequest) (*datatypes.DispatchReceipt, error) {
	ctx, span := tracer.Start(ctx, "Client.DispatchJob")
	defer span.End()
	span.SetAttributes(
		attribute.String("tier", string(req.Tier)),
		attribute.Int("rows", len(req.RowIDs)),
	)

	var out datatypes.DispatchReceipt
	err := c.postJSON(ctx, "/v1/jobs/answers", req, &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("dispatch job: %w", err)
	}
	return &out, nil
}

type activeJobsResponse struct {
	Jobs []datatypes.ActiveJob `json:"jobs"`
}

// QueryActiveJobs returns the tenant's currently running answer jobs.
func (c *Client) QueryActiveJobs(ctx context.Context) ([]datatypes.ActiveJob, error) {
	ctx, span := tracer.Start(ctx, "Client.QueryActiveJobs")
	defer span.End()

	var out activeJobsResponse
	err := c.getJSON(ctx, "/v1/jobs/answers/active", &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query active jobs: %w", err)
	}
	return out.Jobs, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Cap the error body so a misbehaving backend cannot balloon logs.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
