// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questdesk/questdesk/services/console/datatypes"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestClient_FetchTenantConfig(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/tenant/config/query", r.URL.Path)

		var req tenantConfigRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Keys, "corpus_config")

		cfg := datatypes.TenantConfig{
			LabelFriendlyNames: map[string]string{"rfp": "RFP Library"},
		}
		cfg.CorpusConfig.Domains = []datatypes.DomainConfig{
			{Name: "beauty", Units: []datatypes.UnitConfig{
				{Name: "olay", Corpora: []string{"rfp"}},
			}},
		}
		_ = json.NewEncoder(w).Encode(cfg)
	})

	cfg, err := client.FetchTenantConfig(context.Background(),
		[]string{"corpus_config", "label_friendly_names"})
	require.NoError(t, err)
	assert.True(t, cfg.HasCorpus("beauty", "olay", "rfp"))
	assert.Equal(t, "RFP Library", cfg.FriendlyName("rfp"))
}

func TestClient_CheckUsageLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/license/usage/check", r.URL.Path)
		_ = json.NewEncoder(w).Encode(datatypes.UsageReport{
			Breaches: []datatypes.Breach{{
				Meter:  datatypes.MeterStandardAnswers,
				Status: datatypes.BreachBlocked,
				Usage:  1200,
				Limit:  1000,
			}},
		})
	})

	report, err := client.CheckUsageLimit(context.Background(),
		[]datatypes.MeterID{datatypes.MeterStandardAnswers})
	require.NoError(t, err)
	require.Len(t, report.Breaches, 1)
	assert.Equal(t, datatypes.BreachBlocked, report.Breaches[0].Status)
}

func TestClient_DispatchJob(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/jobs/answers", r.URL.Path)

		var req datatypes.DispatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, datatypes.TierStandard, req.Tier)
		assert.Equal(t, []string{"q-1", "q-2"}, req.RowIDs)

		_ = json.NewEncoder(w).Encode(datatypes.DispatchReceipt{
			JobID: "job-42", ShardKey: "shard-a",
		})
	})

	receipt, err := client.DispatchJob(context.Background(), datatypes.DispatchRequest{
		Tier:   datatypes.TierStandard,
		RowIDs: []string{"q-1", "q-2"},
		Path:   datatypes.PathBulk,
	})
	require.NoError(t, err)
	assert.Equal(t, "job-42", receipt.JobID)
}

func TestClient_QueryActiveJobs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/jobs/answers/active", r.URL.Path)
		_ = json.NewEncoder(w).Encode(activeJobsResponse{
			Jobs: []datatypes.ActiveJob{{JobID: "job-1"}, {JobID: "job-2"}},
		})
	})

	jobs, err := client.QueryActiveJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestClient_ErrorStatusSurfacesBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tenant suspended", http.StatusForbidden)
	})

	_, err := client.QueryActiveJobs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "tenant suspended")
}
