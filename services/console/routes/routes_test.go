// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questdesk/questdesk/services/console/answerflow"
	"github.com/questdesk/questdesk/services/console/datatypes"
	"github.com/questdesk/questdesk/services/console/handlers"
	"github.com/questdesk/questdesk/services/console/license"
	"github.com/questdesk/questdesk/services/console/tenantcfg"
)

type allowGate struct{}

func (allowGate) Check(_ context.Context, _ datatypes.MeterID) license.Decision {
	return license.Decision{Allowed: true}
}

type nopDispatcher struct{}

func (nopDispatcher) DispatchJob(_ context.Context, _ datatypes.DispatchRequest) (*datatypes.DispatchReceipt, error) {
	return &datatypes.DispatchReceipt{JobID: "job-1"}, nil
}

type nopFetcher struct{}

func (nopFetcher) FetchTenantConfig(_ context.Context, _ []string) (*datatypes.TenantConfig, error) {
	return datatypes.EmptyTenantConfig(), nil
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cache := tenantcfg.NewCache(nopFetcher{})
	registry := answerflow.NewRegistry()
	t.Cleanup(registry.Close)

	router := gin.New()
	SetupRoutes(router, Deps{
		Orchestrator: answerflow.NewOrchestrator(answerflow.OrchestratorConfig{
			Gate:       allowGate{},
			Config:     cache,
			Dispatcher: nopDispatcher{},
		}),
		Registry: registry,
		Cache:    cache,
		Hub:      handlers.NewHub(nil),
	})
	return router
}

func TestSetupRoutes(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/v1/tenant/config", http.StatusOK},
		{http.MethodGet, "/v1/tenant/menus/domains", http.StatusOK},
		{http.MethodGet, "/no-such-route", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestSetupRoutes_FlowEndpointRegistered(t *testing.T) {
	router := testRouter(t)

	// An empty body fails binding with 400 rather than 404, proving the
	// route is wired.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/answers/flows", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
