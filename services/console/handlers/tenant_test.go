// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questdesk/questdesk/services/console/datatypes"
	"github.com/questdesk/questdesk/services/console/tenantcfg"
)

type stubFetcher struct {
	mu  sync.Mutex
	cfg *datatypes.TenantConfig
	err error
}

func (f *stubFetcher) FetchTenantConfig(_ context.Context, _ []string) (*datatypes.TenantConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg, f.err
}

func tenantRouter(cache *tenantcfg.Cache) *gin.Engine {
	router := gin.New()
	router.GET("/health", HandleHealth(cache))
	router.GET("/v1/tenant/config", HandleGetTenantConfig(cache))
	router.POST("/v1/tenant/config/refresh", HandleRefreshTenantConfig(cache))
	router.GET("/v1/tenant/menus/:name", HandleGetMenu(cache))
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func loadedConfig() *datatypes.TenantConfig {
	cfg := datatypes.EmptyTenantConfig()
	cfg.CorpusConfig.Domains = []datatypes.DomainConfig{
		{Name: "beauty", Units: []datatypes.UnitConfig{
			{Name: "olay", Corpora: []string{"rfp"}},
		}},
	}
	return cfg
}

func TestHandleGetTenantConfig(t *testing.T) {
	cache := tenantcfg.NewCache(&stubFetcher{})
	cache.Update(*loadedConfig())

	w := get(tenantRouter(cache), "/v1/tenant/config")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["stale"])
	assert.NotNil(t, body["config"])
}

func TestHandleRefreshTenantConfig(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cache := tenantcfg.NewCache(&stubFetcher{cfg: loadedConfig()})
		router := tenantRouter(cache)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/tenant/config/refresh", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["stale"])
	})

	t.Run("backend failure", func(t *testing.T) {
		cache := tenantcfg.NewCache(&stubFetcher{err: errors.New("backend down")})
		router := tenantRouter(cache)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/tenant/config/refresh", nil))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestHandleGetMenu(t *testing.T) {
	cache := tenantcfg.NewCache(&stubFetcher{})
	cache.Update(*loadedConfig())
	router := tenantRouter(cache)

	t.Run("domains", func(t *testing.T) {
		w := get(router, "/v1/tenant/menus/domains")
		require.Equal(t, http.StatusOK, w.Code)
		menu := decodeBody(t, w)["menu"].([]any)
		assert.Len(t, menu, 1)
	})

	t.Run("unknown", func(t *testing.T) {
		w := get(router, "/v1/tenant/menus/bogus")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	t.Run("degraded before load", func(t *testing.T) {
		cache := tenantcfg.NewCache(&stubFetcher{})
		w := get(tenantRouter(cache), "/health")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "degraded", decodeBody(t, w)["status"])
	})

	t.Run("ok after load", func(t *testing.T) {
		cache := tenantcfg.NewCache(&stubFetcher{})
		cache.Update(*loadedConfig())
		w := get(tenantRouter(cache), "/health")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", decodeBody(t, w)["status"])
	})
}
