// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/questdesk/questdesk/services/console/tenantcfg"
)

// HandleGetTenantConfig returns the cached tenant configuration along
// with its staleness flag. Stale data is served, not hidden; the client
// decides whether to trigger a refresh.
func HandleGetTenantConfig(cache *tenantcfg.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"config": cache.Snapshot(),
			"stale":  cache.Stale(),
		})
	}
}

// HandleRefreshTenantConfig forces a refetch from the backend and
// returns the fresh configuration.
func HandleRefreshTenantConfig(cache *tenantcfg.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleRefreshTenantConfig")
		defer span.End()

		cfg, err := cache.Refresh(ctx)
		if err != nil {
			slog.Error("tenant config refresh failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "tenant config refresh failed: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"config": cfg, "stale": false})
	}
}

// HandleGetMenu returns a derived dropdown menu by name.
func HandleGetMenu(cache *tenantcfg.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		switch name {
		case tenantcfg.MenuDomains, tenantcfg.MenuCorpora:
			c.JSON(http.StatusOK, gin.H{"menu": cache.Menu(name)})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown menu: " + name})
		}
	}
}
