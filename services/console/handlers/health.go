// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/questdesk/questdesk/services/console/tenantcfg"
)

// HandleHealth reports liveness plus whether tenant configuration has
// loaded. A console without configuration is alive but degraded; its
// validation marks every row as missing content.
func HandleHealth(cache *tenantcfg.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		if !cache.Snapshot().Loaded() {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        status,
			"config_loaded": cache.Snapshot().Loaded(),
			"config_stale":  cache.Stale(),
		})
	}
}
