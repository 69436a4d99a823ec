// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/questdesk/questdesk/services/console/answerflow"
	"github.com/questdesk/questdesk/services/console/handlers"
	"github.com/questdesk/questdesk/services/console/tenantcfg"
)

// Deps are the wired collaborators the route handlers close over.
type Deps struct {
	Orchestrator *answerflow.Orchestrator
	Registry     *answerflow.Registry
	Cache        *tenantcfg.Cache
	Hub          *handlers.Hub
}

// SetupRoutes registers the console API on the given router.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HandleHealth(deps.Cache))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		answers := v1.Group("/answers")
		{
			answers.POST("/flows", handlers.HandlePrepareFlow(deps.Orchestrator, deps.Registry))
			answers.POST("/flows/:flowId/decision", handlers.HandleDecideFlow(deps.Orchestrator, deps.Registry))
		}

		tenant := v1.Group("/tenant")
		{
			tenant.GET("/config", handlers.HandleGetTenantConfig(deps.Cache))
			tenant.POST("/config/refresh", handlers.HandleRefreshTenantConfig(deps.Cache))
			tenant.GET("/menus/:name", handlers.HandleGetMenu(deps.Cache))
		}

		v1.GET("/events/ws", handlers.HandleEvents(deps.Hub))
	}
}
