// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers holds the gin handlers of the console API. Handlers
// translate between HTTP and the engine packages; no flow logic lives
// here.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/questdesk/questdesk/services/console/answerflow"
	"github.com/questdesk/questdesk/services/console/datatypes"
)

var tracer = otel.Tracer("questdesk.console.handlers")

// HandlePrepareFlow starts a confirmation flow for the selected rows.
//
// Responses:
//   - 200: flow prepared, body carries flow_id and the summary
//   - 400: malformed body or nothing selected
//   - 422: row validation failed, body carries the complete failure lists
//   - 403: hard usage-limit breach
func HandlePrepareFlow(orch *answerflow.Orchestrator, registry *answerflow.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandlePrepareFlow")
		defer span.End()

		var req datatypes.AnswerFlowRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		flow, err := orch.Prepare(ctx, answerflow.Request{
			Items:       req.Items,
			Tier:        req.Tier,
			Path:        req.Path,
			VectorIndex: req.VectorIndex,
		})
		if err != nil {
			respondPrepareError(c, err)
			return
		}

		registry.Put(flow)
		c.JSON(http.StatusOK, gin.H{
			"flow_id": flow.ID,
			"summary": flow.Summary,
		})
	}
}

func respondPrepareError(c *gin.Context, err error) {
	var verr *answerflow.ValidationError
	var lerr *answerflow.LimitBlockedError
	switch {
	case errors.Is(err, answerflow.ErrNothingSelected):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    err.Error(),
			"failures": verr.Result,
		})
	case errors.As(err, &lerr):
		c.JSON(http.StatusForbidden, gin.H{
			"error": err.Error(),
			"meter": lerr.Meter,
			"usage": lerr.Usage,
			"limit": lerr.Limit,
		})
	default:
		slog.Error("flow preparation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "flow preparation failed"})
	}
}

// HandleDecideFlow resolves a pending confirmation flow.
//
// Responses:
//   - 200: decision applied; dispatched flows carry the job receipt
//   - 404: unknown or expired flow id
//   - 409: flow already resolved
//   - 403: hard breach found on the pre-dispatch re-check
//   - 502: the backend rejected or failed the dispatch call
func HandleDecideFlow(orch *answerflow.Orchestrator, registry *answerflow.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleDecideFlow")
		defer span.End()

		flowID := c.Param("flowId")
		var req datatypes.FlowDecisionRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		flow, err := registry.Get(flowID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		receipt, err := orch.Decide(ctx, flow, req.Accept)
		// Terminal either way; the flow is no longer pending.
		registry.Remove(flowID)

		if err != nil {
			respondDecideError(c, err)
			return
		}
		if !req.Accept {
			c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "dispatched",
			"receipt": receipt,
		})
	}
}

func respondDecideError(c *gin.Context, err error) {
	var lerr *answerflow.LimitBlockedError
	var derr *answerflow.DispatchError
	switch {
	case errors.Is(err, answerflow.ErrFlowResolved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &lerr):
		c.JSON(http.StatusForbidden, gin.H{
			"error": err.Error(),
			"meter": lerr.Meter,
			"usage": lerr.Usage,
			"limit": lerr.Limit,
		})
	case errors.As(err, &derr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		slog.Error("flow decision failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "flow decision failed"})
	}
}
