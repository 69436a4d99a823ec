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
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/questdesk/questdesk/services/console/observability"
)

// Event is one console notification pushed to connected clients.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
}

// Event types pushed over the events socket.
const (
	EventConfigInvalidated = "config_invalidated"
	EventConfigRefreshed   = "config_refreshed"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans console events out to connected websocket clients. A slow
// client's buffer filling up drops events for that client rather than
// stalling the broadcast.
type Hub struct {
	metrics *observability.FlowMetrics

	mu      sync.Mutex
	nextID  int
	clients map[int]chan Event
}

// NewHub creates an event hub. metrics may be nil.
func NewHub(metrics *observability.FlowMetrics) *Hub {
	return &Hub{
		metrics: metrics,
		clients: make(map[int]chan Event),
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(eventType string) {
	event := Event{Type: eventType, Time: time.Now()}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) subscribe() (int, chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan Event, 16)
	h.clients[id] = ch
	if h.metrics != nil {
		h.metrics.EventClients.Inc()
	}
	return id, ch
}

func (h *Hub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		if h.metrics != nil {
			h.metrics.EventClients.Dec()
		}
	}
}

// HandleEvents upgrades the connection and streams console events until
// the client disconnects.
func HandleEvents(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the events websocket", "error", err)
			return
		}
		defer ws.Close()

		id, events := hub.subscribe()
		defer hub.unsubscribe(id)
		slog.Info("events client connected", "client_id", id)

		// Reader goroutine: its only job is to notice the disconnect.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				slog.Info("events client disconnected", "client_id", id)
				return
			case event := <-events:
				if err := ws.WriteJSON(event); err != nil {
					slog.Warn("failed to write event", "client_id", id, "error", err)
					return
				}
			}
		}
	}
}
