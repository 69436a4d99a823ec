// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub(nil)

	_, ch := hub.subscribe()
	hub.Broadcast(EventConfigInvalidated)

	select {
	case event := <-ch:
		assert.Equal(t, EventConfigInvalidated, event.Type)
		assert.False(t, event.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestHub_UnsubscribedClientNotNotified(t *testing.T) {
	hub := NewHub(nil)

	id, ch := hub.subscribe()
	hub.unsubscribe(id)
	hub.Broadcast(EventConfigRefreshed)

	select {
	case event := <-ch:
		t.Fatalf("unexpected event after unsubscribe: %v", event)
	default:
	}
}

func TestHub_SlowClientDoesNotBlockBroadcast(t *testing.T) {
	hub := NewHub(nil)

	_, ch := hub.subscribe()
	// Fill the buffer and keep broadcasting; extra events drop.
	for i := 0; i < cap(ch)+10; i++ {
		hub.Broadcast(EventConfigRefreshed)
	}
	assert.Equal(t, cap(ch), len(ch))
}

func TestHandleEvents_StreamsBroadcasts(t *testing.T) {
	hub := NewHub(nil)
	router := gin.New()
	router.GET("/v1/events/ws", HandleEvents(hub))

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the handler a moment to register the subscription.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(EventConfigInvalidated)

	var event Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, EventConfigInvalidated, event.Type)
}
