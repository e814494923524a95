// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progress

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// Envelope is the wire format delivered to websocket subscribers. The
// channel name travels alongside the event so one connection can multiplex
// several subscriptions.
type Envelope struct {
	Channel string         `json:"channel"`
	Event   map[string]any `json:"event"`
}

// subscribeMessage is what clients send to manage their subscriptions.
type subscribeMessage struct {
	Subscribe   string `json:"subscribe,omitempty"`
	Unsubscribe string `json:"unsubscribe,omitempty"`
}

// Hub is a websocket broadcast transport implementing Notifier.
//
// Clients connect, send {"subscribe": "progress:story:<id>"}, and from then
// on receive every event published to that channel or to its ":error" and
// ":complete" sub-channels. Events published while no subscriber is attached
// are dropped; the hub keeps no history.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn

	// writeMu serializes writes; gorilla/websocket allows one concurrent writer.
	writeMu sync.Mutex

	mu       sync.RWMutex
	channels map[string]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{})}
}

// Publish sends the payload to every subscriber of the channel's base
// channel. It never blocks on slow clients beyond the websocket write
// itself; a failed write evicts the subscriber.
func (h *Hub) Publish(channel string, payload map[string]any) error {
	base := baseChannel(channel)
	envelope := Envelope{Channel: channel, Event: payload}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		if sub.subscribed(base) {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.writeMu.Lock()
		err := sub.conn.WriteJSON(envelope)
		sub.writeMu.Unlock()
		if err != nil {
			slog.Warn("evicting progress subscriber after failed write", "channel", channel, "error", err)
			h.remove(sub)
		}
	}
	return nil
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// HandleWebSocket upgrades the request and serves the subscription loop
// until the client disconnects.
func (h *Hub) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the progress websocket", "error", err)
			return
		}
		defer ws.Close()

		clientID := uuid.New().String()
		sub := &subscriber{conn: ws, channels: make(map[string]struct{})}
		h.add(sub)
		defer h.remove(sub)
		slog.Info("progress subscriber connected", "clientID", clientID)

		sub.writeMu.Lock()
		err = ws.WriteJSON(map[string]any{"action": "connected", "clientId": clientID})
		sub.writeMu.Unlock()
		if err != nil {
			return
		}

		for {
			var msg subscribeMessage
			if err := ws.ReadJSON(&msg); err != nil {
				slog.Info("progress subscriber disconnected", "clientID", clientID, "error", err.Error())
				return
			}
			if msg.Subscribe != "" {
				sub.set(baseChannel(msg.Subscribe))
			}
			if msg.Unsubscribe != "" {
				sub.unset(baseChannel(msg.Unsubscribe))
			}
		}
	}
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
}

func (s *subscriber) subscribed(base string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.channels[base]
	return ok
}

func (s *subscriber) set(base string) {
	s.mu.Lock()
	s.channels[base] = struct{}{}
	s.mu.Unlock()
}

func (s *subscriber) unset(base string) {
	s.mu.Lock()
	delete(s.channels, base)
	s.mu.Unlock()
}
