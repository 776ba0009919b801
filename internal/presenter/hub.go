// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package presenter

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/hblink/internal/connectivity"
	"github.com/ManuGH/hblink/internal/link"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/ManuGH/hblink/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message types pushed to websocket clients.
const (
	MsgStatus    = "status"
	MsgDismiss   = "dismiss"
	MsgLifecycle = "lifecycle"
)

const (
	clientBuffer = 16
	writeWait    = 5 * time.Second
)

// Message is the websocket wire format.
type Message struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	Status     string `json:"status,omitempty"`
	ProducedAt int64  `json:"produced_at_ms,omitempty"`
	Lifecycle  string `json:"lifecycle,omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.hub.remove(c)
			// drain until remove closes send
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// Hub broadcasts status notifications and lifecycle changes to websocket
// clients. It is a Presenter and a LifecycleListener.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *Message
	closed  bool
}

// NewHub creates a Hub. A nil checkOrigin keeps the gorilla same-origin check.
func NewHub(checkOrigin func(*http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:   xglog.WithComponent("ws_hub"),
		clients:  make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and streams messages until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Str(xglog.FieldEvent, "ws.upgrade_failed").Msg("websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, clientBuffer)}
	if !h.add(c) {
		_ = conn.Close()
		return
	}
	go c.writePump()

	h.logger.Debug().Str(xglog.FieldEvent, "ws.connected").Str("remote", r.RemoteAddr).Msg("websocket client connected")
	defer h.remove(c)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Show broadcasts ev with a fresh notification id.
func (h *Hub) Show(ev link.Event) connectivity.Notification {
	msg := Message{
		Type:       MsgStatus,
		ID:         uuid.NewString(),
		Status:     ev.Status.String(),
		ProducedAt: ev.ProducedAt,
	}
	h.mu.Lock()
	h.last = &msg
	h.mu.Unlock()

	h.broadcast(msg)
	return &hubNotification{hub: h, id: msg.ID}
}

// EnteredForeground implements connectivity.LifecycleListener.
func (h *Hub) EnteredForeground() {
	h.broadcast(Message{Type: MsgLifecycle, Lifecycle: connectivity.Foreground.String()})
}

// EnteredBackground implements connectivity.LifecycleListener.
func (h *Hub) EnteredBackground() {
	h.broadcast(Message{Type: MsgLifecycle, Lifecycle: connectivity.Background.String()})
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		metrics.AddWSClients(-1)
	}
}

type hubNotification struct {
	hub  *Hub
	id   string
	once sync.Once
}

func (n *hubNotification) Cancel() {
	n.once.Do(func() {
		n.hub.broadcast(Message{Type: MsgDismiss, ID: n.id})
	})
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.AddWSClients(1)

	if h.last != nil {
		if data, err := json.Marshal(h.last); err == nil {
			c.send <- data
		}
	}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		metrics.AddWSClients(-1)
	}
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("encode websocket message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Slow client: drop it rather than stall the presentation goroutine.
			delete(h.clients, c)
			close(c.send)
			metrics.AddWSClients(-1)
			h.logger.Warn().Str(xglog.FieldEvent, "ws.client_dropped").Msg("websocket client too slow")
		}
	}
}
