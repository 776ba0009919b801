// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package presenter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/hblink/internal/link"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_ShowAndDismiss(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitClients(t, hub, 1)

	n := hub.Show(link.Event{Status: link.Connected, ProducedAt: 42})
	status := readMessage(t, conn)
	assert.Equal(t, MsgStatus, status.Type)
	assert.Equal(t, "CONNECTED", status.Status)
	assert.Equal(t, int64(42), status.ProducedAt)
	_, err := uuid.Parse(status.ID)
	require.NoError(t, err)

	n.Cancel()
	n.Cancel()
	dismiss := readMessage(t, conn)
	assert.Equal(t, Message{Type: MsgDismiss, ID: status.ID}, dismiss)

	// Only one dismiss was sent; the next message is the lifecycle push.
	hub.EnteredBackground()
	assert.Equal(t, Message{Type: MsgLifecycle, Lifecycle: "background"}, readMessage(t, conn))
}

func TestHub_NewClientGetsLastStatus(t *testing.T) {
	hub, srv := startHub(t)

	hub.Show(link.Event{Status: link.NotConnected, ProducedAt: 1})
	hub.Show(link.Event{Status: link.RadioUnavailable, ProducedAt: 2})

	conn := dial(t, srv)
	msg := readMessage(t, conn)
	assert.Equal(t, "RADIO_UNAVAILABLE", msg.Status)
	assert.Equal(t, int64(2), msg.ProducedAt)
}

func TestHub_LifecycleBroadcast(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitClients(t, hub, 2)

	hub.EnteredForeground()

	want := Message{Type: MsgLifecycle, Lifecycle: "foreground"}
	assert.Equal(t, want, readMessage(t, a))
	assert.Equal(t, want, readMessage(t, b))
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitClients(t, hub, 0)
}

func TestHub_CloseRejectsClients(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitClients(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
