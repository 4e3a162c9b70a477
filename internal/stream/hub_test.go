package stream_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingdesk/internal/game"
	"tradingdesk/internal/stream"
)

func startHub(t *testing.T, initial func() any) (*stream.Hub, string, context.CancelFunc) {
	t.Helper()
	hub := stream.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler(initial))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http"), cancel
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	return conn
}

func TestHubSendsInitialThenBroadcasts(t *testing.T) {
	hub, url, _ := startHub(t, func() any { return map[string]int{"day": 3} })
	conn := dial(t, url)

	var hello map[string]int
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, 3, hello["day"])

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, hub.Broadcast(map[string]string{"kind": "tick"}))

	var msg map[string]string
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "tick", msg["kind"])
}

func TestHubFollowRelaysEvents(t *testing.T) {
	hub, url, _ := startHub(t, nil)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	events := make(chan game.Event, 1)
	done := make(chan struct{})
	go func() {
		hub.Follow(context.Background(), events)
		close(done)
	}()
	events <- game.Event{Kind: game.EventDayClosed, Desk: game.DeskView{Day: 2}}

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev game.Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, game.EventDayClosed, ev.Kind)
	assert.Equal(t, 2, ev.Desk.Day)

	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after events closed")
	}
}

func TestHubDropsClientOnDisconnect(t *testing.T) {
	hub, url, _ := startHub(t, nil)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHubStopped(t *testing.T) {
	hub, url, cancel := startHub(t, nil)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool { return !hub.Broadcast("late") }, time.Second, 5*time.Millisecond)

	var err error
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	assert.Error(t, err, "the connection closes when the hub stops")
}
