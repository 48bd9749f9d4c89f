package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/internal/broadcast"
	"github.com/agentstation/osiris/pkg/events"
)

// liveServer upgrades each request and registers the connection on b.
func liveServer(t *testing.T, b *broadcast.Broadcaster) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	upgrader := NewUpgrader()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(r.URL.Query().Get("id"), conn, &logger)
		b.Register(c)
		defer b.Unregister(c)
		c.Serve()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?id=" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestClientReceivesBinaryBatch(t *testing.T) {
	logger := zerolog.Nop()
	b := broadcast.New(broadcast.WithLogger(&logger))
	srv := liveServer(t, b)
	conn := dial(t, srv, "a")

	require.Eventually(t, func() bool { return b.Count() == 1 }, time.Second, 5*time.Millisecond)

	evt := events.New(events.SourceUSGS, events.CategoryEarthquake, "M5.0 quake", time.Now())
	n, err := b.Broadcast(context.Background(), []events.Event{evt})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)

	var got []events.Event
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, evt.ID, got[0].ID)
}

func TestClientUnregistersOnDisconnect(t *testing.T) {
	logger := zerolog.Nop()
	b := broadcast.New(broadcast.WithLogger(&logger))
	srv := liveServer(t, b)
	conn := dial(t, srv, "gone")

	require.Eventually(t, func() bool { return b.Count() == 1 }, time.Second, 5*time.Millisecond)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return b.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPushAfterClose(t *testing.T) {
	logger := zerolog.Nop()
	upgrader := NewUpgrader()
	clients := make(chan *Client, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient("x", conn, &logger)
		clients <- c
		c.Serve()
	}))
	t.Cleanup(srv.Close)
	dial(t, srv, "x")

	c := <-clients
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	select {
	case <-c.Done():
	default:
		t.Fatal("expected Done to be closed")
	}
	assert.ErrorIs(t, c.Push(context.Background(), []byte("[]")), ErrClosed)
}
