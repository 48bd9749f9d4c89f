// Package websocket serves the live event channel over WebSocket. Each
// connection is a broadcast.Subscriber: every push is written as one binary
// message holding a JSON array of events.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/osiris/internal/broadcast"
	"github.com/agentstation/osiris/pkg/errors"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// ErrClosed is returned by Push after the connection has closed.
var ErrClosed = errors.New("websocket closed")

var _ broadcast.Subscriber = (*Client)(nil)

// NewUpgrader returns an upgrader that accepts any origin. Origin policy is
// left to the CORS and auth middleware.
func NewUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
}

// Client is one live WebSocket connection.
type Client struct {
	id     string
	conn   *websocket.Conn
	logger *zerolog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded connection.
func NewClient(id string, conn *websocket.Conn, logger *zerolog.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// ID implements broadcast.Subscriber.
func (c *Client) ID() string { return c.id }

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Push implements broadcast.Subscriber.
func (c *Client) Push(ctx context.Context, payload []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	return c.write(ctx, websocket.BinaryMessage, payload)
}

func (c *Client) write(ctx context.Context, kind int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(kind, payload)
}

// Close implements broadcast.Subscriber. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// Serve keeps the connection alive until the peer goes away or Close is
// called. Inbound messages are discarded; the channel is push-only.
func (c *Client) Serve() {
	go c.pingLoop()
	c.readLoop()
	_ = c.Close()
}

func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Str("client_id", c.id).Msg("WebSocket read error")
			}
			return
		}
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.write(context.Background(), websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
