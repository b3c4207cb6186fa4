package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// wsChannel serializes writes to one websocket connection.
type wsChannel struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

func newWSChannel(ws *websocket.Conn, writeTimeout time.Duration) *wsChannel {
	return &wsChannel{ws: ws, writeTimeout: writeTimeout}
}

func (c *wsChannel) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func (c *wsChannel) Deliver(ctx context.Context, payload any) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return err
	}
	return c.ws.WriteJSON(payload)
}

func (c *wsChannel) ping() error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// closeWith sends a close frame carrying code and reason, then drops the connection.
func (c *wsChannel) closeWith(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.mu.Lock()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(c.writeTimeout),
		)
		c.mu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *wsChannel) Close() error {
	return c.closeWith(websocket.CloseGoingAway, "server shutting down")
}
