package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/relay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Send failure kinds. Either one tells the relay to drop the connection.
var (
	ErrQueueFull = errors.New("send queue full")
	ErrClosed    = errors.New("connection closed")
)

// Client adapts one websocket connection to the relay's Connection
// contract. Pushes are buffered in a bounded queue so a slow reader never
// stalls dispatch; when the queue overflows the connection is dropped.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan relay.Envelope
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// NewClient wraps a websocket connection with a bounded send queue.
func NewClient(conn *websocket.Conn, buffer int, logger *zap.Logger) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan relay.Envelope, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// ID returns the connection identifier used by the registry.
func (c *Client) ID() string {
	return c.id
}

// Send enqueues an envelope without blocking. ErrQueueFull means the
// subscriber cannot keep up and should be disconnected.
func (c *Client) Send(env relay.Envelope) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- env:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// WritePump drains the send queue onto the wire and keeps the connection
// alive with pings. Runs until Close is called or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case env := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Debug("websocket write failed", zap.String("connection_id", c.id), zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
