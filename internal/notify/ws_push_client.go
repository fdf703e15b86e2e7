package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSPushConfig configures WSPushClient behavior.
type WSPushConfig struct {
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// AckTimeout is how long to wait for the gateway to acknowledge a push.
	AckTimeout time.Duration
}

// DefaultWSPushConfig returns default push gateway configuration.
func DefaultWSPushConfig() WSPushConfig {
	return WSPushConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		AckTimeout:       10 * time.Second,
	}
}

// pushFrame is sent to the gateway for every push.
type pushFrame struct {
	Type   string `json:"type"`
	ID     uint64 `json:"id"`
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// ackFrame is the gateway's reply to a pushFrame.
type ackFrame struct {
	ID    uint64 `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// WSPushClient implements PushSender over a persistent WebSocket connection
// to a push gateway. Pushes are serialized: each frame waits for its ack.
// A broken connection is dropped and redialed on the next push.
type WSPushClient struct {
	endpoint string
	config   WSPushConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64
}

// Compile-time interface check.
var _ PushSender = (*WSPushClient)(nil)

// NewWSPushClient creates a push gateway client. The connection is dialed
// lazily on the first push.
func NewWSPushClient(endpoint string, config *WSPushConfig) *WSPushClient {
	cfg := DefaultWSPushConfig()
	if config != nil {
		cfg = *config
	}
	return &WSPushClient{endpoint: endpoint, config: cfg}
}

// SendPush sends one push frame and waits for the gateway's ack.
func (c *WSPushClient) SendPush(ctx context.Context, userID, title, body string) error {
	if c.closed.Load() {
		return errors.New("push client closed")
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			return err
		}
	}

	frame := pushFrame{
		Type:   "push",
		ID:     c.requestID.Add(1),
		UserID: userID,
		Title:  title,
		Body:   body,
	}

	c.conn.SetWriteDeadline(c.deadline(ctx, c.config.WriteTimeout))
	if err := c.conn.WriteJSON(frame); err != nil {
		c.dropLocked()
		return fmt.Errorf("write push: %w", err)
	}

	c.conn.SetReadDeadline(c.deadline(ctx, c.config.AckTimeout))
	for {
		var ack ackFrame
		if err := c.conn.ReadJSON(&ack); err != nil {
			c.dropLocked()
			return fmt.Errorf("read push ack: %w", err)
		}
		// Stale acks from an earlier timed-out push are skipped.
		if ack.ID != frame.ID {
			continue
		}
		if !ack.OK {
			return fmt.Errorf("push rejected: %s", ack.Error)
		}
		return nil
	}
}

// Close closes the WebSocket connection.
func (c *WSPushClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// connect establishes WebSocket connection. Caller holds connMu.
func (c *WSPushClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// dropLocked discards a broken connection. Caller holds connMu.
func (c *WSPushClient) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// deadline returns the earlier of now+timeout and the context deadline.
func (c *WSPushClient) deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
