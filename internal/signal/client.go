package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/awesomecuber/tron/internal/telemetry"
)

const dialTimeout = 10 * time.Second

// ErrRoomFull reports that the relay refused the join because the room
// already holds two peers.
var ErrRoomFull = errors.New("signal: room full")

// client owns the websocket to the relay. A reader goroutine decodes
// arrivals into a buffer drained by poll.
type client struct {
	conn   *websocket.Conn
	logger telemetry.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	inbox  []Message
	err    error
	closed bool
}

func dialRoom(serverURL, room string, logger telemetry.Logger) (*client, error) {
	target, err := roomURL(serverURL, room)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.Dial(target, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	c := &client{conn: conn, logger: logger}
	go c.readLoop()
	return c, nil
}

func (c *client) readLoop() {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if !c.closed && c.err == nil {
				c.err = mapReadError(err)
			}
			c.mu.Unlock()
			return
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Printf("discarding malformed signaling message: %v", err)
			continue
		}

		c.mu.Lock()
		c.inbox = append(c.inbox, msg)
		c.mu.Unlock()
	}
}

// poll drains buffered messages. Messages received before a connection
// failure are still delivered, alongside the error.
func (c *client) poll() ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.inbox
	c.inbox = nil
	return msgs, c.err
}

func (c *client) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func mapReadError(err error) error {
	if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		return ErrRoomFull
	}
	return fmt.Errorf("signaling connection closed: %w", err)
}
