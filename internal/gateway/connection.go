package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 128
)

// Connection is a single WebSocket client session.
type Connection struct {
	UserID    int64
	SessionID string

	conn    *websocket.Conn
	send    chan []byte
	manager *Manager

	sequence  atomic.Int64
	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(conn *websocket.Conn, manager *Manager) *Connection {
	return &Connection{
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		manager: manager,
		done:    make(chan struct{}),
	}
}

// sendPayload marshals and queues a payload. A full send buffer drops the
// message rather than blocking the dispatching goroutine.
func (c *Connection) sendPayload(p Payload) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Error("gateway: marshal payload", "user_id", c.UserID, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("gateway: send buffer full, dropping message", "user_id", c.UserID)
	}
}

// sendEvent queues a DISPATCH payload with the next sequence number.
func (c *Connection) sendEvent(name string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Error("gateway: marshal event", "event", name, "error", err)
		return
	}
	seq := c.sequence.Add(1)
	c.sendPayload(Payload{Op: OpDispatch, Data: raw, Sequence: &seq, Event: &name})
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Connection) readPump() {
	defer func() {
		c.manager.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("gateway: read", "user_id", c.UserID, "error", err)
			}
			return
		}

		var p Payload
		if err := json.Unmarshal(message, &p); err != nil {
			continue
		}
		if p.Op == OpHeartbeat {
			c.sendPayload(Payload{Op: OpAck})
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
