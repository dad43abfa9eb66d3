package websocket

import (
	"encoding/json"
	"time"

	"github.com/codehive/coderoom_backend/auth"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 65536
)

// Client represents a connected websocket client
type Client struct {
	id       string
	session  *Session
	conn     *websocket.Conn
	send     chan []byte
	identity auth.Identity
}

// readPump pumps messages from the websocket connection to the session
// core. Events from a single connection are handled in the order they
// were issued.
func (c *Client) readPump() {
	defer func() {
		c.session.handleDisconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.session.log.WithError(err).WithField("connection_id", c.id).Warn("websocket read error")
			}
			break
		}

		c.session.HandleEvent(c, message)
	}
}

// writePump pumps messages from the send queue to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The session closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queueEvent serializes an event and queues it for delivery to this
// client only. Drops the event if the send queue is full.
func (c *Client) queueEvent(event string, payload interface{}) {
	msg := ServerEvent{
		Type:    event,
		Payload: payload,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		c.session.log.WithError(err).Error("error marshaling event")
		return
	}

	select {
	case c.send <- msgBytes:
	default:
	}
}
