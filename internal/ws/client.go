package ws

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// conn is the part of *websocket.Conn the pumps use
type conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// MessageFunc handles one text message from the browser. A non-nil reply is
// written back on the same socket.
type MessageFunc func(sessionID uuid.UUID, message []byte) (reply []byte)

type Client struct {
	hub       *Hub
	conn      conn
	sessionID uuid.UUID
	send      chan []byte
	onMessage MessageFunc
}

func newClient(hub *Hub, c conn, sessionID uuid.UUID, onMessage MessageFunc) *Client {
	return &Client{
		hub:       hub,
		conn:      c,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
		onMessage: onMessage,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage || c.onMessage == nil {
			continue
		}
		if reply := c.onMessage(c.sessionID, message); reply != nil {
			// the hub owns close(send); go through it so ordering with events holds
			c.hub.direct(c, reply)
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
