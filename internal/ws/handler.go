package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// LocalSessionID is the fiber local the upgrade middleware stores the parsed session id under
const LocalSessionID = "ws_session_id"

// Handler upgrades the connection and subscribes it to the session's events.
// Incoming text messages go to onMessage, which may be nil.
func Handler(hub *Hub, onMessage MessageFunc) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		sessionID, ok := c.Locals(LocalSessionID).(uuid.UUID)
		if !ok {
			_ = c.Close()
			return
		}

		client := newClient(hub, c, sessionID, onMessage)
		if !hub.join(client) {
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// SessionLookup reports whether a session is live
type SessionLookup func(id uuid.UUID) bool

// UpgradeMiddleware rejects non-upgrade requests and unknown sessions before the handshake
func UpgradeMiddleware(exists SessionLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
		}
		if exists != nil && !exists(id) {
			return fiber.ErrNotFound
		}

		c.Locals(LocalSessionID, id)
		return c.Next()
	}
}
