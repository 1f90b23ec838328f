package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/cyphexlabs/cyphex_backend/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades an already-authenticated request and registers
// the connection with the hub until the peer goes away.
func HandleWebSocket(c echo.Context, hub *Hub, user *models.User) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:  user.ID,
		IsStaff: user.IsStaff,
		Conn:    conn,
	}

	hub.register <- client

	conn.WriteJSON(Notification{
		Type:    "connected",
		Message: "WebSocket connection established",
		UserID:  user.ID.Hex(),
	})

	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			// Inbound frames are ignored; the feed is push-only.
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	return nil
}
