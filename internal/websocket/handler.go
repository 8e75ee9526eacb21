package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection with the hub and blocks until the peer
// goes away.
func ServeWs(hub *Hub, c *websocket.Conn, ownerId string, sessionId string) {
	client := &Client{
		Hub:       hub,
		Conn:      c,
		OwnerId:   ownerId,
		SessionId: sessionId,
		Send:      make(chan []byte, sendBuffer),
	}
	if !hub.Register(client) {
		_ = c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
