// websocket/read_pump.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// readPump answers client pings and detects disconnection
func (c *Client) readPump(manager *Manager) {
	defer func() {
		select {
		case manager.Unregister <- c:
		case <-manager.done:
		}
		c.Socket.Close()
	}()

	c.Socket.SetReadLimit(maxMessageSize)
	c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	pong, _ := json.Marshal(Notification{Type: TypePong})

	for {
		_, message, err := c.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				manager.logger.Warn("client %d: %v", c.ID, err)
			}
			return
		}

		var msg Notification
		if err := json.Unmarshal(message, &msg); err != nil {
			manager.logger.Debug("client %d sent an undecodable message: %v", c.ID, err)
			continue
		}

		if msg.Type == TypePing {
			select {
			case manager.replies <- reply{client: c, message: pong}:
			case <-manager.done:
				return
			}
		}
	}
}
