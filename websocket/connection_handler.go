// websocket/connection_handler.go
package websocket

import (
	"encoding/json"
	"net/http"
)

// HandleConnections upgrades the request and attaches the client to the hub
func (manager *Manager) HandleConnections(w http.ResponseWriter, r *http.Request) {
	// 1. Upgrade
	conn, err := manager.upgrader.Upgrade(w, r, nil)
	if err != nil {
		manager.logger.Warn("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	client := &Client{
		ID:     manager.nextID.Add(1),
		Socket: conn,
		Send:   make(chan []byte, sendBuffer),
	}

	// 2. Queue the current state so a fresh dashboard does not wait for the next run
	if manager.latest != nil {
		if out := manager.latest(); out != nil {
			state := NewNotification(out)
			state.Type = TypeState
			if data, err := json.Marshal(state); err == nil {
				client.Send <- data
			}
		}
	}

	// 3. Register and start the pumps
	select {
	case manager.Register <- client:
	case <-manager.done:
		conn.Close()
		return
	}
	manager.logger.Debug("client %d connected from %s", client.ID, r.RemoteAddr)

	go client.readPump(manager)
	go client.writePump()
}
