// websocket/manager.go
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// NewManager creates a hub. latest, when not nil, supplies the state sent to
// newly connected clients.
func NewManager(latest func() *models.ProcessedData, logger *utils.ETLLogger) *Manager {
	if logger == nil {
		logger = utils.NewTestLogger()
	}
	return &Manager{
		clients:    make(map[uint64]*Client),
		Broadcast:  make(chan []byte, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		replies:    make(chan reply, broadcastBuffer),
		done:       make(chan struct{}),
		latest:     latest,
		logger:     logger.With("component", "websocket"),
		upgrader:   newUpgrader(func(r *http.Request) bool { return true }),
	}
}

// SetCheckOrigin replaces the origin check of the upgrader
func (manager *Manager) SetCheckOrigin(check func(r *http.Request) bool) {
	manager.upgrader.CheckOrigin = check
}

// Run serves the hub until ctx is done, then disconnects every client.
// Run must be called at most once.
func (manager *Manager) Run(ctx context.Context) {
	defer close(manager.done)
	for {
		select {
		case client := <-manager.Register:
			manager.clients[client.ID] = client
			manager.connected.Add(1)

		case client := <-manager.Unregister:
			manager.remove(client)

		case message := <-manager.Broadcast:
			manager.broadcast(message)

		case r := <-manager.replies:
			manager.send(r)

		case <-ctx.Done():
			for _, client := range manager.clients {
				manager.remove(client)
			}
			return
		}
	}
}

func (manager *Manager) remove(client *Client) {
	if _, ok := manager.clients[client.ID]; !ok {
		return
	}
	delete(manager.clients, client.ID)
	close(client.Send)
	manager.connected.Add(-1)
	manager.logger.Debug("client %d disconnected", client.ID)
}

// broadcast sends message to every client, dropping clients that fall behind
func (manager *Manager) broadcast(message []byte) {
	for _, client := range manager.clients {
		select {
		case client.Send <- message:
		default:
			manager.remove(client)
		}
	}
}

// send delivers a reply if its client is still connected. A full queue drops it.
func (manager *Manager) send(r reply) {
	if _, ok := manager.clients[r.client.ID]; !ok {
		return
	}
	select {
	case r.client.Send <- r.message:
	default:
	}
}

// Clients returns the number of connected clients
func (manager *Manager) Clients() int {
	return int(manager.connected.Load())
}

// NewNotification describes a delivered run
func NewNotification(out *models.ProcessedData) Notification {
	n := Notification{
		Type:    TypeProcessed,
		RunID:   out.RunID,
		Records: len(out.CombinedData),
	}
	if out.Failed() {
		n.Type = TypeFailed
		n.ErrorMessage = out.ErrorMessage
	}
	return n
}

// Notify queues the notification of out without blocking. Notifications are
// dropped when the hub is saturated.
func (manager *Manager) Notify(out *models.ProcessedData) {
	if out == nil {
		return
	}
	data, err := json.Marshal(NewNotification(out))
	if err != nil {
		manager.logger.Error("encoding notification: %v", err)
		return
	}

	select {
	case manager.Broadcast <- data:
	default:
		manager.logger.Warn("notification of run %s dropped, hub is saturated", out.RunID)
	}
}

// AllowOrigins returns an origin check accepting the listed origins. "*" or an
// empty list accepts every origin, and requests without an Origin header pass.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
}
