// websocket/types.go
package websocket

import (
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// Notification is pushed to every dashboard after a run is delivered
type Notification struct {
	Type         string `json:"type"`
	RunID        string `json:"runId,omitempty"`
	Records      int    `json:"records"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// reply is a message addressed to a single client
type reply struct {
	client  *Client
	message []byte
}

// Client is one connected dashboard. Send is written and closed by the hub only.
type Client struct {
	ID     uint64
	Socket *websocket.Conn
	Send   chan []byte
}

// Manager fans notifications out to the connected clients
type Manager struct {
	clients    map[uint64]*Client
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	replies    chan reply
	done       chan struct{}

	latest    func() *models.ProcessedData
	logger    *utils.ETLLogger
	nextID    atomic.Uint64
	connected atomic.Int64
	upgrader  websocket.Upgrader
}

func newUpgrader(checkOrigin func(r *http.Request) bool) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}
}
