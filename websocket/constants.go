// websocket/constants.go
package websocket

import (
	"time"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send small control messages
	maxMessageSize = 4 * 1024

	// Buffered notifications per client
	sendBuffer = 16

	// Buffered notifications waiting for the hub loop
	broadcastBuffer = 64
)

// Notification types
const (
	TypeProcessed = "processed"
	TypeFailed    = "failed"
	TypeState     = "state"
	TypePing      = "ping"
	TypePong      = "pong"
)
