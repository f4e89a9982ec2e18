package realtime

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// WSMessage is the JSON envelope used on the per-user WebSocket channel.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Store active WebSocket connections per user
var (
	activeConnections = make(map[int64]*websocket.Conn)
	connectionsMutex  sync.RWMutex
)

// RegisterConnection stores the user's active socket, replacing any
// previous one.
func RegisterConnection(userID int64, conn *websocket.Conn) {
	connectionsMutex.Lock()
	activeConnections[userID] = conn
	connectionsMutex.Unlock()
}

// UnregisterConnection drops the user's socket if conn is still the
// registered one.
func UnregisterConnection(userID int64, conn *websocket.Conn) {
	connectionsMutex.Lock()
	if activeConnections[userID] == conn {
		delete(activeConnections, userID)
	}
	connectionsMutex.Unlock()
}

// BroadcastToUser sends a message to a specific user's socket, if any.
// Dead connections are evicted on write failure.
func BroadcastToUser(userID int64, msgType string, data interface{}) {
	connectionsMutex.RLock()
	conn, exists := activeConnections[userID]
	connectionsMutex.RUnlock()

	if !exists {
		return
	}

	msg := WSMessage{Type: msgType, Data: data}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error broadcasting to user %d: %v", userID, err)
		connectionsMutex.Lock()
		if activeConnections[userID] == conn {
			delete(activeConnections, userID)
		}
		connectionsMutex.Unlock()
	}
}

// IsUserOnline reports whether the user has an active socket.
func IsUserOnline(userID int64) bool {
	connectionsMutex.RLock()
	defer connectionsMutex.RUnlock()
	_, exists := activeConnections[userID]
	return exists
}

// OnlineUsersCount returns the number of connected sockets.
func OnlineUsersCount() int {
	connectionsMutex.RLock()
	defer connectionsMutex.RUnlock()
	return len(activeConnections)
}
