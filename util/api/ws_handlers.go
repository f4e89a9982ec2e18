package api

import (
	"log"
	"net/http"

	"synchsphere-backend/middleware"
	"synchsphere-backend/models"
	"synchsphere-backend/realtime"
	"synchsphere-backend/util"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev (restrict in production)
	},
}

// WebSocketHandler delivers per-user notification pushes. Clients can pass
// the session token as a query parameter since browsers cannot set headers
// on WebSocket upgrades.
func WebSocketHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := int64(0)
		if token := r.URL.Query().Get("token"); token != "" {
			userID = util.GetUserIDFromSession(token)
		}
		if userID == 0 {
			if ctxID, ok := r.Context().Value(middleware.UserIDKey).(int64); ok {
				userID = ctxID
			}
		}
		if userID == 0 {
			if cookieID, err := util.GetUserIDFromRequest(r); err == nil {
				userID = cookieID
			}
		}
		if userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for user %d: %v", userID, err)
			return
		}
		defer conn.Close()

		realtime.RegisterConnection(userID, conn)
		defer realtime.UnregisterConnection(userID, conn)

		welcome := realtime.WSMessage{Type: "connected", Data: map[string]interface{}{"user_id": userID}}
		if err := conn.WriteJSON(welcome); err != nil {
			log.Printf("Error sending welcome to user %d: %v", userID, err)
			return
		}

		// Seed the client with the current unread count so badges render
		// without an extra fetch.
		if count, err := profiles.GetUnreadCount(userID); err == nil {
			conn.WriteJSON(realtime.WSMessage{
				Type: "notification_count_update",
				Data: map[string]interface{}{"unread_count": count},
			})
		}

		for {
			var msg realtime.WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("WebSocket error for user %d: %v", userID, err)
				}
				break
			}
			if msg.Type == "ping" {
				conn.WriteJSON(realtime.WSMessage{Type: "pong"})
			}
		}
	}
}
