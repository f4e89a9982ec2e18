package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"synchsphere-backend/database"
	"synchsphere-backend/middleware"
	"synchsphere-backend/models"
)

// GetNotificationsHandler retrieves notifications for the authenticated user
func GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notificationService := models.NewNotificationService(database.DB)

	// Get limit from query params (default 20)
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	notifications, err := notificationService.GetNotifications(userID, limit)
	if err != nil {
		log.Printf("Error fetching notifications for user %d: %v", userID, err)
		http.Error(w, "Failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

// GetUnreadCountHandler returns the count of unread notifications, served
// from the short-lived per-user cache.
func GetUnreadCountHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		count, err := profiles.GetUnreadCount(userID)
		if err != nil {
			log.Printf("Error fetching unread count for user %d: %v", userID, err)
			http.Error(w, "Failed to fetch unread count", http.StatusInternalServerError)
			return
		}

		response := models.NotificationCount{UnreadCount: count}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// MarkNotificationAsReadHandler marks a specific notification as read
func MarkNotificationAsReadHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		notificationID, err := strconv.ParseInt(r.PathValue("notificationID"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid notification ID", http.StatusBadRequest)
			return
		}

		notificationService := models.NewNotificationService(database.DB)
		if err := notificationService.MarkAsRead(notificationID, userID); err != nil {
			log.Printf("Error marking notification %d as read: %v", notificationID, err)
			http.Error(w, "Failed to mark notification as read", http.StatusInternalServerError)
			return
		}

		// Read-state changed; evict the cached count before pushing the update.
		profiles.Invalidate(userID)
		broadcastUnreadCount(profiles, userID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}
}

// MarkAllNotificationsAsReadHandler marks all notifications as read for the user
func MarkAllNotificationsAsReadHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		notificationService := models.NewNotificationService(database.DB)
		if err := notificationService.MarkAllAsRead(userID); err != nil {
			log.Printf("Error marking all notifications as read for user %d: %v", userID, err)
			http.Error(w, "Failed to mark all notifications as read", http.StatusInternalServerError)
			return
		}

		profiles.Invalidate(userID)
		broadcastUnreadCount(profiles, userID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}
}
