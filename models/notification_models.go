package models

import (
	"database/sql"
	"time"
)

// Notification types.
const (
	NotificationTypeReminder = "reminder"
	NotificationTypeEvent    = "event"
	NotificationTypeSystem   = "system"
)

// Delivery methods and statuses.
const (
	DeliveryMethodEmail = "email"
	DeliveryMethodWeb   = "web"
	DeliveryMethodBoth  = "both"

	DeliveryStatusPending = "pending"
	DeliveryStatusSent    = "sent"
	DeliveryStatusFailed  = "failed"
)

// Notification represents a notification in the system
type Notification struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Type           string     `json:"type"` // reminder, event, system
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	IsRead         bool       `json:"is_read"`
	DeliveryMethod string     `json:"delivery_method"`
	DeliveryStatus string     `json:"delivery_status"`
	EventID        *int64     `json:"event_id"` // nulled when the event is deleted
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// NotificationCount represents unread notification count
type NotificationCount struct {
	UnreadCount int `json:"unread_count"`
}

// CreateNotificationRequest represents request to create a notification
type CreateNotificationRequest struct {
	UserID         int64  `json:"user_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	DeliveryMethod string `json:"delivery_method"`
	DeliveryStatus string `json:"delivery_status"`
	EventID        *int64 `json:"event_id"`
}

// NotificationService handles notification operations
type NotificationService struct {
	DB *sql.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *sql.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// CreateNotification creates a new notification
func (ns *NotificationService) CreateNotification(req CreateNotificationRequest) (int64, error) {
	if req.DeliveryMethod == "" {
		req.DeliveryMethod = DeliveryMethodWeb
	}
	if req.DeliveryStatus == "" {
		req.DeliveryStatus = DeliveryStatusPending
	}
	result, err := ns.DB.Exec(`
		INSERT INTO notifications (user_id, type, title, message, delivery_method, delivery_status, event_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, req.UserID, req.Type, req.Title, req.Message, req.DeliveryMethod, req.DeliveryStatus, req.EventID)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetNotifications retrieves notifications for a user, newest first
func (ns *NotificationService) GetNotifications(userID int64, limit int) ([]Notification, error) {
	rows, err := ns.DB.Query(`
		SELECT id, user_id, type, title, message, is_read, delivery_method, delivery_status, event_id, created_at, read_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead,
			&n.DeliveryMethod, &n.DeliveryStatus, &n.EventID, &n.CreatedAt, &n.ReadAt)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// GetUnreadCount returns the count of unread notifications for a user
func (ns *NotificationService) GetUnreadCount(userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`
	var count int
	err := ns.DB.QueryRow(query, userID).Scan(&count)
	return count, err
}

// MarkAsRead marks a specific notification as read
func (ns *NotificationService) MarkAsRead(notificationID, userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE, read_at = ? WHERE id = ? AND user_id = ?`
	_, err := ns.DB.Exec(query, time.Now().UTC(), notificationID, userID)
	return err
}

// MarkAllAsRead marks all notifications as read for a user
func (ns *NotificationService) MarkAllAsRead(userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE, read_at = ? WHERE user_id = ? AND is_read = FALSE`
	_, err := ns.DB.Exec(query, time.Now().UTC(), userID)
	return err
}

// DeleteOldNotifications deletes notifications older than specified days
func (ns *NotificationService) DeleteOldNotifications(days int) error {
	query := `DELETE FROM notifications WHERE created_at < datetime('now', '-' || ? || ' days')`
	_, err := ns.DB.Exec(query, days)
	return err
}
