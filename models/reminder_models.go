package models

import (
	"database/sql"
	"time"
)

// Reminder is a scheduled nudge, optionally linked to an event. The
// reminder time is stored in UTC like every other instant.
type Reminder struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	EventID      *int64     `json:"event_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ReminderTime time.Time  `json:"reminder_time"`
	IsSent       bool       `json:"is_sent"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ReminderService handles reminder persistence.
type ReminderService struct {
	DB *sql.DB
}

func NewReminderService(db *sql.DB) *ReminderService {
	return &ReminderService{DB: db}
}

// Create inserts a reminder and returns its id.
func (rs *ReminderService) Create(r Reminder) (int64, error) {
	result, err := rs.DB.Exec(`
		INSERT INTO reminders (user_id, event_id, title, description, reminder_time)
		VALUES (?, ?, ?, ?, ?)
	`, r.UserID, r.EventID, r.Title, r.Description, r.ReminderTime.UTC())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// List returns the user's reminders ascending by reminder time.
func (rs *ReminderService) List(userID int64) ([]Reminder, error) {
	rows, err := rs.DB.Query(`
		SELECT id, user_id, event_id, title, description, reminder_time, is_sent, sent_at, created_at
		FROM reminders WHERE user_id = ? ORDER BY reminder_time ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		err := rows.Scan(&r.ID, &r.UserID, &r.EventID, &r.Title, &r.Description,
			&r.ReminderTime, &r.IsSent, &r.SentAt, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		r.ReminderTime = r.ReminderTime.UTC()
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// Delete removes an owned reminder.
func (rs *ReminderService) Delete(reminderID, userID int64) error {
	_, err := rs.DB.Exec(`DELETE FROM reminders WHERE id = ? AND user_id = ?`, reminderID, userID)
	return err
}

// GetDue returns unsent reminders whose time has passed.
func (rs *ReminderService) GetDue(now time.Time) ([]Reminder, error) {
	rows, err := rs.DB.Query(`
		SELECT id, user_id, event_id, title, description, reminder_time, is_sent, sent_at, created_at
		FROM reminders WHERE is_sent = FALSE AND reminder_time <= ?
		ORDER BY reminder_time ASC
	`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		err := rows.Scan(&r.ID, &r.UserID, &r.EventID, &r.Title, &r.Description,
			&r.ReminderTime, &r.IsSent, &r.SentAt, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		r.ReminderTime = r.ReminderTime.UTC()
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkSent flags a reminder as delivered.
func (rs *ReminderService) MarkSent(reminderID int64) error {
	_, err := rs.DB.Exec(`UPDATE reminders SET is_sent = TRUE, sent_at = ? WHERE id = ?`, time.Now().UTC(), reminderID)
	return err
}
