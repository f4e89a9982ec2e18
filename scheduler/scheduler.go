package scheduler

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"synchsphere-backend/models"
	"synchsphere-backend/realtime"
)

// Scheduler sweeps due reminders into notifications and pushes them to
// connected clients.
type Scheduler struct {
	reminders     *models.ReminderService
	notifications *models.NotificationService
	profiles      *models.ProfileService
	bus           *realtime.Bus
	cron          *cron.Cron
}

func New(db *sql.DB, profiles *models.ProfileService, bus *realtime.Bus) *Scheduler {
	return &Scheduler{
		reminders:     models.NewReminderService(db),
		notifications: models.NewNotificationService(db),
		profiles:      profiles,
		bus:           bus,
		cron:          cron.New(),
	}
}

// Start runs one sweep immediately and then every minute until Stop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("Reminder scheduler started")
	go s.Sweep()
	return nil
}

// Stop halts the periodic sweep; a sweep in flight finishes.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Reminder scheduler stopped")
}

// Sweep fires every due, unsent reminder. Failures are per-reminder: one
// bad row is logged and skipped, the rest of the batch still goes out.
func (s *Scheduler) Sweep() {
	due, err := s.reminders.GetDue(time.Now())
	if err != nil {
		log.Printf("Failed to load due reminders: %v", err)
		return
	}

	for _, reminder := range due {
		if err := s.fire(reminder); err != nil {
			log.Printf("Failed to fire reminder %d for user %d: %v", reminder.ID, reminder.UserID, err)
		}
	}
}

func (s *Scheduler) fire(reminder models.Reminder) error {
	profile, err := s.profiles.GetProfile(reminder.UserID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	message := reminder.Title
	if reminder.Description != "" {
		message += ": " + reminder.Description
	}

	notificationID, err := s.notifications.CreateNotification(models.CreateNotificationRequest{
		UserID:         reminder.UserID,
		Type:           models.NotificationTypeReminder,
		Title:          "Reminder: " + reminder.Title,
		Message:        message,
		DeliveryMethod: deliveryMethodFor(profile),
		DeliveryStatus: models.DeliveryStatusSent,
		EventID:        reminder.EventID,
	})
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if err := s.reminders.MarkSent(reminder.ID); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}

	// The unread count changed; drop the cached value before pushing.
	s.profiles.Invalidate(reminder.UserID)

	realtime.BroadcastToUser(reminder.UserID, "notification", map[string]interface{}{
		"id":      notificationID,
		"type":    models.NotificationTypeReminder,
		"title":   "Reminder: " + reminder.Title,
		"message": message,
	})
	if count, err := s.profiles.GetUnreadCount(reminder.UserID); err == nil {
		realtime.BroadcastToUser(reminder.UserID, "notification_count_update", map[string]interface{}{
			"unread_count": count,
		})
	}
	s.bus.Publish("reminder", reminder.Title)

	log.Printf("Fired reminder %d for user %d", reminder.ID, reminder.UserID)
	return nil
}

func deliveryMethodFor(profile models.UserProfile) string {
	switch {
	case profile.EmailNotifications && profile.WebNotifications:
		return models.DeliveryMethodBoth
	case profile.EmailNotifications:
		return models.DeliveryMethodEmail
	default:
		return models.DeliveryMethodWeb
	}
}
