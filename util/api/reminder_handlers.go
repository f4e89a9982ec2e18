package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"synchsphere-backend/database"
	"synchsphere-backend/middleware"
	"synchsphere-backend/models"
	"synchsphere-backend/util"
)

// ReminderRequest is the reminder write payload; reminder_time follows the
// same normalization rule as event times.
type ReminderRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ReminderTime string `json:"reminder_time"`
	EventID      *int64 `json:"event_id"`
	ClientTZ     string `json:"client_tz"`
}

// ReminderResponse serializes reminder instants as UTC ISO strings.
type ReminderResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ReminderTime string `json:"reminder_time"`
	EventID      *int64 `json:"event_id"`
	IsSent       bool   `json:"is_sent"`
}

// ListRemindersHandler returns the user's reminders ascending by time.
func ListRemindersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reminderService := models.NewReminderService(database.DB)
	reminders, err := reminderService.List(userID)
	if err != nil {
		log.Printf("Error listing reminders for user %d: %v", userID, err)
		http.Error(w, "Failed to fetch reminders", http.StatusInternalServerError)
		return
	}

	response := make([]ReminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		response = append(response, ReminderResponse{
			ID:           rem.ID,
			Title:        rem.Title,
			Description:  rem.Description,
			ReminderTime: rem.ReminderTime.UTC().Format(time.RFC3339),
			EventID:      rem.EventID,
			IsSent:       rem.IsSent,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CreateReminderHandler normalizes the reminder time to UTC and stores it.
func CreateReminderHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req ReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeFieldErrors(w, map[string]string{"title": "Title is required"})
			return
		}

		tzName := req.ClientTZ
		treatAsLocal := req.ClientTZ != ""
		if tzName == "" {
			profile, err := profiles.GetProfile(userID)
			if err != nil {
				log.Printf("Error loading profile for user %d: %v", userID, err)
				http.Error(w, "Failed to load profile", http.StatusInternalServerError)
				return
			}
			tzName = profile.Timezone
		}

		dt, err := util.ParseDateTime(req.ReminderTime)
		if err != nil {
			writeFieldErrors(w, map[string]string{"reminder_time": "Enter a valid date/time"})
			return
		}
		reminderTime, err := util.ToUTC(dt, tzName, treatAsLocal)
		if err != nil {
			if errors.Is(err, util.ErrUnknownZone) {
				writeFieldErrors(w, map[string]string{"client_tz": "Unknown timezone: " + tzName})
				return
			}
			log.Printf("Error normalizing reminder time for user %d: %v", userID, err)
			http.Error(w, "Failed to process reminder time", http.StatusInternalServerError)
			return
		}

		reminderService := models.NewReminderService(database.DB)
		reminderID, err := reminderService.Create(models.Reminder{
			UserID:       userID,
			EventID:      req.EventID,
			Title:        req.Title,
			Description:  req.Description,
			ReminderTime: reminderTime,
		})
		if err != nil {
			log.Printf("Error creating reminder for user %d: %v", userID, err)
			http.Error(w, "Failed to create reminder", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "id": reminderID})
	}
}

// DeleteReminderHandler removes an owned reminder.
func DeleteReminderHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reminderID, err := strconv.ParseInt(r.PathValue("reminderID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid reminder ID", http.StatusBadRequest)
		return
	}

	reminderService := models.NewReminderService(database.DB)
	if err := reminderService.Delete(reminderID, userID); err != nil {
		log.Printf("Error deleting reminder %d: %v", reminderID, err)
		http.Error(w, "Failed to delete reminder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}
