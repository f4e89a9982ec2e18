package api

import (
	"database/sql"
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
	"synchsphere-backend/realtime"
	"synchsphere-backend/util"
)

// EventRequest is the write-path payload. Start and end arrive as local
// datetime strings; client_tz, when present, forces reinterpretation of the
// raw clock digits in that zone.
type EventRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	ClientTZ       string `json:"client_tz"`
	InvitationLink string `json:"invitation_link"`
}

// GetTimezonesHandler returns the selectable timezone list for settings and
// calendar dropdowns.
func GetTimezonesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(util.TimezoneChoices)
}

// ListEventsHandler returns the user's events. With a tz query parameter
// the instants are projected into that zone; without one they are serialized
// as explicit UTC and the client localizes.
func ListEventsHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var rangeStart, rangeEnd *time.Time
		if s, e := r.URL.Query().Get("start"), r.URL.Query().Get("end"); s != "" && e != "" {
			startDt, err1 := parseInstantParam(s)
			endDt, err2 := parseInstantParam(e)
			if err1 == nil && err2 == nil {
				rangeStart, rangeEnd = &startDt, &endDt
			}
			// A malformed range is ignored and the full list returned,
			// the same as the calendar widget's legacy behavior.
		}

		eventService := models.NewEventService(database.DB)
		events, err := eventService.List(userID, rangeStart, rangeEnd)
		if err != nil {
			log.Printf("Error listing events for user %d: %v", userID, err)
			http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
			return
		}

		zone := "UTC"
		mode := models.ProjectionUTC
		if tz := r.URL.Query().Get("tz"); tz != "" {
			zone = tz
			mode = models.ProjectionLocal
		}

		projected, err := models.ProjectEvents(events, zone, mode)
		if err != nil {
			if errors.Is(err, util.ErrUnknownZone) {
				http.Error(w, "Unknown timezone: "+zone, http.StatusBadRequest)
				return
			}
			log.Printf("Error projecting events for user %d: %v", userID, err)
			http.Error(w, "Failed to project events", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(projected)
	}
}

// CreateEventHandler normalizes the submitted local times to UTC and stores
// the event.
func CreateEventHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeFieldErrors(w, map[string]string{"title": "Title is required"})
			return
		}

		start, end, fieldErrs, err := normalizeEventTimes(profiles, userID, req)
		if err != nil {
			log.Printf("Error normalizing event times for user %d: %v", userID, err)
			http.Error(w, "Failed to process event times", http.StatusInternalServerError)
			return
		}
		if fieldErrs != nil {
			writeFieldErrors(w, fieldErrs)
			return
		}

		eventService := models.NewEventService(database.DB)
		eventID, err := eventService.Create(models.Event{
			UserID:         userID,
			Title:          req.Title,
			Description:    req.Description,
			Location:       req.Location,
			StartTime:      start,
			EndTime:        end,
			InvitationLink: req.InvitationLink,
		})
		if err != nil {
			log.Printf("Error creating event for user %d: %v", userID, err)
			http.Error(w, "Failed to create event", http.StatusInternalServerError)
			return
		}

		profiles.Invalidate(userID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "id": eventID})
	}
}

// GetEventHandler returns one event with its full description, serialized
// as UTC instants.
func GetEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	eventID, err := strconv.ParseInt(r.PathValue("eventID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	eventService := models.NewEventService(database.DB)
	event, err := eventService.GetByID(eventID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Event not found", http.StatusNotFound)
		} else {
			log.Printf("Error loading event %d: %v", eventID, err)
			http.Error(w, "Failed to fetch event", http.StatusInternalServerError)
		}
		return
	}

	projected, err := models.ProjectEventDetail(event, "UTC", models.ProjectionUTC)
	if err != nil {
		log.Printf("Error projecting event %d: %v", eventID, err)
		http.Error(w, "Failed to project event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projected)
}

// UpdateEventHandler re-normalizes both endpoints with the same client_tz
// rule as creation.
func UpdateEventHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		eventID, err := strconv.ParseInt(r.PathValue("eventID"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid event ID", http.StatusBadRequest)
			return
		}

		eventService := models.NewEventService(database.DB)
		event, err := eventService.GetByID(eventID, userID)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Event not found", http.StatusNotFound)
			} else {
				log.Printf("Error loading event %d: %v", eventID, err)
				http.Error(w, "Failed to fetch event", http.StatusInternalServerError)
			}
			return
		}

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeFieldErrors(w, map[string]string{"title": "Title is required"})
			return
		}

		start, end, fieldErrs, err := normalizeEventTimes(profiles, userID, req)
		if err != nil {
			log.Printf("Error normalizing event times for user %d: %v", userID, err)
			http.Error(w, "Failed to process event times", http.StatusInternalServerError)
			return
		}
		if fieldErrs != nil {
			writeFieldErrors(w, fieldErrs)
			return
		}

		event.Title = req.Title
		event.Description = req.Description
		event.Location = req.Location
		event.StartTime = start
		event.EndTime = end
		if req.InvitationLink != "" {
			event.InvitationLink = req.InvitationLink
		}

		if err := eventService.Update(event); err != nil {
			log.Printf("Error updating event %d: %v", eventID, err)
			http.Error(w, "Failed to update event", http.StatusInternalServerError)
			return
		}

		profiles.Invalidate(userID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}
}

// DeleteEventHandler removes an owned event immediately.
func DeleteEventHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		eventID, err := strconv.ParseInt(r.PathValue("eventID"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid event ID", http.StatusBadRequest)
			return
		}

		eventService := models.NewEventService(database.DB)
		if err := eventService.Delete(eventID, userID); err != nil {
			log.Printf("Error deleting event %d: %v", eventID, err)
			http.Error(w, "Failed to delete event", http.StatusInternalServerError)
			return
		}

		profiles.Invalidate(userID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}
}

// JoinEventHandler copies an invited event into the caller's calendar and
// records an event notification.
func JoinEventHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req struct {
			EventToken string `json:"event_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.EventToken == "" {
			http.Error(w, "Event token is required", http.StatusBadRequest)
			return
		}

		eventService := models.NewEventService(database.DB)
		original, err := eventService.FindByInvitationToken(req.EventToken)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Event not found or link is invalid", http.StatusNotFound)
			} else {
				log.Printf("Error looking up invitation token: %v", err)
				http.Error(w, "Failed to look up event", http.StatusInternalServerError)
			}
			return
		}

		if original.EndTime.Before(time.Now().UTC()) {
			http.Error(w, "This event has already ended", http.StatusBadRequest)
			return
		}

		externalID := strconv.FormatInt(original.ID, 10)
		newEventID, err := eventService.Create(models.Event{
			UserID:               userID,
			Title:                original.Title + " (Joined)",
			Description:          original.Description,
			Location:             original.Location,
			StartTime:            original.StartTime,
			EndTime:              original.EndTime,
			ExternalCalendarID:   &externalID,
			ExternalCalendarType: "joined",
		})
		if err != nil {
			log.Printf("Error copying joined event for user %d: %v", userID, err)
			http.Error(w, "Failed to join event", http.StatusInternalServerError)
			return
		}

		notificationService := models.NewNotificationService(database.DB)
		_, err = notificationService.CreateNotification(models.CreateNotificationRequest{
			UserID:         userID,
			Type:           models.NotificationTypeEvent,
			Title:          "Event Added to Calendar",
			Message:        "You have successfully joined \"" + original.Title + "\"",
			DeliveryStatus: models.DeliveryStatusSent,
			EventID:        &newEventID,
		})
		if err != nil {
			log.Printf("Error creating join notification for user %d: %v", userID, err)
			// The event itself was copied; the notification is best effort.
		}

		profiles.Invalidate(userID)
		broadcastUnreadCount(profiles, userID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  true,
			"message":  "Event has been added to your calendar",
			"event_id": newEventID,
		})
	}
}

// normalizeEventTimes resolves the zone rule for a write request and
// converts both endpoints to UTC. Per-field validation problems come back
// in the map; only infrastructure failures use the error return.
func normalizeEventTimes(profiles *models.ProfileService, userID int64, req EventRequest) (start, end time.Time, fieldErrs map[string]string, err error) {
	tzName := req.ClientTZ
	treatAsLocal := req.ClientTZ != ""
	if tzName == "" {
		profile, perr := profiles.GetProfile(userID)
		if perr != nil {
			return time.Time{}, time.Time{}, nil, perr
		}
		tzName = profile.Timezone
	}

	startDt, perr := util.ParseDateTime(req.StartTime)
	if perr != nil {
		return time.Time{}, time.Time{}, map[string]string{"start_time": "Enter a valid date/time"}, nil
	}
	endDt, perr := util.ParseDateTime(req.EndTime)
	if perr != nil {
		return time.Time{}, time.Time{}, map[string]string{"end_time": "Enter a valid date/time"}, nil
	}

	start, perr = util.ToUTC(startDt, tzName, treatAsLocal)
	if perr != nil {
		if errors.Is(perr, util.ErrUnknownZone) {
			return time.Time{}, time.Time{}, map[string]string{"client_tz": "Unknown timezone: " + tzName}, nil
		}
		return time.Time{}, time.Time{}, nil, perr
	}
	end, perr = util.ToUTC(endDt, tzName, treatAsLocal)
	if perr != nil {
		if errors.Is(perr, util.ErrUnknownZone) {
			return time.Time{}, time.Time{}, map[string]string{"client_tz": "Unknown timezone: " + tzName}, nil
		}
		return time.Time{}, time.Time{}, nil, perr
	}
	return start, end, nil, nil
}

// parseInstantParam accepts the RFC 3339 range parameters the calendar
// widget sends, treating a naive value as UTC.
func parseInstantParam(value string) (time.Time, error) {
	dt, err := util.ParseDateTime(strings.Replace(value, "Z", "+00:00", 1))
	if err != nil {
		return time.Time{}, err
	}
	return util.ToUTC(dt, "UTC", false)
}

func writeFieldErrors(w http.ResponseWriter, fieldErrs map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "errors": fieldErrs})
}

func broadcastUnreadCount(profiles *models.ProfileService, userID int64) {
	count, err := profiles.GetUnreadCount(userID)
	if err != nil {
		log.Printf("Error getting unread count for user %d: %v", userID, err)
		return
	}
	realtime.BroadcastToUser(userID, "notification_count_update", map[string]interface{}{
		"unread_count": count,
	})
}
