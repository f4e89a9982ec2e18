package api

import (
	"encoding/json"
	"log"
	"net/http"

	"synchsphere-backend/database"
	"synchsphere-backend/middleware"
	"synchsphere-backend/models"
	"synchsphere-backend/util"
)

// ProfileResponse combines account fields with the profile preferences.
type ProfileResponse struct {
	Username           string `json:"username"`
	Email              string `json:"email"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Timezone           string `json:"timezone"`
	EmailNotifications bool   `json:"email_notifications"`
	WebNotifications   bool   `json:"web_notifications"`
	Bio                string `json:"bio"`
	Phone              string `json:"phone"`
	Location           string `json:"location"`
	Avatar             string `json:"avatar"`
}

// UpdateProfileRequest carries partial updates; nil pointers leave the
// field untouched.
type UpdateProfileRequest struct {
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Email              *string `json:"email"`
	Timezone           *string `json:"timezone"`
	EmailNotifications *bool   `json:"email_notifications"`
	WebNotifications   *bool   `json:"web_notifications"`
	Bio                *string `json:"bio"`
	Phone              *string `json:"phone"`
	Location           *string `json:"location"`
	Avatar             *string `json:"avatar"`
}

// GetProfileHandler returns the authenticated user's profile, creating it
// lazily on first access.
func GetProfileHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		profile, err := profiles.GetProfile(userID)
		if err != nil {
			log.Printf("Error loading profile for user %d: %v", userID, err)
			http.Error(w, "Failed to load profile", http.StatusInternalServerError)
			return
		}

		var username, email, firstName, lastName string
		err = database.DB.QueryRow(
			"SELECT username, email, COALESCE(first_name, ''), COALESCE(last_name, '') FROM users WHERE id = ?", userID,
		).Scan(&username, &email, &firstName, &lastName)
		if err != nil {
			log.Printf("Error loading user %d: %v", userID, err)
			http.Error(w, "Failed to load user", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ProfileResponse{
			Username:           username,
			Email:              email,
			FirstName:          firstName,
			LastName:           lastName,
			Timezone:           profile.Timezone,
			EmailNotifications: profile.EmailNotifications,
			WebNotifications:   profile.WebNotifications,
			Bio:                profile.Bio,
			Phone:              profile.Phone,
			Location:           profile.Location,
			Avatar:             profile.Avatar,
		})
	}
}

// UpdateProfileHandler applies partial updates to account and profile
// fields and evicts the cache.
func UpdateProfileHandler(profiles *models.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		// Only zones from the fixed list are selectable through settings.
		if req.Timezone != nil && !util.IsAllowedTimezone(*req.Timezone) {
			writeFieldErrors(w, map[string]string{"timezone": "Timezone is not on the supported list"})
			return
		}

		if req.FirstName != nil || req.LastName != nil || req.Email != nil {
			_, err := database.DB.Exec(`
				UPDATE users SET
					first_name = COALESCE(?, first_name),
					last_name = COALESCE(?, last_name),
					email = COALESCE(?, email)
				WHERE id = ?
			`, req.FirstName, req.LastName, req.Email, userID)
			if err != nil {
				log.Printf("Error updating user %d: %v", userID, err)
				http.Error(w, "Failed to update user", http.StatusInternalServerError)
				return
			}
		}

		profile, err := profiles.GetProfile(userID)
		if err != nil {
			log.Printf("Error loading profile for user %d: %v", userID, err)
			http.Error(w, "Failed to load profile", http.StatusInternalServerError)
			return
		}

		if req.Timezone != nil {
			profile.Timezone = *req.Timezone
		}
		if req.EmailNotifications != nil {
			profile.EmailNotifications = *req.EmailNotifications
		}
		if req.WebNotifications != nil {
			profile.WebNotifications = *req.WebNotifications
		}
		if req.Bio != nil {
			profile.Bio = *req.Bio
		}
		if req.Phone != nil {
			profile.Phone = *req.Phone
		}
		if req.Location != nil {
			profile.Location = *req.Location
		}
		if req.Avatar != nil {
			profile.Avatar = *req.Avatar
		}

		// UpdateProfile invalidates the cache for this user.
		if err := profiles.UpdateProfile(profile); err != nil {
			log.Printf("Error updating profile for user %d: %v", userID, err)
			http.Error(w, "Failed to update profile", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "Profile updated successfully"})
	}
}
