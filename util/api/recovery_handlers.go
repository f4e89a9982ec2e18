package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"synchsphere-backend/database"
	"synchsphere-backend/middleware"
	"synchsphere-backend/models"
	"synchsphere-backend/util"

	"golang.org/x/crypto/bcrypt"
)

const requiredSecurityAnswers = 3

// GetSecurityQuestionsHandler returns the full question catalogue for the
// enrollment form.
func GetSecurityQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	securityService := models.NewSecurityService(database.DB)

	questions, err := securityService.ListQuestions()
	if err != nil {
		log.Printf("Error listing security questions: %v", err)
		http.Error(w, "Failed to fetch security questions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(questions)
}

// SetSecurityQuestionsHandler replaces the authenticated user's three
// enrolled answers.
func SetSecurityQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Answers []models.SecurityAnswer `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Answers) != requiredSecurityAnswers {
		http.Error(w, "Exactly three answers are required", http.StatusBadRequest)
		return
	}
	seen := make(map[int64]bool)
	for _, a := range req.Answers {
		if a.Answer == "" {
			http.Error(w, "Answers cannot be empty", http.StatusBadRequest)
			return
		}
		if seen[a.QuestionID] {
			http.Error(w, "Questions must be distinct", http.StatusBadRequest)
			return
		}
		seen[a.QuestionID] = true
	}

	securityService := models.NewSecurityService(database.DB)
	if err := securityService.SetAnswers(userID, req.Answers); err != nil {
		log.Printf("Error setting security answers for user %d: %v", userID, err)
		http.Error(w, "Failed to set security questions", http.StatusInternalServerError)
		return
	}

	log.Printf("User %d updated security questions", userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// PasswordResetRequestHandler starts the recovery flow: given a username it
// returns the questions that user enrolled.
func PasswordResetRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		http.Error(w, "Username is required", http.StatusBadRequest)
		return
	}

	userID, err := userIDByUsername(req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "No account with that username", http.StatusNotFound)
		} else {
			log.Printf("Error looking up user for password reset: %v", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	securityService := models.NewSecurityService(database.DB)
	questions, err := securityService.QuestionsForUser(userID)
	if err != nil {
		log.Printf("Error loading security questions for user %d: %v", userID, err)
		http.Error(w, "Failed to fetch security questions", http.StatusInternalServerError)
		return
	}
	if len(questions) == 0 {
		http.Error(w, "Account has no security questions set", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"username":  req.Username,
		"questions": questions,
	})
}

// PasswordResetVerifyHandler checks the submitted answers; all must match.
// On success it issues a short-lived, single-use reset token.
func PasswordResetVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string                  `json:"username"`
		Answers  []models.SecurityAnswer `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" || len(req.Answers) == 0 {
		http.Error(w, "Username and answers are required", http.StatusBadRequest)
		return
	}

	userID, err := userIDByUsername(req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "No account with that username", http.StatusNotFound)
		} else {
			log.Printf("Error looking up user for password reset: %v", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	securityService := models.NewSecurityService(database.DB)
	verified, err := securityService.VerifyAnswers(userID, req.Answers)
	if err != nil {
		log.Printf("Error verifying security answers for user %d: %v", userID, err)
		http.Error(w, "Failed to verify answers", http.StatusInternalServerError)
		return
	}
	if !verified {
		log.Printf("Password reset verification failed for user %d", userID)
		http.Error(w, "One or more answers were incorrect", http.StatusUnauthorized)
		return
	}

	resetToken, err := util.CreatePasswordResetToken(userID)
	if err != nil {
		log.Printf("Error creating reset token for user %d: %v", userID, err)
		http.Error(w, "Failed to create reset token", http.StatusInternalServerError)
		return
	}

	log.Printf("Password reset verified for user %d", userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"reset_token": resetToken})
}

// PasswordResetConfirmHandler consumes a reset token and sets the new
// password.
func PasswordResetConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		http.Error(w, "Token and new password are required", http.StatusBadRequest)
		return
	}

	userID := util.ConsumePasswordResetToken(req.Token)
	if userID == 0 {
		http.Error(w, "Invalid or expired reset token", http.StatusUnauthorized)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing new password for user %d: %v", userID, err)
		http.Error(w, "Error processing password", http.StatusInternalServerError)
		return
	}

	_, err = database.DB.Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, string(hashedPassword), userID)
	if err != nil {
		log.Printf("Error updating password for user %d: %v", userID, err)
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	log.Printf("Password reset completed for user %d", userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func userIDByUsername(username string) (int64, error) {
	var userID int64
	err := database.DB.QueryRow("SELECT id FROM users WHERE username = ?", username).Scan(&userID)
	return userID, err
}
