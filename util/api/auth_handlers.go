package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"synchsphere-backend/database"
	"synchsphere-backend/middleware"
	"synchsphere-backend/models"
	"synchsphere-backend/realtime"
	"synchsphere-backend/util"

	"golang.org/x/crypto/bcrypt"
)

// RegisterHandler handles user registration. Successful registrations
// publish a "register" event on the bus for connected dashboards.
func RegisterHandler(bus *realtime.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		if req.Email == "" || req.Password == "" || req.Username == "" {
			http.Error(w, "Email, password, and username are required", http.StatusBadRequest)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Error processing password", http.StatusInternalServerError)
			log.Printf("Error hashing password: %v", err)
			return
		}

		stmt, err := database.DB.Prepare(`
			INSERT INTO users (username, password_hash, email, first_name, last_name, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			http.Error(w, "Failed to prepare statement: "+err.Error(), http.StatusInternalServerError)
			log.Printf("Error preparing insert statement: %v", err)
			return
		}
		defer stmt.Close()

		result, err := stmt.Exec(
			req.Username,
			string(hashedPassword),
			req.Email,
			req.FirstName,
			req.LastName,
			time.Now().UTC(),
		)
		if err != nil {
			http.Error(w, "Failed to register user: "+err.Error(), http.StatusInternalServerError)
			log.Printf("Error inserting user: %v", err)
			return
		}

		userID, err := result.LastInsertId()
		if err != nil {
			http.Error(w, "Failed to retrieve user ID: "+err.Error(), http.StatusInternalServerError)
			log.Printf("Error getting last insert ID: %v", err)
			return
		}

		sessionToken, err := util.CreateSession(userID)
		if err != nil {
			log.Printf("Failed to create session for new user %d after registration: %v", userID, err)
		} else {
			setSessionCookie(w, sessionToken)
			log.Printf("User %s (ID: %d) registered and session created.", req.Username, userID)
		}

		bus.Publish("register", req.Username)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.UserResponse{
			ID:       userID,
			Username: req.Username,
			Email:    req.Email,
		})
	}
}

// LoginHandler handles user login.
func LoginHandler(bus *realtime.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("Login failed - invalid JSON: %v", err)
			http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		// Use whichever identifier is provided
		identifier := req.Username
		if identifier == "" {
			identifier = req.Email
		}

		if identifier == "" || req.Password == "" {
			log.Printf("Login failed - missing username/email or password")
			http.Error(w, "Username/email and password are required", http.StatusBadRequest)
			return
		}

		var userID int64
		var storedPasswordHash string
		var username string
		var email string

		err := database.DB.QueryRow("SELECT id, password_hash, username, email FROM users WHERE username = ? OR email = ?", identifier, identifier).Scan(&userID, &storedPasswordHash, &username, &email)
		if err != nil {
			if err == sql.ErrNoRows {
				log.Printf("Login failed - user not found: %s", identifier)
				http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
			} else {
				log.Printf("Login failed - database error: %v", err)
				http.Error(w, "Database error", http.StatusInternalServerError)
			}
			return
		}

		err = bcrypt.CompareHashAndPassword([]byte(storedPasswordHash), []byte(req.Password))
		if err != nil {
			log.Printf("Login failed - invalid password for: %s", identifier)
			http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
			return
		}

		sessionToken, err := util.CreateSession(userID)
		if err != nil {
			log.Printf("Login failed - session creation error: %v", err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		setSessionCookie(w, sessionToken)
		log.Printf("Login successful for user: %s (ID: %d)", username, userID)

		bus.Publish("login", username)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(models.UserResponse{
			ID:       userID,
			Username: username,
			Email:    email,
		})
	}
}

// LogoutHandler handles user logout.
func LogoutHandler(bus *realtime.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value(middleware.UserIDKey).(int64)

		cookie, err := r.Cookie(util.SessionCookieName)
		if err != nil {
			if err == http.ErrNoCookie {
				http.Error(w, "No active session", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Server error reading cookie", http.StatusInternalServerError)
			log.Printf("Error reading session cookie on logout: %v", err)
			return
		}

		username := usernameFor(userID)
		util.DeleteSession(cookie.Value)

		http.SetCookie(w, &http.Cookie{
			Name:     util.SessionCookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   false,
			SameSite: http.SameSiteLaxMode,
		})

		bus.Publish("logout", username)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"message": "Logged out successfully"})
		log.Println("User logged out successfully.")
	}
}

// CheckAuthHandler confirms the session cookie maps to a live session.
func CheckAuthHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(util.SessionCookieName)
	if err != nil {
		if err == http.ErrNoCookie {
			http.Error(w, "Unauthorized: No session cookie", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Error reading session cookie", http.StatusInternalServerError)
		return
	}
	if cookie.Value == "" {
		http.Error(w, "Unauthorized: Empty session token", http.StatusUnauthorized)
		return
	}

	userID := util.GetUserIDFromSession(cookie.Value)
	if userID == 0 {
		http.Error(w, "Unauthorized: Invalid session token", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Authenticated request"))
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     util.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})
}

func usernameFor(userID int64) string {
	var username string
	err := database.DB.QueryRow("SELECT username FROM users WHERE id = ?", userID).Scan(&username)
	if err != nil {
		return ""
	}
	return username
}
