package util

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"synchsphere-backend/database"
)

const SessionCookieName = "session_token"

const (
	sessionLifetime    = 24 * time.Hour
	resetTokenLifetime = 30 * time.Minute
)

type sessionEntry struct {
	userID    int64
	expiresAt time.Time
}

// In-memory stores for session tokens and password-reset tokens. Both are
// per-process; a restart logs everyone out and voids pending resets.
var (
	sessions    = make(map[string]sessionEntry)
	resetTokens = make(map[string]sessionEntry)
	mu          sync.RWMutex
)

// GenerateToken creates a cryptographically secure random opaque token.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateSession creates a new session for the user and returns the session token.
func CreateSession(userID int64) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	mu.Lock()
	sessions[token] = sessionEntry{userID: userID, expiresAt: time.Now().Add(sessionLifetime)}
	mu.Unlock()
	return token, nil
}

// GetUserIDFromSession retrieves the UserID associated with a session token.
// Returns 0 if the session is not valid or has expired.
func GetUserIDFromSession(token string) int64 {
	mu.RLock()
	entry, ok := sessions[token]
	mu.RUnlock()
	if !ok {
		return 0
	}
	if time.Now().After(entry.expiresAt) {
		DeleteSession(token)
		return 0
	}
	return entry.userID
}

// DeleteSession removes a session from the store.
func DeleteSession(token string) {
	mu.Lock()
	delete(sessions, token)
	mu.Unlock()
}

// CreatePasswordResetToken issues a short-lived token after the user's
// security answers have been verified.
func CreatePasswordResetToken(userID int64) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	mu.Lock()
	resetTokens[token] = sessionEntry{userID: userID, expiresAt: time.Now().Add(resetTokenLifetime)}
	mu.Unlock()
	return token, nil
}

// ConsumePasswordResetToken validates a reset token and removes it so it
// cannot be replayed. Returns 0 for unknown or expired tokens.
func ConsumePasswordResetToken(token string) int64 {
	mu.Lock()
	defer mu.Unlock()

	entry, ok := resetTokens[token]
	if !ok {
		return 0
	}
	delete(resetTokens, token)
	if time.Now().After(entry.expiresAt) {
		return 0
	}
	return entry.userID
}

// GetUserIDFromRequest extracts the UserID from the session cookie in an HTTP request.
func GetUserIDFromRequest(r *http.Request) (int64, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if err == http.ErrNoCookie {
			return 0, nil // No session cookie, not necessarily an error here, middleware handles auth
		}
		return 0, err
	}

	userID := GetUserIDFromSession(cookie.Value)
	if userID == 0 {
		return 0, nil // Invalid or expired token, let middleware handle it
	}

	// Check if user still exists in DB
	var exists bool
	err = database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", userID).Scan(&exists)
	if err != nil || !exists {
		DeleteSession(cookie.Value) // Clean up invalid session
		return 0, nil
	}

	return userID, nil
}
