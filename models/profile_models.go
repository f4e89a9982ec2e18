package models

import (
	"database/sql"
	"sync"
	"time"
)

// UserProfile holds the per-user preferences the calendar depends on, most
// importantly the display timezone.
type UserProfile struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	Timezone           string    `json:"timezone"`
	EmailNotifications bool      `json:"email_notifications"`
	WebNotifications   bool      `json:"web_notifications"`
	Bio                string    `json:"bio"`
	Phone              string    `json:"phone"`
	Location           string    `json:"location"`
	Avatar             string    `json:"avatar"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Default cache lifetimes. The two values differ in the deployed system;
// they are fields rather than constants so tests and callers can tune them.
const (
	DefaultProfileTTL     = 5 * time.Minute
	DefaultUnreadCountTTL = 1 * time.Minute
)

type cachedProfile struct {
	profile   UserProfile
	expiresAt time.Time
}

type cachedCount struct {
	count     int
	expiresAt time.Time
}

// ProfileService loads user profiles and unread notification counts with a
// short-lived per-user cache. Every mutation path that touches profile
// fields or notification read-state must call Invalidate, otherwise reads
// stay stale for up to the TTL window.
type ProfileService struct {
	DB         *sql.DB
	ProfileTTL time.Duration
	UnreadTTL  time.Duration

	mu       sync.Mutex
	profiles map[int64]cachedProfile
	counts   map[int64]cachedCount
}

// NewProfileService creates a profile service with the default TTLs.
func NewProfileService(db *sql.DB) *ProfileService {
	return &ProfileService{
		DB:         db,
		ProfileTTL: DefaultProfileTTL,
		UnreadTTL:  DefaultUnreadCountTTL,
		profiles:   make(map[int64]cachedProfile),
		counts:     make(map[int64]cachedCount),
	}
}

// GetProfile returns the user's profile, creating an empty one on first
// access. Storage errors are never masked by the cache.
func (s *ProfileService) GetProfile(userID int64) (UserProfile, error) {
	s.mu.Lock()
	entry, ok := s.profiles[userID]
	s.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.profile, nil
	}

	profile, err := s.loadOrCreate(userID)
	if err != nil {
		return UserProfile{}, err
	}

	s.mu.Lock()
	s.profiles[userID] = cachedProfile{profile: profile, expiresAt: time.Now().Add(s.ProfileTTL)}
	s.mu.Unlock()
	return profile, nil
}

func (s *ProfileService) loadOrCreate(userID int64) (UserProfile, error) {
	profile, err := s.load(userID)
	if err == nil {
		return profile, nil
	}
	if err != sql.ErrNoRows {
		return UserProfile{}, err
	}

	_, err = s.DB.Exec(`INSERT OR IGNORE INTO user_profiles (user_id) VALUES (?)`, userID)
	if err != nil {
		return UserProfile{}, err
	}
	return s.load(userID)
}

func (s *ProfileService) load(userID int64) (UserProfile, error) {
	var p UserProfile
	err := s.DB.QueryRow(`
		SELECT id, user_id, timezone, email_notifications, web_notifications,
		       bio, phone, location, avatar, created_at, updated_at
		FROM user_profiles WHERE user_id = ?
	`, userID).Scan(
		&p.ID, &p.UserID, &p.Timezone, &p.EmailNotifications, &p.WebNotifications,
		&p.Bio, &p.Phone, &p.Location, &p.Avatar, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return UserProfile{}, err
	}
	return p, nil
}

// UpdateProfile persists the mutable profile fields and evicts the cache.
func (s *ProfileService) UpdateProfile(p UserProfile) error {
	_, err := s.DB.Exec(`
		UPDATE user_profiles
		SET timezone = ?, email_notifications = ?, web_notifications = ?,
		    bio = ?, phone = ?, location = ?, avatar = ?, updated_at = ?
		WHERE user_id = ?
	`, p.Timezone, p.EmailNotifications, p.WebNotifications,
		p.Bio, p.Phone, p.Location, p.Avatar, time.Now().UTC(), p.UserID)
	if err != nil {
		return err
	}
	s.Invalidate(p.UserID)
	return nil
}

// GetUnreadCount returns the user's unread notification count, cached with
// its own (shorter) TTL.
func (s *ProfileService) GetUnreadCount(userID int64) (int, error) {
	s.mu.Lock()
	entry, ok := s.counts[userID]
	s.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.count, nil
	}

	var count int
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`, userID).Scan(&count)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.counts[userID] = cachedCount{count: count, expiresAt: time.Now().Add(s.UnreadTTL)}
	s.mu.Unlock()
	return count, nil
}

// Invalidate evicts both cache entries for the user unconditionally.
func (s *ProfileService) Invalidate(userID int64) {
	s.mu.Lock()
	delete(s.profiles, userID)
	delete(s.counts, userID)
	s.mu.Unlock()
}
