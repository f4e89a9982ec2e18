package models

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL
		);
		CREATE TABLE user_profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER UNIQUE NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			email_notifications BOOLEAN DEFAULT TRUE,
			web_notifications BOOLEAN DEFAULT TRUE,
			bio TEXT DEFAULT '',
			phone TEXT DEFAULT '',
			location TEXT DEFAULT '',
			avatar TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			type TEXT NOT NULL DEFAULT 'reminder',
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			is_read BOOLEAN DEFAULT FALSE,
			delivery_method TEXT NOT NULL DEFAULT 'web',
			delivery_status TEXT NOT NULL DEFAULT 'pending',
			event_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			read_at DATETIME
		);
	`)
	if err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	_, err = db.Exec(`INSERT INTO users (username, password_hash, email) VALUES ('alice', 'x', 'alice@example.com')`)
	if err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
	return db
}

func TestGetProfileCreatesLazily(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)

	profile, err := svc.GetProfile(1)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", profile.UserID)
	}
	if profile.Timezone != "UTC" {
		t.Errorf("expected default timezone UTC, got %q", profile.Timezone)
	}
	if !profile.EmailNotifications || !profile.WebNotifications {
		t.Error("notification preferences should default to enabled")
	}
}

func TestGetProfileServesFromCache(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)

	if _, err := svc.GetProfile(1); err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}

	// A direct write bypassing the service is invisible until the entry
	// expires or is invalidated.
	if _, err := db.Exec(`UPDATE user_profiles SET timezone = 'Asia/Tokyo' WHERE user_id = 1`); err != nil {
		t.Fatalf("direct update failed: %v", err)
	}

	profile, err := svc.GetProfile(1)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.Timezone != "UTC" {
		t.Errorf("expected cached timezone UTC, got %q", profile.Timezone)
	}
}

func TestGetProfileExpiry(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)
	svc.ProfileTTL = 10 * time.Millisecond

	if _, err := svc.GetProfile(1); err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if _, err := db.Exec(`UPDATE user_profiles SET timezone = 'Asia/Tokyo' WHERE user_id = 1`); err != nil {
		t.Fatalf("direct update failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	profile, err := svc.GetProfile(1)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.Timezone != "Asia/Tokyo" {
		t.Errorf("expected reload after TTL, got timezone %q", profile.Timezone)
	}
}

func TestUpdateProfileInvalidatesCache(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)

	profile, err := svc.GetProfile(1)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}

	profile.Timezone = "Europe/Paris"
	profile.Bio = "bonjour"
	if err := svc.UpdateProfile(profile); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	reloaded, err := svc.GetProfile(1)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if reloaded.Timezone != "Europe/Paris" {
		t.Errorf("expected updated timezone, got %q", reloaded.Timezone)
	}
	if reloaded.Bio != "bonjour" {
		t.Errorf("expected updated bio, got %q", reloaded.Bio)
	}
}

func TestGetUnreadCountCachedAndInvalidated(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)

	count, err := svc.GetUnreadCount(1)
	if err != nil {
		t.Fatalf("GetUnreadCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 unread, got %d", count)
	}

	if _, err := db.Exec(`INSERT INTO notifications (user_id, title, message) VALUES (1, 'hello', 'world')`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Cached entry still says zero.
	count, err = svc.GetUnreadCount(1)
	if err != nil {
		t.Fatalf("GetUnreadCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cached 0, got %d", count)
	}

	svc.Invalidate(1)

	count, err = svc.GetUnreadCount(1)
	if err != nil {
		t.Fatalf("GetUnreadCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 unread after invalidation, got %d", count)
	}
}

func TestInvalidateEvictsBothEntries(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)

	if _, err := svc.GetProfile(1); err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if _, err := svc.GetUnreadCount(1); err != nil {
		t.Fatalf("GetUnreadCount failed: %v", err)
	}

	if _, err := db.Exec(`UPDATE user_profiles SET timezone = 'Asia/Seoul' WHERE user_id = 1`); err != nil {
		t.Fatalf("direct update failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO notifications (user_id, title, message) VALUES (1, 'a', 'b')`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	svc.Invalidate(1)

	profile, err := svc.GetProfile(1)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.Timezone != "Asia/Seoul" {
		t.Errorf("profile cache not evicted, timezone %q", profile.Timezone)
	}
	count, err := svc.GetUnreadCount(1)
	if err != nil {
		t.Fatalf("GetUnreadCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count cache not evicted, got %d", count)
	}
}
