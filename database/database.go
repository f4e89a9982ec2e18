package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var DB *sql.DB

// InitDB initializes the database connection and creates tables if they don't exist.
func InitDB(dataSourceName string) error {
	var err error
	// Open the SQLite database file
	DB, err = sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Check if the connection is successful
	err = DB.Ping()
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database!")

	// SQL statements to create tables (SQLite compatible)
	createTablesSQL := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        email TEXT UNIQUE NOT NULL,
        first_name TEXT,
        last_name TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS user_profiles (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
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

    CREATE TABLE IF NOT EXISTS events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        title TEXT NOT NULL,
        description TEXT DEFAULT '',
        location TEXT DEFAULT '',
        start_time DATETIME NOT NULL, -- UTC
        end_time DATETIME NOT NULL,   -- UTC
        invitation_link TEXT DEFAULT '',
        external_calendar_id TEXT,
        external_calendar_type TEXT DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_events_user_start ON events(user_id, start_time);

    CREATE TABLE IF NOT EXISTS reminders (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        event_id INTEGER REFERENCES events(id) ON DELETE CASCADE,
        title TEXT NOT NULL,
        description TEXT DEFAULT '',
        reminder_time DATETIME NOT NULL, -- UTC
        is_sent BOOLEAN DEFAULT FALSE,
        sent_at DATETIME,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(user_id, reminder_time, is_sent);

    CREATE TABLE IF NOT EXISTS notifications (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        type TEXT NOT NULL CHECK(type IN ('reminder', 'event', 'system')) DEFAULT 'reminder',
        title TEXT NOT NULL,
        message TEXT NOT NULL,
        is_read BOOLEAN DEFAULT FALSE,
        delivery_method TEXT NOT NULL CHECK(delivery_method IN ('email', 'web', 'both')) DEFAULT 'web',
        delivery_status TEXT NOT NULL CHECK(delivery_status IN ('pending', 'sent', 'failed')) DEFAULT 'pending',
        event_id INTEGER REFERENCES events(id) ON DELETE SET NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        read_at DATETIME
    );
    CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(user_id, is_read, created_at);

    CREATE TABLE IF NOT EXISTS security_questions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        question_text TEXT UNIQUE NOT NULL
    );

    CREATE TABLE IF NOT EXISTS user_security_answers (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        question_id INTEGER NOT NULL REFERENCES security_questions(id) ON DELETE CASCADE,
        answer_hash TEXT NOT NULL,
        UNIQUE(user_id, question_id)
    );
    `

	_, err = DB.Exec(createTablesSQL)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	// Run migrations for existing databases
	err = runMigrations()
	if err != nil {
		log.Printf("Migration warning: %v", err)
		// Don't fail on migration errors, as columns might already exist
	}

	if err := seedSecurityQuestions(); err != nil {
		return fmt.Errorf("failed to seed security questions: %w", err)
	}

	log.Println("Database tables checked/created successfully.")
	return nil
}

// runMigrations adds missing columns to existing tables
func runMigrations() error {
	migrations := []string{
		`ALTER TABLE users ADD COLUMN first_name TEXT`,
		`ALTER TABLE users ADD COLUMN last_name TEXT`,
		`ALTER TABLE user_profiles ADD COLUMN bio TEXT DEFAULT ''`,
		`ALTER TABLE user_profiles ADD COLUMN phone TEXT DEFAULT ''`,
		`ALTER TABLE user_profiles ADD COLUMN location TEXT DEFAULT ''`,
		`ALTER TABLE user_profiles ADD COLUMN avatar TEXT DEFAULT ''`,
		`ALTER TABLE events ADD COLUMN invitation_link TEXT DEFAULT ''`,
		`ALTER TABLE events ADD COLUMN external_calendar_id TEXT`,
		`ALTER TABLE events ADD COLUMN external_calendar_type TEXT DEFAULT ''`,
	}

	for _, migration := range migrations {
		_, err := DB.Exec(migration)
		if err != nil {
			// Column might already exist, log but continue
			log.Printf("Migration info: %s (this is normal if column already exists)", err.Error())
		}
	}

	return nil
}

// defaultSecurityQuestions is the fixed question set offered at enrollment.
var defaultSecurityQuestions = []string{
	"What was your childhood nickname?",
	"In what city did you meet your spouse/significant other?",
	"What is the name of your favorite childhood friend?",
	"What street did you live on in third grade?",
	"What is your oldest sibling's birthday month and year? (e.g., January 1900)",
	"What is the middle name of your youngest child?",
	"What is your oldest cousin's first and last name?",
	"What was the name of your first pet?",
	"In what city or town was your first job?",
	"What was the make and model of your first car?",
}

func seedSecurityQuestions() error {
	stmt, err := DB.Prepare(`INSERT OR IGNORE INTO security_questions (question_text) VALUES (?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range defaultSecurityQuestions {
		if _, err := stmt.Exec(q); err != nil {
			return err
		}
	}
	return nil
}
