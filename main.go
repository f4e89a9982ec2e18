package main

import (
	"fmt"
	"log"
	"net/http"

	"synchsphere-backend/config"
	"synchsphere-backend/database"
	"synchsphere-backend/middleware"
	"synchsphere-backend/models"
	"synchsphere-backend/pkg/db/sqlite"
	"synchsphere-backend/realtime"
	"synchsphere-backend/scheduler"
	"synchsphere-backend/util/api"

	"github.com/rs/cors"
)

func main() {
	log.Println("Initializing application...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Using database at: %s", cfg.DatabasePath)

	// Apply migrations before initializing the database
	if _, err := sqlite.ConnectAndMigrate(cfg.DatabasePath, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Initialize Database
	if err := database.InitDB(cfg.DatabasePath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	bus := realtime.NewBus()
	profiles := models.NewProfileService(database.DB)

	sched := scheduler.New(database.DB, profiles, bus)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}
	defer sched.Stop()

	mux := http.NewServeMux()

	// Auth handlers
	mux.HandleFunc("POST /register", api.RegisterHandler(bus))
	mux.HandleFunc("POST /login", api.LoginHandler(bus))
	mux.HandleFunc("POST /logout", api.LogoutHandler(bus))
	mux.Handle("GET /checkAuth", middleware.AuthMiddleware(http.HandlerFunc(api.CheckAuthHandler)))

	// Security questions and password recovery
	mux.HandleFunc("GET /security-questions", api.GetSecurityQuestionsHandler)
	mux.Handle("POST /security-questions", middleware.AuthMiddleware(http.HandlerFunc(api.SetSecurityQuestionsHandler)))
	mux.HandleFunc("POST /password-reset/request", api.PasswordResetRequestHandler)
	mux.HandleFunc("POST /password-reset/verify", api.PasswordResetVerifyHandler)
	mux.HandleFunc("POST /password-reset/confirm", api.PasswordResetConfirmHandler)

	// Timezone catalog
	mux.HandleFunc("GET /api/timezones", api.GetTimezonesHandler)

	// Event handlers
	mux.Handle("GET /api/events", middleware.AuthMiddleware(api.ListEventsHandler(profiles)))
	mux.Handle("POST /api/events", middleware.AuthMiddleware(api.CreateEventHandler(profiles)))
	mux.Handle("GET /api/events/{eventID}", middleware.AuthMiddleware(http.HandlerFunc(api.GetEventHandler)))
	mux.Handle("PUT /api/events/{eventID}", middleware.AuthMiddleware(api.UpdateEventHandler(profiles)))
	mux.Handle("DELETE /api/events/{eventID}", middleware.AuthMiddleware(api.DeleteEventHandler(profiles)))
	mux.Handle("POST /api/events/join", middleware.AuthMiddleware(api.JoinEventHandler(profiles)))

	// Reminder handlers
	mux.Handle("GET /api/reminders", middleware.AuthMiddleware(http.HandlerFunc(api.ListRemindersHandler)))
	mux.Handle("POST /api/reminders", middleware.AuthMiddleware(api.CreateReminderHandler(profiles)))
	mux.Handle("DELETE /api/reminders/{reminderID}", middleware.AuthMiddleware(http.HandlerFunc(api.DeleteReminderHandler)))

	// Notification routes
	mux.Handle("GET /api/notifications", middleware.AuthMiddleware(http.HandlerFunc(api.GetNotificationsHandler)))
	mux.Handle("GET /api/notifications/unread-count", middleware.AuthMiddleware(api.GetUnreadCountHandler(profiles)))
	mux.Handle("PATCH /api/notifications/{notificationID}/read", middleware.AuthMiddleware(api.MarkNotificationAsReadHandler(profiles)))
	mux.Handle("POST /api/notifications/mark-all-read", middleware.AuthMiddleware(api.MarkAllNotificationsAsReadHandler(profiles)))

	// Profile routes
	mux.Handle("GET /api/profile", middleware.AuthMiddleware(api.GetProfileHandler(profiles)))
	mux.Handle("PUT /api/profile", middleware.AuthMiddleware(api.UpdateProfileHandler(profiles)))

	// Real-time channels
	mux.HandleFunc("GET /events/stream", api.EventStreamHandler(bus))
	mux.Handle("/ws", api.WebSocketHandler(profiles))

	// --- CORS Middleware ---
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true, // Required for cookies!
	})

	handler := c.Handler(mux)

	fmt.Printf("Server running on localhost:%s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
