package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabasePath   string
	MigrationsPath string
	AllowedOrigins []string
	SecretKey      string

	// Email credentials are carried for the notification delivery flags;
	// nothing in the core reads them directly.
	EmailHost     string
	EmailPort     string
	EmailUser     string
	EmailPassword string
}

func Load() (*Config, error) {
	// A missing .env file is fine; production sets real environment variables.
	_ = godotenv.Load()

	return &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		DatabasePath:   getEnvOrDefault("DATABASE_PATH", "./synchsphere.db"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "pkg/db/migrations/sqlite"),
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
		SecretKey:      os.Getenv("SECRET_KEY"),
		EmailHost:      os.Getenv("EMAIL_HOST"),
		EmailPort:      getEnvOrDefault("EMAIL_PORT", "587"),
		EmailUser:      os.Getenv("EMAIL_HOST_USER"),
		EmailPassword:  os.Getenv("EMAIL_HOST_PASSWORD"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
