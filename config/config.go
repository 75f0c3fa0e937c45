package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	JWTSecret        string
	CronSecret       string
	Timezone         string
	LogLevel         string
	SendGridAPIKey   string
	SendGridFrom     string
	ReportEmail      string
	FirebaseCredPath string
	AppName          string
}

// Load reads .env (if present) and the process environment. DATABASE_URL and
// JWT_SECRET are required; the process exits when either is missing.
func Load() *Config {
	godotenv.Load() // Load .env file if present

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CronSecret:       getEnv("CRON_SECRET", ""),
		Timezone:         getEnv("TIMEZONE", "UTC"),
		LogLevel:         getEnv("LOG_LEVEL", "warn"),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		SendGridFrom:     getEnv("SENDGRID_FROM_EMAIL", "noreply@fleet.local"),
		ReportEmail:      getEnv("REPORT_EMAIL", ""),
		FirebaseCredPath: getEnv("FIREBASE_CREDENTIALS", ""),
		AppName:          getEnv("APP_NAME", "Fleet"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	return cfg
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("⚠️  Unknown TIMEZONE %q, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
