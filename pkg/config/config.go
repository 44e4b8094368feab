package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Calendar CalendarConfig
	Mail     MailConfig
	Booking  BookingConfig
	OTEL     OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CalendarConfig holds calendar provider configuration
type CalendarConfig struct {
	Provider          string // "google" or "mock"
	AccessToken       string
	AllowMockFallback bool
}

// MailConfig holds the outbound mail API configuration
type MailConfig struct {
	APIKey      string
	BaseURL     string
	FromName    string
	FromAddress string
}

// BookingConfig holds booking engine tunables
type BookingConfig struct {
	SlotStepMinutes   int
	MinNoticeMinutes  int
	ReminderLeadHours int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "schedulo"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Calendar: CalendarConfig{
			Provider:          getEnv("CALENDAR_PROVIDER", "mock"),
			AccessToken:       getEnv("CALENDAR_ACCESS_TOKEN", ""),
			AllowMockFallback: getEnvAsBool("CALENDAR_ALLOW_MOCK_FALLBACK", false),
		},
		Mail: MailConfig{
			APIKey:      getEnv("MAIL_API_KEY", ""),
			BaseURL:     getEnv("MAIL_API_URL", "https://api.sendgrid.com/v3"),
			FromName:    getEnv("MAIL_FROM_NAME", "Schedulo"),
			FromAddress: getEnv("MAIL_FROM_ADDRESS", "bookings@schedulo.dev"),
		},
		Booking: BookingConfig{
			SlotStepMinutes:   getEnvAsInt("BOOKING_SLOT_STEP_MINUTES", 30),
			MinNoticeMinutes:  getEnvAsInt("BOOKING_MIN_NOTICE_MINUTES", 0),
			ReminderLeadHours: getEnvAsInt("BOOKING_REMINDER_LEAD_HOURS", 24),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "schedulo"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
