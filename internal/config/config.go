// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // Zone database for images without one.

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken  string
	DatabasePath      string
	LogLevel          string
	HTTPAddr          string
	SentryDSN         string
	AppEnv            string
	ParseMode         string
	SchedulerInterval time.Duration
	SendRate          int
	Location          *time.Location
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first if present; variables already set in
// the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := getEnv("TELEGRAM_BOT_TOKEN", getEnv("BOT_TOKEN", ""))
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	httpAddr := getEnv("HTTP_ADDR", "")
	if httpAddr == "" {
		httpAddr = ":" + getEnv("PORT", "8080")
	}

	interval, err := time.ParseDuration(getEnv("SCHEDULER_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", interval)
	}

	rate, err := strconv.Atoi(getEnv("SEND_RATE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEND_RATE: %w", err)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("SEND_RATE must be positive, got %d", rate)
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	return &Config{
		TelegramBotToken:  token,
		DatabasePath:      getEnv("DATABASE_PATH", "./data/bot.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		HTTPAddr:          httpAddr,
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		AppEnv:            getEnv("APP_ENV", "development"),
		ParseMode:         getEnv("PARSE_MODE", "Markdown"),
		SchedulerInterval: interval,
		SendRate:          rate,
		Location:          loc,
	}, nil
}

// getEnv returns the value of key, or def when it is unset or empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
