package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the billing daemon. Cycle settings
// (due day, auto-reset) are operator data and live in the database-backed
// settings store, not here.
type AppConfig struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	Environment string

	// Cron specs: hourly cycle evaluation and the daily auto-expire sweep.
	CronSpecCycleCheck string
	CronSpecAutoExpire string

	// Optional Telegram operator channel. Disabled when the token is empty.
	TelegramToken   string
	AdminTelegramID int64

	AutoMigrate bool
}

// Load reads configuration from environment variables and a .env file (if
// present). godotenv never overrides variables already set.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecCycleCheck = os.Getenv("CRON_SPEC_CYCLE_CHECK")
	if cfg.CronSpecCycleCheck == "" {
		cfg.CronSpecCycleCheck = "0 * * * *" // hourly, on the hour
	}

	cfg.CronSpecAutoExpire = os.Getenv("CRON_SPEC_AUTO_EXPIRE")
	if cfg.CronSpecAutoExpire == "" {
		cfg.CronSpecAutoExpire = "30 0 * * *" // daily at 00:30
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
		if adminIDStr == "" {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
		}
		var err error
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.AutoMigrate = true
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
		}
		cfg.AutoMigrate = b
	}

	return cfg, nil
}
