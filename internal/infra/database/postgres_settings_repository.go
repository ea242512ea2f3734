package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"cable_billing_engine/internal/domain/billing"
)

// Settings store keys. Values are stored as strings: dueDay as a
// stringified int, lastResetMonthKey as a first-of-month ISO date and
// autoResetEnabled as "true"/"false".
const (
	SettingDueDay            = "dueDay"
	SettingLastResetMonthKey = "lastResetMonthKey"
	SettingAutoResetEnabled  = "autoResetEnabled"
)

// PostgresSettingsRepository is the key-value settings store backed by the
// app_settings table.
type PostgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrSettingNotFound
		}
		return "", classifyError("get setting", err)
	}
	return value, nil
}

func (r *PostgresSettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO app_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return classifyError("set setting", err)
	}
	return nil
}

// LoadCycleConfig assembles the reset configuration from the settings
// store, applying defaults for keys that were never written.
func (r *PostgresSettingsRepository) LoadCycleConfig(ctx context.Context) (billing.CycleConfig, error) {
	cfg := billing.CycleConfig{DueDay: billing.DefaultDueDay}

	if v, err := r.Get(ctx, SettingDueDay); err == nil {
		day, convErr := strconv.Atoi(v)
		if convErr != nil {
			return cfg, fmt.Errorf("corrupt %s setting %q: %w", SettingDueDay, v, convErr)
		}
		cfg.DueDay = day
	} else if err != ErrSettingNotFound {
		return cfg, err
	}

	if v, err := r.Get(ctx, SettingLastResetMonthKey); err == nil {
		key, parseErr := billing.ParseMonthKey(v)
		if parseErr != nil {
			return cfg, fmt.Errorf("corrupt %s setting: %w", SettingLastResetMonthKey, parseErr)
		}
		cfg.LastResetMonthKey = key
	} else if err != ErrSettingNotFound {
		return cfg, err
	}

	if v, err := r.Get(ctx, SettingAutoResetEnabled); err == nil {
		cfg.AutoResetEnabled = v == "true"
	} else if err != ErrSettingNotFound {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("stored cycle config invalid: %w", err)
	}
	return cfg, nil
}

// SaveCycleConfig persists every field of the configuration.
func (r *PostgresSettingsRepository) SaveCycleConfig(ctx context.Context, cfg billing.CycleConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := r.Set(ctx, SettingDueDay, strconv.Itoa(cfg.DueDay)); err != nil {
		return err
	}
	if err := r.Set(ctx, SettingLastResetMonthKey, cfg.LastResetMonthKey.String()); err != nil {
		return err
	}
	return r.Set(ctx, SettingAutoResetEnabled, strconv.FormatBool(cfg.AutoResetEnabled))
}

// SaveLastResetMonth advances only the last-reset marker, leaving the rest
// of the configuration untouched.
func (r *PostgresSettingsRepository) SaveLastResetMonth(ctx context.Context, key billing.MonthKey) error {
	return r.Set(ctx, SettingLastResetMonthKey, key.String())
}
