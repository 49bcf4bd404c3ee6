package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN             string `mapstructure:"DB_DSN"`
	Environment       string `mapstructure:"ENV"`
	HTTPAddr          string `mapstructure:"HTTP_ADDR"`
	TelegramToken     string `mapstructure:"TELEGRAM_TOKEN"`
	HoldTTL           time.Duration
	FallbackAnchor    int    `mapstructure:"FALLBACK_ANCHOR_HOUR"`
	SweepSchedule     string `mapstructure:"SWEEP_SCHEDULE"`
	MigrationsEnabled bool   `mapstructure:"MIGRATIONS_ENABLED"`
}

func Load() (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из произвольного источника переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:         getenv("DB_DSN"),
		Environment:   getenv("ENV"),
		HTTPAddr:      getenv("HTTP_ADDR"),
		TelegramToken: getenv("TELEGRAM_TOKEN"),
		SweepSchedule: getenv("SWEEP_SCHEDULE"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = "@every 5m"
	}

	ttlHours, err := intOr(getenv, "HOLD_TTL_HOURS", 48)
	if err != nil {
		return nil, err
	}
	if ttlHours <= 0 {
		return nil, fmt.Errorf("HOLD_TTL_HOURS must be positive, got %d", ttlHours)
	}
	cfg.HoldTTL = time.Duration(ttlHours) * time.Hour

	cfg.FallbackAnchor, err = intOr(getenv, "FALLBACK_ANCHOR_HOUR", 9)
	if err != nil {
		return nil, err
	}
	if cfg.FallbackAnchor < 0 || cfg.FallbackAnchor > 23 {
		return nil, fmt.Errorf("FALLBACK_ANCHOR_HOUR must be within 0..23, got %d", cfg.FallbackAnchor)
	}

	cfg.MigrationsEnabled = true
	if raw := getenv("MIGRATIONS_ENABLED"); raw != "" {
		cfg.MigrationsEnabled, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parse MIGRATIONS_ENABLED: %w", err)
		}
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// IsProduction включает production логгер и release режим gin
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func intOr(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
