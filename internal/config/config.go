// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds settings shared by the server, worker, scheduler and CLI.
type Config struct {
	// DatabaseDriver is "postgres" or "mysql". MySQL DSNs need parseTime=true.
	DatabaseDriver string
	DatabaseURL    string
	RedisAddr      string
	Port           string
	BaseURL        string

	TelegramBotToken string
	// OwnerTelegramID restricts the API and the bot to one Telegram user (0 = any).
	OwnerTelegramID int64

	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeAPIKey       string
	TokenDir            string
	OAuthCallbackPort   int

	DefaultWatchPrio int
	// UploadsPageLimit caps playlistItems pages per channel refresh (0 = all).
	UploadsPageLimit int
	SyncSchedule     string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DatabaseDriver:    "postgres",
		RedisAddr:         "127.0.0.1:6379",
		Port:              "8080",
		BaseURL:           "http://localhost:8080",
		TokenDir:          home + "/.config/yt-subtracker",
		OAuthCallbackPort: 8085,
		DefaultWatchPrio:  10,
		UploadsPageLimit:  1,
		SyncSchedule:      "@every 1h",
		RateLimitRPS:      1,
		RateLimitBurst:    5,
	}
}

// Load builds a Config from defaults overridden by environment variables.
// Callers are expected to have run godotenv.Load beforehand.
func Load() (*Config, error) {
	cfg := Default()
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromEnv() error {
	setString(&c.DatabaseDriver, "DATABASE_DRIVER")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.Port, "PORT")
	setString(&c.BaseURL, "BASE_URL")
	setString(&c.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.YouTubeClientID, "YOUTUBE_CLIENT_ID")
	setString(&c.YouTubeClientSecret, "YOUTUBE_CLIENT_SECRET")
	setString(&c.YouTubeAPIKey, "YOUTUBE_API_KEY")
	setString(&c.TokenDir, "TOKEN_DIR")
	setString(&c.SyncSchedule, "SYNC_SCHEDULE")

	if v := os.Getenv("OWNER_TELEGRAM_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("OWNER_TELEGRAM_ID: %w", err)
		}
		c.OwnerTelegramID = id
	}
	for name, dst := range map[string]*int{
		"OAUTH_CALLBACK_PORT": &c.OAuthCallbackPort,
		"DEFAULT_WATCH_PRIO":  &c.DefaultWatchPrio,
		"UPLOADS_PAGE_LIMIT":  &c.UploadsPageLimit,
		"RATE_LIMIT_BURST":    &c.RateLimitBurst,
	} {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimitRPS = f
	}
	return nil
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q: must be postgres or mysql", c.DatabaseDriver)
	}
	if c.UploadsPageLimit < 0 {
		return fmt.Errorf("UPLOADS_PAGE_LIMIT must be non-negative")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive")
	}
	if c.OAuthCallbackPort <= 0 || c.OAuthCallbackPort > 65535 {
		return fmt.Errorf("OAUTH_CALLBACK_PORT out of range: %d", c.OAuthCallbackPort)
	}
	return nil
}
