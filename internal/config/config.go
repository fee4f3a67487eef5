package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PolicyOpen   = "open"
	PolicyAdmins = "admins"
)

type Config struct {
	TelegramToken string

	// storage
	DBName   string
	RedisURL string // non-empty -> warns live in redis instead of sqlite

	// webhook / http
	PublicURL     string
	WebhookPath   string
	WebhookSecret string
	Port          string

	// moderation
	WarnThreshold uint
	AdminCacheTTL time.Duration

	// publishing
	PublishChatID int64 // 0 -> post goes back to the author's private chat
	PostPolicy    string
	Timezone      string

	// static menus
	WebsiteURL string
	Contact    string

	LogLevel string
}

// Webhook reports whether updates arrive through the HTTP endpoint
// instead of long polling.
func (c Config) Webhook() bool {
	return c.PublicURL != ""
}

func (c Config) WebhookURL() string {
	return strings.TrimRight(c.PublicURL, "/") + c.WebhookPath
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Load() (Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Config{
		TelegramToken: getBotToken(),
		DBName:        getEnv("DB_NAME", DBName),
		RedisURL:      getEnv("REDIS_URL", ""),
		PublicURL:     getEnv("PUBLIC_URL", ""),
		WebhookPath:   getEnv("WEBHOOK_PATH", "/webhook"),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		Port:          getEnv("PORT", "10000"),
		PostPolicy:    strings.ToLower(getEnv("POST_POLICY", PolicyOpen)),
		Timezone:      getEnv("TZ", "UTC"),
		WebsiteURL:    getEnv("WEBSITE_URL", "https://example.com"),
		Contact:       getEnv("CONTACT", "@admin"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	threshold, err := strconv.ParseUint(getEnv("WARN_THRESHOLD", "3"), 10, 32)
	if err != nil || threshold == 0 {
		return cfg, fmt.Errorf("WARN_THRESHOLD must be a positive integer")
	}
	cfg.WarnThreshold = uint(threshold)

	cfg.AdminCacheTTL, err = time.ParseDuration(getEnv("ADMIN_CACHE_TTL", "1m"))
	if err != nil {
		return cfg, fmt.Errorf("ADMIN_CACHE_TTL: %w", err)
	}

	if v := getEnv("PUBLISH_CHAT_ID", ""); v != "" {
		cfg.PublishChatID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("PUBLISH_CHAT_ID: %w", err)
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.TelegramToken == "" {
		return errors.New("token not found: neither docker secret nor TELEGRAM_BOT_TOKEN is set")
	}
	switch c.PostPolicy {
	case PolicyOpen:
	case PolicyAdmins:
		if c.PublishChatID == 0 {
			return errors.New("POST_POLICY=admins needs PUBLISH_CHAT_ID to check the author against")
		}
	default:
		return fmt.Errorf("unknown POST_POLICY %q", c.PostPolicy)
	}
	if !strings.HasPrefix(c.WebhookPath, "/") {
		return fmt.Errorf("WEBHOOK_PATH must start with /")
	}
	if c.Webhook() {
		if c.WebhookSecret == "" {
			return errors.New("WEBHOOK_SECRET is required when PUBLIC_URL is set")
		}
		if !validSecret(c.WebhookSecret) {
			return errors.New("WEBHOOK_SECRET must be 1-256 chars of A-Z, a-z, 0-9, _ or -")
		}
	}
	return nil
}

// telegram's secret_token charset
func validSecret(s string) bool {
	if len(s) > 256 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

func getBotToken() string {
	if data, err := os.ReadFile(secretPath); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

const DBName = "/root/data/bot.db"

var secretPath = "/run/secrets/telegram_bot_token"
