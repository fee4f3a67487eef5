package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withoutSecret(t *testing.T) {
	old := secretPath
	secretPath = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { secretPath = old })
}

func TestLoadDefaults(t *testing.T) {
	withoutSecret(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.TelegramToken)
	assert.Equal(t, DBName, cfg.DBName)
	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, "/webhook", cfg.WebhookPath)
	assert.Equal(t, uint(3), cfg.WarnThreshold)
	assert.Equal(t, time.Minute, cfg.AdminCacheTTL)
	assert.Equal(t, PolicyOpen, cfg.PostPolicy)
	assert.False(t, cfg.Webhook())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadSecretFileWins(t *testing.T) {
	dir := t.TempDir()
	old := secretPath
	secretPath = filepath.Join(dir, "token")
	t.Cleanup(func() { secretPath = old })
	require.NoError(t, os.WriteFile(secretPath, []byte(" from-file \n"), 0o600))
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TelegramToken)
}

func TestLoadMissingToken(t *testing.T) {
	withoutSecret(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadWebhook(t *testing.T) {
	withoutSecret(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "x")
	t.Setenv("PUBLIC_URL", "https://bot.example.org/")
	t.Setenv("WEBHOOK_SECRET", "s3cret_token-1")
	t.Setenv("WARN_THRESHOLD", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Webhook())
	assert.Equal(t, "https://bot.example.org/webhook", cfg.WebhookURL())
	assert.Equal(t, uint(5), cfg.WarnThreshold)
	assert.Equal(t, "s3cret_token-1", cfg.WebhookSecret)
}

func TestLoadInvalid(t *testing.T) {
	withoutSecret(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "x")

	tests := map[string]map[string]string{
		"zero threshold":       {"WARN_THRESHOLD": "0"},
		"bad threshold":        {"WARN_THRESHOLD": "many"},
		"bad ttl":              {"ADMIN_CACHE_TTL": "soon"},
		"admins without chat":  {"POST_POLICY": "admins"},
		"unknown policy":       {"POST_POLICY": "nobody"},
		"bad publish chat":     {"PUBLISH_CHAT_ID": "channel"},
		"relative webhookpath": {"WEBHOOK_PATH": "hook"},
		"webhook no secret":    {"PUBLIC_URL": "https://bot.example.org"},
		"webhook bad secret":   {"PUBLIC_URL": "https://bot.example.org", "WEBHOOK_SECRET": "not allowed!"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadAdminsPolicy(t *testing.T) {
	withoutSecret(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "x")
	t.Setenv("POST_POLICY", "Admins")
	t.Setenv("PUBLISH_CHAT_ID", "-1001234")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PolicyAdmins, cfg.PostPolicy)
	assert.Equal(t, int64(-1001234), cfg.PublishChatID)
}
