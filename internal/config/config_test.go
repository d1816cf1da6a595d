package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "LOG_LEVEL", "LOG_FILE", "MAX_CONCURRENT", "SESSION_TTL_MINUTES",
		"GACHA_PER_MINUTE", "DB_PATH", "WEB_ADDR", "DEFAULT_MODEL", "DEFAULT_LANGUAGE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "data/prompts.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.WebAddr)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "midjourney", cfg.DefaultModel)
	assert.Error(t, cfg.RequireBot())
}

func TestLoadClampsAndParses(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", " 123:abc ")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("SESSION_TTL_MINUTES", "-5")
	t.Setenv("GACHA_PER_MINUTE", "not-a-number")
	t.Setenv("DEFAULT_MODEL", "Nanobanana-Thumb")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireBot())
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1, cfg.MaxConcurrent)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 20, cfg.GachaPerMinute)
	assert.Equal(t, "nanobanana-thumb", cfg.DefaultModel)
	assert.True(t, cfg.Debug)
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load()
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	t.Setenv("CATALOG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)
	c, err := cfg.Catalog()
	require.NoError(t, err)
	assert.NotEmpty(t, c.Categories())

	cfg.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Catalog()
	assert.Error(t, err)
}
