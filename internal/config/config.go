package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"arive-prompt-bot/internal/catalog"
)

type Config struct {
	TelegramToken string

	LogLevel string
	LogFile  string
	Debug    bool

	PreferIPv4 bool

	MaxConcurrent  int
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration

	DBPath         string
	WebAddr        string
	SessionTTL     time.Duration
	GachaPerMinute int

	DefaultModel    string
	DefaultLanguage string
	CatalogFile     string
}

// Load reads the environment. Only the bot needs a token, so a missing one
// is reported by RequireBot rather than here.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:        strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		LogFile:         strings.TrimSpace(os.Getenv("LOG_FILE")),
		Debug:           getEnvBool("DEBUG", false),
		PreferIPv4:      getEnvBool("PREFER_IPV4", true),
		MaxConcurrent:   getEnvInt("MAX_CONCURRENT", 4),
		RequestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		HTTPTimeout:     time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 60)) * time.Second,
		DBPath:          getEnv("DB_PATH", "data/prompts.db"),
		WebAddr:         getEnv("WEB_ADDR", ":8080"),
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		GachaPerMinute:  getEnvInt("GACHA_PER_MINUTE", 20),
		DefaultModel:    strings.ToLower(getEnv("DEFAULT_MODEL", "midjourney")),
		DefaultLanguage: strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en")),
		CatalogFile:     strings.TrimSpace(os.Getenv("CATALOG_FILE")),
	}

	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, errors.New("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 120 * time.Minute
	}
	if cfg.GachaPerMinute < 1 {
		cfg.GachaPerMinute = 1
	}

	return cfg, nil
}

func (c Config) RequireBot() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// Catalog returns CATALOG_FILE when set, otherwise the embedded catalog.
func (c Config) Catalog() (*catalog.Catalog, error) {
	if c.CatalogFile == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(c.CatalogFile)
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
