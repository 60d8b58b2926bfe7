// internal/config/config.go
//
// Runtime configuration for the Motus binaries.
//
// Resolution order (later wins):
//   1. built-in defaults (Default)
//   2. optional YAML file (--config flag or MOTUS_CONFIG)
//   3. environment variables, after loading .env if present
//
// Environment variables:
//   PORT, LOG_LEVEL, DB_PATH, NODE_ENV
//   WORDS_URL, WORDS_DELIMITER, WORDS_FILE, WORDS_FALLBACK
//   CACHE_BACKEND (sqlite|bolt|memory), CACHE_PATH
//   FETCH_TIMEOUT (Go duration), FETCH_RETRIES
//   LETTER_COUNT, MAX_ATTEMPTS
//   GAME_IDLE_TTL, FINISHED_GAME_TTL (Go durations, 0 keeps games forever)
//   JWT_SECRET, JWT_EXPIRES_DAYS, COOKIE_NAME, CLIENT_ORIGIN, DAILY_SALT

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Cache backends understood by the word source.
const (
	CacheSQLite = "sqlite"
	CacheBolt   = "bolt"
	CacheMemory = "memory"
)

// Config is the resolved configuration.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	DBPath   string `yaml:"db_path"`

	WordsURL       string        `yaml:"words_url"`
	WordsDelimiter string        `yaml:"words_delimiter"`
	WordsFile      string        `yaml:"words_file"`
	WordsFallback  bool          `yaml:"words_fallback"`
	CacheBackend   string        `yaml:"cache_backend"`
	CachePath      string        `yaml:"cache_path"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	FetchRetries   int           `yaml:"fetch_retries"`

	LetterCount int `yaml:"letter_count"`
	MaxAttempts int `yaml:"max_attempts"`

	GameIdleTTL     time.Duration `yaml:"game_idle_ttl"`
	FinishedGameTTL time.Duration `yaml:"finished_game_ttl"`

	JWTSecret      string `yaml:"jwt_secret"`
	JWTExpiresDays int    `yaml:"jwt_expires_days"`
	CookieName     string `yaml:"cookie_name"`
	ClientOrigin   string `yaml:"client_origin"`
	DailySalt      string `yaml:"daily_salt"`
	Production     bool   `yaml:"production"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:            "5175",
		LogLevel:        "info",
		DBPath:          "./data/motus.db",
		WordsURL:        "https://pastebin.ai/raw/iys4katchh/",
		WordsDelimiter:  "\r\n",
		WordsFallback:   true,
		CacheBackend:    CacheSQLite,
		FetchTimeout:    10 * time.Second,
		FetchRetries:    2,
		LetterCount:     6,
		MaxAttempts:     7,
		GameIdleTTL:     2 * time.Hour,
		FinishedGameTTL: 30 * time.Minute,
		JWTSecret:       "dev_secret_change_me",
		JWTExpiresDays:  14,
		CookieName:      "motus_token",
		ClientOrigin:    "http://localhost:5173",
		DailySalt:       "local_dev_salt",
	}
}

// Load resolves the configuration. path may be empty, in which case
// MOTUS_CONFIG is consulted; a missing .env file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("MOTUS_CONFIG")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(k string, dst *string) {
		if v := os.Getenv(k); v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("DB_PATH", &c.DBPath)
	str("WORDS_URL", &c.WordsURL)
	str("WORDS_DELIMITER", &c.WordsDelimiter)
	str("WORDS_FILE", &c.WordsFile)
	str("CACHE_BACKEND", &c.CacheBackend)
	str("CACHE_PATH", &c.CachePath)
	str("JWT_SECRET", &c.JWTSecret)
	str("COOKIE_NAME", &c.CookieName)
	str("CLIENT_ORIGIN", &c.ClientOrigin)
	str("DAILY_SALT", &c.DailySalt)

	if os.Getenv("NODE_ENV") == "production" {
		c.Production = true
	}

	ints := map[string]*int{
		"FETCH_RETRIES":    &c.FetchRetries,
		"LETTER_COUNT":     &c.LetterCount,
		"MAX_ATTEMPTS":     &c.MaxAttempts,
		"JWT_EXPIRES_DAYS": &c.JWTExpiresDays,
	}
	for k, dst := range ints {
		v := os.Getenv(k)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		*dst = n
	}

	if v := os.Getenv("WORDS_FALLBACK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WORDS_FALLBACK: %w", err)
		}
		c.WordsFallback = b
	}
	durations := map[string]*time.Duration{
		"FETCH_TIMEOUT":     &c.FetchTimeout,
		"GAME_IDLE_TTL":     &c.GameIdleTTL,
		"FINISHED_GAME_TTL": &c.FinishedGameTTL,
	}
	for k, dst := range durations {
		v := os.Getenv(k)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		*dst = d
	}
	return nil
}

// Validate checks the board dimensions and the cache backend.
func (c Config) Validate() error {
	if c.LetterCount < 2 {
		return errors.New("config: letter_count must be at least 2")
	}
	if c.MaxAttempts < 1 {
		return errors.New("config: max_attempts must be at least 1")
	}
	switch c.CacheBackend {
	case CacheSQLite, CacheBolt, CacheMemory:
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.CacheBackend)
	}
	if c.WordsDelimiter == "" {
		return errors.New("config: words_delimiter must not be empty")
	}
	return nil
}

// CacheFile returns the cache location, defaulting next to the database.
func (c Config) CacheFile() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	if c.CacheBackend == CacheBolt {
		return c.DBPath + ".words.bolt"
	}
	return c.DBPath
}
