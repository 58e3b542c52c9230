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

// ErrMissingToken is returned by Load when TELEGRAM_BOT_TOKEN is unset or blank.
var ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN is required")

type Config struct {
	BotToken     string
	Port         int
	DbPath       string
	StoreLocale  string
	StoreCountry string
	RedisAddr    string
	DigestAt     time.Duration // offset from midnight UTC
	PollTimeout  time.Duration
}

// Load reads .env (if present) and the process environment.
// Variables already set in the environment take precedence over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (c Config, err error) {
	c = Config{
		BotToken:     strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		DbPath:       getenv("DB_PATH", "./subscribers.db"),
		StoreLocale:  getenv("STORE_LOCALE", "en-US"),
		StoreCountry: strings.ToUpper(getenv("STORE_COUNTRY", "US")),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
	}

	if c.BotToken == "" {
		return c, ErrMissingToken
	}

	c.Port, err = strconv.Atoi(getenv("PORT", "8000"))
	if err != nil || c.Port <= 0 || c.Port > 65535 {
		return c, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}

	c.DigestAt, err = ParseClock(getenv("DIGEST_AT", "10:00"))
	if err != nil {
		return c, fmt.Errorf("invalid DIGEST_AT: %w", err)
	}

	c.PollTimeout, err = time.ParseDuration(getenv("POLL_TIMEOUT", "10s"))
	if err != nil {
		return c, fmt.Errorf("invalid POLL_TIMEOUT: %w", err)
	}

	return c, nil
}

// ParseClock turns "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
