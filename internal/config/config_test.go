package config

import (
	"errors"
	"testing"
	"time"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{"TELEGRAM_BOT_TOKEN", "PORT", "DB_PATH", "STORE_LOCALE", "STORE_COUNTRY", "REDIS_ADDR", "DIGEST_AT", "POLL_TIMEOUT"} {
		t.Setenv(k, "")
	}
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestFromEnvMissingToken(t *testing.T) {
	setEnv(t, nil)

	_, err := FromEnv()
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestFromEnvBlankToken(t *testing.T) {
	setEnv(t, map[string]string{"TELEGRAM_BOT_TOKEN": "   "})

	if _, err := FromEnv(); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	setEnv(t, map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc"})

	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.BotToken != "123:abc" {
		t.Errorf("token = %q", c.BotToken)
	}
	if c.Port != 8000 {
		t.Errorf("port = %d", c.Port)
	}
	if c.DbPath != "./subscribers.db" {
		t.Errorf("db path = %q", c.DbPath)
	}
	if c.StoreLocale != "en-US" || c.StoreCountry != "US" {
		t.Errorf("store = %s/%s", c.StoreLocale, c.StoreCountry)
	}
	if c.RedisAddr != "" {
		t.Errorf("redis = %q", c.RedisAddr)
	}
	if c.DigestAt != 10*time.Hour {
		t.Errorf("digest at = %v", c.DigestAt)
	}
	if c.PollTimeout != 10*time.Second {
		t.Errorf("poll timeout = %v", c.PollTimeout)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN": "t",
		"PORT":               "9090",
		"STORE_COUNTRY":      "de",
		"DIGEST_AT":          "07:30",
		"POLL_TIMEOUT":       "30s",
	})

	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != 9090 {
		t.Errorf("port = %d", c.Port)
	}
	if c.StoreCountry != "DE" {
		t.Errorf("country = %q", c.StoreCountry)
	}
	if c.DigestAt != 7*time.Hour+30*time.Minute {
		t.Errorf("digest at = %v", c.DigestAt)
	}
	if c.PollTimeout != 30*time.Second {
		t.Errorf("poll timeout = %v", c.PollTimeout)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port":    {"PORT": "http"},
		"port0":   {"PORT": "0"},
		"digest":  {"DIGEST_AT": "25:99"},
		"timeout": {"POLL_TIMEOUT": "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			kv["TELEGRAM_BOT_TOKEN"] = "t"
			setEnv(t, kv)
			if _, err := FromEnv(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
