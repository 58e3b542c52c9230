package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunWithoutTokenFailsFast(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subscribers.db")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DB_PATH", dbPath)

	if code := run(); code == 0 {
		t.Fatal("expected non-zero exit code")
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Errorf("startup went past configuration: db file exists (err=%v)", err)
	}
}

func TestRunWithInvalidConfigFails(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("PORT", "not-a-port")

	if code := run(); code == 0 {
		t.Fatal("expected non-zero exit code")
	}
}
