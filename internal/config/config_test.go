package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies defaults survive an absent config file.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newFileBackend(filepath.Join(t.TempDir(), "missing.json")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Errorf("Server.BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Upload.ProgressResetDelayMS != 800 {
		t.Errorf("ProgressResetDelayMS = %d", cfg.Upload.ProgressResetDelayMS)
	}
	if cfg.ProgressResetDelay() != 800*time.Millisecond {
		t.Errorf("ProgressResetDelay() = %v", cfg.ProgressResetDelay())
	}
}

// TestFileValues verifies values are read from the JSON backend.
func TestFileValues(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `{
		"server.base_url": "http://qa.internal:9000",
		"storage.data_dir": "/tmp/docq-test",
		"log.level": "debug",
		"upload.progress_reset_delay_ms": 200
	}`)

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.BaseURL != "http://qa.internal:9000" {
		t.Errorf("Server.BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Storage.DataDir != "/tmp/docq-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Upload.ProgressResetDelayMS != 200 {
		t.Errorf("ProgressResetDelayMS = %d", cfg.Upload.ProgressResetDelayMS)
	}
}

// TestEnvOverride verifies environment variables override file values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `{"server.base_url": "http://from-file"}`)

	t.Setenv("DOCQ_SERVER_BASE_URL", "http://from-env")
	t.Setenv("DOCQ_UPLOAD_PROGRESS_RESET_DELAY_MS", "50")

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.BaseURL != "http://from-env" {
		t.Errorf("Server.BaseURL = %q, want env override", cfg.Server.BaseURL)
	}
	if cfg.Upload.ProgressResetDelayMS != 50 {
		t.Errorf("ProgressResetDelayMS = %d, want 50", cfg.Upload.ProgressResetDelayMS)
	}
}

// TestInvalidTypeFails verifies a bad value in the file is surfaced.
func TestInvalidTypeFails(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `{"upload.progress_reset_delay_ms": 1.5}`)

	if _, err := loadWith(newFileBackend(path)); err == nil {
		t.Fatal("expected an error for a fractional integer value")
	}
}

func TestSetKeyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	b := newFileBackend(path)

	if err := setKey(b, "log.level", "debug"); err != nil {
		t.Fatalf("setKey: %v", err)
	}
	if err := setKey(b, "upload.progress_reset_delay_ms", "250"); err != nil {
		t.Fatalf("setKey: %v", err)
	}

	v, ok, err := newFileBackend(path).GetString("log.level")
	if err != nil || !ok || v != "debug" {
		t.Errorf("GetString = %q, %v, %v", v, ok, err)
	}
	n, ok, err := newFileBackend(path).GetInt("upload.progress_reset_delay_ms")
	if err != nil || !ok || n != 250 {
		t.Errorf("GetInt = %d, %v, %v", n, ok, err)
	}
}

func TestSetKey_Unknown(t *testing.T) {
	b := newFileBackend(filepath.Join(t.TempDir(), "config.json"))
	if err := setKey(b, "nope.key", "x"); err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}

func TestSetKey_BadInt(t *testing.T) {
	b := newFileBackend(filepath.Join(t.TempDir(), "config.json"))
	if err := setKey(b, "upload.progress_reset_delay_ms", "soon"); err == nil {
		t.Fatal("expected an error for a non-integer value")
	}
}
