package config

import (
	"path/filepath"
	"testing"
)

// TestDefaults verifies defaults survive an empty backend.
func TestDefaults(t *testing.T) {
	cfg, err := loadWith(mapBackend{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Services.AuthURL != "https://auth.infogrep.app" {
		t.Errorf("Services.AuthURL = %q, want %q", cfg.Services.AuthURL, "https://auth.infogrep.app")
	}
	if cfg.Services.AIURL != "https://ai.infogrep.app" {
		t.Errorf("Services.AIURL = %q, want %q", cfg.Services.AIURL, "https://ai.infogrep.app")
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir should have a default")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestBackendOverridesDefaults(t *testing.T) {
	b := mapBackend{
		"services.chat_url": "http://localhost:9999",
		"log.level":         "debug",
	}

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Services.ChatURL != "http://localhost:9999" {
		t.Errorf("Services.ChatURL = %q, want backend value", cfg.Services.ChatURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Services.AuthURL != "https://auth.infogrep.app" {
		t.Errorf("Services.AuthURL = %q, want default", cfg.Services.AuthURL)
	}
}

// TestEnvOverridesBackend verifies environment variables win over backend values.
func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("INFOGREP_AUTH_URL", "http://env-auth:1234")
	t.Setenv("INFOGREP_DATA_DIR", "/tmp/env-data")

	b := mapBackend{"services.auth_url": "http://backend-auth:5678"}

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Services.AuthURL != "http://env-auth:1234" {
		t.Errorf("Services.AuthURL = %q, want env value", cfg.Services.AuthURL)
	}
	if cfg.Storage.DataDir != "/tmp/env-data" {
		t.Errorf("Storage.DataDir = %q, want env value", cfg.Storage.DataDir)
	}
}

func TestSetKeyUnknown(t *testing.T) {
	if err := setKeyWith(mapBackend{}, "nope.nothing", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSetKeyRoundTrip(t *testing.T) {
	b := mapBackend{}
	if err := setKeyWith(b, "services.file_url", "http://files:8080"); err != nil {
		t.Fatalf("setKeyWith: %v", err)
	}

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Services.FileURL != "http://files:8080" {
		t.Errorf("Services.FileURL = %q, want written value", cfg.Services.FileURL)
	}
}

// TestFileBackendRoundTrip exercises the real JSON file backend.
func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	b := newFileBackend(path)

	if _, ok, err := b.Get("services.ai_url"); err != nil || ok {
		t.Fatalf("Get on missing file: ok=%v err=%v, want absent", ok, err)
	}

	if err := b.Set("services.ai_url", "http://ai:8080"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := b.Get("services.ai_url")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || v != "http://ai:8080" {
		t.Errorf("Get = %q ok=%v, want written value", v, ok)
	}

	// A second key must not clobber the first.
	if err := b.Set("log.level", "debug"); err != nil {
		t.Fatalf("Set second key: %v", err)
	}
	v, ok, _ = b.Get("services.ai_url")
	if !ok || v != "http://ai:8080" {
		t.Errorf("first key lost after second Set: %q ok=%v", v, ok)
	}
}

func TestValidKeys(t *testing.T) {
	keys := ValidKeys()
	if len(keys) != len(specs) {
		t.Fatalf("ValidKeys returned %d keys, want %d", len(keys), len(specs))
	}
	seen := map[string]bool{}
	for _, k := range keys {
		if seen[k] {
			t.Errorf("duplicate key %q", k)
		}
		seen[k] = true
	}
}
