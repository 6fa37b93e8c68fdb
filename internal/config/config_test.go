package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	yaml := `
server:
  addr: ":9090"
  read_timeout: 10s
database:
  dsn: ":memory:"
hytale:
  min_pool: 2
  max_pool: 20
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want %q", cfg.Server.Addr, ":9090")
	}
	if cfg.Database.DSN != ":memory:" {
		t.Errorf("dsn = %q, want %q", cfg.Database.DSN, ":memory:")
	}
	if cfg.Hytale.MinPool != 2 || cfg.Hytale.MaxPool != 20 {
		t.Errorf("hytale pool = %d/%d, want 2/20", cfg.Hytale.MinPool, cfg.Hytale.MaxPool)
	}
}

func TestExpandEnv(t *testing.T) {
	// Cannot use t.Parallel() with t.Setenv.
	t.Setenv("TEST_REFRESH_TOKEN", "rt-secret-123")

	result := expandEnv([]byte("refresh_token: ${TEST_REFRESH_TOKEN}"))
	if string(result) != "refresh_token: rt-secret-123" {
		t.Errorf("expandEnv = %q, want %q", string(result), "refresh_token: rt-secret-123")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
	if cfg.Database.DSN != "playerlookup.db" {
		t.Errorf("default dsn = %q, want %q", cfg.Database.DSN, "playerlookup.db")
	}
	if cfg.Hytale.MinPool != 1 || cfg.Hytale.MaxPool != 10 {
		t.Errorf("default hytale pool = %d/%d, want 1/10", cfg.Hytale.MinPool, cfg.Hytale.MaxPool)
	}
}

func TestApplyHytaleEnv(t *testing.T) {
	t.Setenv("HYTALE_REFRESH_TOKEN", "rt-123")
	t.Setenv("HYTALE_PROFILE_UUID", "uuid-123")
	t.Setenv("HYTALE_SESSION_POOL_MIN", "3")
	t.Setenv("HYTALE_SESSION_POOL_MAX", "30")

	cfg := HytaleConfig{MinPool: 1, MaxPool: 10}
	ApplyHytaleEnv(&cfg)

	if cfg.RefreshToken != "rt-123" || cfg.ProfileUUID != "uuid-123" {
		t.Errorf("token/uuid = %q/%q", cfg.RefreshToken, cfg.ProfileUUID)
	}
	if cfg.MinPool != 3 || cfg.MaxPool != 30 {
		t.Errorf("pool = %d/%d, want 3/30", cfg.MinPool, cfg.MaxPool)
	}
}

func TestLoadPlatformKeys(t *testing.T) {
	t.Setenv("XBOX_APIKEY", "xbox-key")
	t.Setenv("STEAM_APIKEY", "steam-key-1")
	t.Setenv("STEAM_APIKEY2", "steam-key-2")
	t.Setenv("BYPASS_CACHE", "true")

	keys := LoadPlatformKeys()
	if keys.XboxAPIKey != "xbox-key" {
		t.Errorf("XboxAPIKey = %q", keys.XboxAPIKey)
	}
	if len(keys.SteamAPIKeys) != 2 {
		t.Fatalf("SteamAPIKeys = %v, want 2 entries", keys.SteamAPIKeys)
	}
	if !keys.BypassCache {
		t.Error("BypassCache = false, want true")
	}
}
