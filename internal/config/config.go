// Package config handles YAML configuration loading with environment
// variable expansion, plus the gateway's env-var-driven secrets (§6).
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"
)

// Config is the top-level gateway configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Hytale    HytaleConfig    `yaml:"hytale"`
	Minecraft MinecraftConfig `yaml:"minecraft"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`    // OTLP gRPC endpoint
	SampleRate float64 `yaml:"sample_rate"` // 0.0 to 1.0
}

// CacheConfig holds edge/profile response cache settings.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	MaxSize    int           `yaml:"max_size"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // file path or ":memory:"
}

// HytaleConfig holds the session-pool tuning knobs for internal/hytale.Manager.
type HytaleConfig struct {
	BaseURL      string   `yaml:"base_url"`      // account-data / oauth host
	RefreshToken string   `yaml:"refresh_token"` // HYTALE_REFRESH_TOKEN
	ProfileUUID  string   `yaml:"profile_uuid"`  // HYTALE_PROFILE_UUID
	MinPool      int      `yaml:"min_pool"`      // HYTALE_SESSION_POOL_MIN
	MaxPool      int      `yaml:"max_pool"`      // HYTALE_SESSION_POOL_MAX
	ProxyEndpoints []string `yaml:"proxy_endpoints"` // off-box proxy instances for the container-proxy transport
}

// MinecraftConfig holds the off-box proxy host substituted into Mojang
// session-server URLs on a rate-limit/forbidden response (§4.D.3).
type MinecraftConfig struct {
	ProxyHost string `yaml:"proxy_host"`
}

// PlatformKeys holds the per-platform upstream credentials (§6), read
// directly from the environment rather than the YAML file since these are
// always expected to come from secrets, not a checked-in config.
type PlatformKeys struct {
	XboxAPIKey      string
	SteamAPIKeys    []string // STEAM_APIKEY, STEAM_APIKEY2..4
	NodecraftAPIKey string
	BypassCache     bool
}

// LoadPlatformKeys reads the upstream credentials from the process
// environment (§6).
func LoadPlatformKeys() PlatformKeys {
	keys := PlatformKeys{
		XboxAPIKey:      os.Getenv("XBOX_APIKEY"),
		NodecraftAPIKey: os.Getenv("NODECRAFT_API_KEY"),
		BypassCache:     os.Getenv("BYPASS_CACHE") == "true",
	}
	if k := os.Getenv("STEAM_APIKEY"); k != "" {
		keys.SteamAPIKeys = append(keys.SteamAPIKeys, k)
	}
	for _, name := range []string{"STEAM_APIKEY2", "STEAM_APIKEY3", "STEAM_APIKEY4"} {
		if k := os.Getenv(name); k != "" {
			keys.SteamAPIKeys = append(keys.SteamAPIKeys, k)
		}
	}
	return keys
}

// ApplyHytaleEnv overlays HYTALE_REFRESH_TOKEN, HYTALE_PROFILE_UUID,
// HYTALE_SESSION_POOL_MIN, and HYTALE_SESSION_POOL_MAX onto cfg (§6). Env
// vars win over whatever the YAML file set, since they are the expected
// secret-delivery mechanism.
func ApplyHytaleEnv(cfg *HytaleConfig) {
	if v := os.Getenv("HYTALE_REFRESH_TOKEN"); v != "" {
		cfg.RefreshToken = v
	}
	if v := os.Getenv("HYTALE_PROFILE_UUID"); v != "" {
		cfg.ProfileUUID = v
	}
	if v := os.Getenv("HYTALE_SESSION_POOL_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MinPool = n
		}
	}
	if v := os.Getenv("HYTALE_SESSION_POOL_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxPool = n
		}
	}
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} patterns with environment variable values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file, expanding environment
// variables. A missing file is not an error: the binary runs with the
// defaults below and its env-var secrets (§6).
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN: "playerlookup.db",
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxSize:    10_000,
			DefaultTTL: 24 * time.Hour,
		},
		Hytale: HytaleConfig{
			BaseURL: "https://account-data.hytale.com",
			MinPool: 1,
			MaxPool: 10,
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	data = expandEnv(data)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
