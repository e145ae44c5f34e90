package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8787 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8787)
	}
	if cfg.Tracker.HistorySize != 10 || cfg.Tracker.Timezone != "UTC" {
		t.Errorf("Tracker = %+v", cfg.Tracker)
	}
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.TTL.Duration != 6*time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfigFile_MissingUsesDefaults(t *testing.T) {
	t.Setenv("SUGARSTREAK_REDIS_ADDR", "")
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if cfg.API.Port != 8787 {
		t.Errorf("API.Port = %d, want default", cfg.API.Port)
	}
}

func TestLoadConfigFile_Parses(t *testing.T) {
	t.Setenv("SUGARSTREAK_REDIS_ADDR", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
port = 9000

[tracker]
timezone = "Europe/Paris"
seed = 7

[cache]
backend = "sqlite"
ttl = "90m"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if cfg.API.Port != 9000 || cfg.Tracker.Timezone != "Europe/Paris" || cfg.Tracker.Seed != 7 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("ttl = %v, want 90m", cfg.Cache.TTL)
	}
	if cfg.Cache.PurgeInterval.Duration != 15*time.Minute {
		t.Errorf("purge interval = %v, want default 15m", cfg.Cache.PurgeInterval)
	}
}

func TestLoadConfigFile_EnvSelectsRedis(t *testing.T) {
	t.Setenv("SUGARSTREAK_REDIS_ADDR", "localhost:6379")
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.API.Port = 0 }},
		{"bad timezone", func(c *Config) { c.Tracker.Timezone = "Nowhere/Land" }},
		{"bad backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("SUGARSTREAK_HOME", t.TempDir())
	t.Setenv("SUGARSTREAK_REDIS_ADDR", "")

	cfg := DefaultConfig()
	cfg.Tracker.HistorySize = 4
	cfg.Health.Interval = Duration{2 * time.Minute}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Tracker.HistorySize != 4 || loaded.Health.Interval.Duration != 2*time.Minute {
		t.Errorf("loaded = %+v", loaded)
	}
}
