// Package daemon manages the sugarstreak runtime: configuration, service
// wiring, the HTTP server and scheduled maintenance.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // IANA zones for user calendars on minimal hosts

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Tracker   TrackerConfig   `toml:"tracker"`
	Cache     CacheConfig     `toml:"cache"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Health    HealthConfig    `toml:"health"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StorageConfig controls where the SQLite database lives.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// TrackerConfig tunes gamification and insight selection.
type TrackerConfig struct {
	Timezone    string `toml:"timezone"`
	HistorySize int    `toml:"history_size"`
	MaxRetries  int    `toml:"max_retries"`
	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64 `toml:"seed"`
}

// CacheConfig selects the context label cache backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"` // "sqlite" or "redis"
	TTL           Duration `toml:"ttl"`
	PurgeInterval Duration `toml:"purge_interval"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Mode  string `toml:"mode"` // "development" or "production"
	Level string `toml:"level"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// HealthConfig controls the scheduled health checks.
type HealthConfig struct {
	Interval Duration `toml:"interval"`
}

// Duration is a time.Duration written as "90s", "6h" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8787,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Dir: filepath.Join(sugarstreakHome(), "data"),
		},
		Tracker: TrackerConfig{
			Timezone:    "UTC",
			HistorySize: 10,
			MaxRetries:  3,
		},
		Cache: CacheConfig{
			Backend:       "sqlite",
			TTL:           Duration{6 * time.Hour},
			PurgeInterval: Duration{15 * time.Minute},
		},
		Logging: LoggingConfig{
			Mode:  "development",
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Health: HealthConfig{
			Interval: Duration{60 * time.Second},
		},
	}
}

// LoadConfig reads $SUGARSTREAK_HOME/config.toml, falling back to defaults,
// then applies environment overrides.
func LoadConfig() (Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile reads the config at path. A missing file yields defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("stat config: %w", err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("SUGARSTREAK_REDIS_ADDR")); v != "" {
		cfg.Cache.RedisAddr = v
		cfg.Cache.Backend = "redis"
	}
	if v := strings.TrimSpace(os.Getenv("SUGARSTREAK_LOG_MODE")); v != "" {
		cfg.Logging.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("SUGARSTREAK_TIMEZONE")); v != "" {
		cfg.Tracker.Timezone = v
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if _, err := time.LoadLocation(c.Tracker.Timezone); err != nil {
		return fmt.Errorf("tracker.timezone: %w", err)
	}
	switch c.Cache.Backend {
	case "sqlite":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q must be sqlite or redis", c.Cache.Backend)
	}
	return nil
}

// SaveConfig writes the config to $SUGARSTREAK_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ConfigPath is the location of the config file.
func ConfigPath() string {
	return filepath.Join(sugarstreakHome(), "config.toml")
}

// sugarstreakHome returns the data directory.
func sugarstreakHome() string {
	if env := os.Getenv("SUGARSTREAK_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sugarstreak")
}

// Home is exported for use by other packages.
func Home() string {
	return sugarstreakHome()
}
