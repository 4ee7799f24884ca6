// Package config loads homeroom settings. Values are layered, later layers
// winning: built-in defaults, an optional YAML file, then HOMEROOM_*
// environment variables.
//
//	client:
//	  base_url: http://localhost:8080
//	  timeout: 30s
//	server:
//	  store: sqlite
//	  sqlite_path: homeroom.db
//
// The same keys can be set from the environment by upper-casing the path and
// joining it with underscores, e.g. HOMEROOM_CLIENT_BASE_URL or
// HOMEROOM_CLIENT_BREAKER_FAILURES.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/homeroomhq/homeroom/pkg/logger"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "HOMEROOM_"

	// PathEnvVar names the config file when no path is given explicitly.
	PathEnvVar = EnvPrefix + "CONFIG"
)

type Config struct {
	Client ClientConfig `koanf:"client"`
	Server ServerConfig `koanf:"server"`
	Sync   SyncConfig   `koanf:"sync"`
	Log    LogConfig    `koanf:"log"`
}

// ClientConfig tunes the HTTP transport the controllers use.
type ClientConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	AuthToken string        `koanf:"auth_token"`
	// Retries is how often a failed GET is repeated. 0 disables retries.
	Retries int `koanf:"retries"`
	// RateLimit is in requests per second. 0 means unlimited.
	RateLimit float64       `koanf:"rate_limit"`
	RateBurst int           `koanf:"rate_burst"`
	Breaker   BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker. Failures of 0 disables it.
type BreakerConfig struct {
	Failures uint32        `koanf:"failures"`
	OpenFor  time.Duration `koanf:"open_for"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Store           string        `koanf:"store"`
	SQLitePath      string        `koanf:"sqlite_path"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type SyncConfig struct {
	// CascadeDelete drops the children of a deleted board or planner from
	// local state.
	CascadeDelete bool `koanf:"cascade_delete"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	// Format is "console" or "json".
	Format string `koanf:"format"`
	// File, when set, receives log output instead of stderr.
	File string `koanf:"file"`
}

func Default() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL:   "http://localhost:8080",
			Timeout:   30 * time.Second,
			Retries:   2,
			RateLimit: 0,
			RateBurst: 10,
			Breaker: BreakerConfig{
				Failures: 5,
				OpenFor:  30 * time.Second,
			},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			Store:           "memory",
			SQLitePath:      "homeroom.db",
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration. path names a YAML file; when empty the
// file named by HOMEROOM_CONFIG is used, if any.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform(k.Keys())), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envTransform maps HOMEROOM_CLIENT_BREAKER_FAILURES to client.breaker.failures.
// Variables that do not name a known key are skipped.
func envTransform(keys []string) func(string) string {
	known := make(map[string]string, len(keys))
	for _, key := range keys {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}
	return func(name string) string {
		return known[strings.ToLower(strings.TrimPrefix(name, EnvPrefix))]
	}
}

var validStores = map[string]bool{"memory": true, "sqlite": true}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if err := validateBaseURL(c.Client.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("client.timeout must be positive, got %s", c.Client.Timeout))
	}
	if c.Client.Retries < 0 {
		errs = append(errs, fmt.Errorf("client.retries must not be negative, got %d", c.Client.Retries))
	}
	if c.Client.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("client.rate_limit must not be negative, got %g", c.Client.RateLimit))
	}
	if c.Client.Breaker.Failures > 0 && c.Client.Breaker.OpenFor <= 0 {
		errs = append(errs, errors.New("client.breaker.open_for must be positive when the breaker is enabled"))
	}

	if !validStores[c.Server.Store] {
		errs = append(errs, fmt.Errorf("server.store must be memory or sqlite, got %q", c.Server.Store))
	}
	if c.Server.Store == "sqlite" && c.Server.SQLitePath == "" {
		errs = append(errs, errors.New("server.sqlite_path is required for the sqlite store"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout))
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("client.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("client.base_url must be an http or https URL, got %q", raw)
	}
	return nil
}
