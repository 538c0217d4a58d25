// Package config loads d3fig settings from a TOML file and the environment.
//
// Settings are resolved in three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. The config file, $XDG_CONFIG_HOME/d3fig/config.toml by default
//  3. D3FIG_* environment variables
//
// Example config.toml:
//
//	d3_url = "https://d3js.org/d3.v3.min.js"
//	mpld3_url = "/static/mpld3.v1.js"
//
//	cache_backend = "redis"
//	cache_ttl = "72h"
//	redis_addr = "localhost:6379"
//
//	store_backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	figerr "github.com/matzehuels/d3fig/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. D3FIG_CACHE_BACKEND.
const EnvPrefix = "D3FIG"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds every user-tunable setting.
type Config struct {
	D3URL    string `toml:"d3_url" envconfig:"D3_URL"`
	MPLD3URL string `toml:"mpld3_url" envconfig:"MPLD3_URL"`

	CacheBackend  string        `toml:"cache_backend" envconfig:"CACHE_BACKEND"`
	CacheDir      string        `toml:"cache_dir" envconfig:"CACHE_DIR"`
	CacheTTL      time.Duration `toml:"cache_ttl" envconfig:"CACHE_TTL"`
	RedisAddr     string        `toml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string        `toml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `toml:"redis_db" envconfig:"REDIS_DB"`

	StoreBackend  string `toml:"store_backend" envconfig:"STORE_BACKEND"`
	StoreDir      string `toml:"store_dir" envconfig:"STORE_DIR"`
	MongoURI      string `toml:"mongo_uri" envconfig:"MONGO_URI"`
	MongoDatabase string `toml:"mongo_database" envconfig:"MONGO_DATABASE"`

	ServeAddr    string `toml:"serve_addr" envconfig:"SERVE_ADDR"`
	ServeRetries int    `toml:"serve_retries" envconfig:"SERVE_RETRIES"`
}

// Default returns the built-in settings. Empty directories mean "use the
// XDG default" and are resolved by the caller.
func Default() *Config {
	return &Config{
		D3URL:         "https://d3js.org/d3.v3.min.js",
		MPLD3URL:      "js/mpld3.v1.js",
		CacheBackend:  CacheFile,
		CacheTTL:      7 * 24 * time.Hour,
		RedisAddr:     "localhost:6379",
		StoreBackend:  StoreFile,
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "d3fig",
		ServeAddr:     "127.0.0.1:8888",
		ServeRetries:  50,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/d3fig/config.toml, falling back to
// ~/.config/d3fig/config.toml.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "d3fig", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "d3fig", "config.toml"), nil
}

// Load resolves the configuration. An empty path reads the default file,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		err := cfg.ReadFile(path)
		if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, figerr.Wrap(figerr.ErrCodeInvalidInput, err, "read environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile decodes the TOML file at path over c. Keys not in the file keep
// their current values; unknown keys are rejected.
func (c *Config) ReadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return figerr.Wrap(figerr.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return figerr.New(figerr.ErrCodeInvalidFormat, "%s: unknown key %q", path, undec[0].String())
	}
	return nil
}

// Validate checks backend names, URLs and numeric ranges.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return figerr.New(figerr.ErrCodeInvalidInput, "cache_backend %q: expected file, redis or none", c.CacheBackend)
	}
	switch c.StoreBackend {
	case StoreFile, StoreMongo, StoreMemory:
	default:
		return figerr.New(figerr.ErrCodeInvalidInput, "store_backend %q: expected file, mongo or memory", c.StoreBackend)
	}
	if c.CacheTTL < 0 {
		return figerr.New(figerr.ErrCodeInvalidInput, "cache_ttl must not be negative")
	}
	if c.ServeRetries < 0 {
		return figerr.New(figerr.ErrCodeInvalidInput, "serve_retries must not be negative")
	}
	if err := figerr.ValidateURL(c.D3URL); err != nil {
		return fmt.Errorf("d3_url: %w", err)
	}
	if err := figerr.ValidateURL(c.MPLD3URL); err != nil {
		return fmt.Errorf("mpld3_url: %w", err)
	}
	return nil
}
