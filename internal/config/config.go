// Package config loads casebuddy settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config is the full settings tree.
type Config struct {
	Storage Storage `toml:"storage"`
	Log     Log     `toml:"log"`
	Auth    Auth    `toml:"auth"`
}

// Storage selects and configures the persistence medium.
type Storage struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	DSN     string `toml:"dsn"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Auth configures login throttling. Durations use time.ParseDuration syntax.
type Auth struct {
	MaxFailures int    `toml:"max_failures"`
	Window      string `toml:"window"`
	BlockFor    string `toml:"block_for"`
}

// DefaultDir returns ~/.casebuddy.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".casebuddy"), nil
}

// Default returns the settings used when no file overrides them.
func Default(dir string) Config {
	return Config{
		Storage: Storage{Backend: BackendSQLite, Dir: dir},
		Log:     Log{Level: "warn"},
		Auth:    Auth{MaxFailures: 5, Window: "5m", BlockFor: "15m"},
	}
}

// Load reads path on top of Default(dir). A missing file is not an error.
func Load(path, dir string) (Config, error) {
	cfg := Default(dir)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to path with owner-only permissions.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks enumerations and durations.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.Storage.DSN == "" {
			return errors.New("config: storage.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if _, _, err := c.Auth.Durations(); err != nil {
		return err
	}
	if c.Auth.MaxFailures < 0 {
		return errors.New("config: auth.max_failures must not be negative")
	}
	return nil
}

// Durations parses the window and block durations.
func (a Auth) Durations() (window, blockFor time.Duration, err error) {
	if window, err = time.ParseDuration(a.Window); err != nil {
		return 0, 0, fmt.Errorf("config: auth.window: %w", err)
	}
	if blockFor, err = time.ParseDuration(a.BlockFor); err != nil {
		return 0, 0, fmt.Errorf("config: auth.block_for: %w", err)
	}
	return window, blockFor, nil
}

// SQLitePath is the database file used by the sqlite backend.
func (s Storage) SQLitePath() string { return filepath.Join(s.Dir, "casebuddy.db") }

// FileDir is the directory used by the file backend.
func (s Storage) FileDir() string { return filepath.Join(s.Dir, "data") }
