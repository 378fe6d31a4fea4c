package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the global ~/.chatter/config.toml.
type Config struct {
	DefaultSession string   `toml:"default_session"`
	User           User     `toml:"user"`
	Realtime       Realtime `toml:"realtime"`
	Search         Search   `toml:"search"`
	Daemon         Daemon   `toml:"daemon"`
}

// User is the identity the TUI and chatterctl call the daemon as.
type User struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Username string `toml:"username"`
}

type Realtime struct {
	Channel string `toml:"channel"`
	// ReplayFrom is -1 for new events only, -2 for every retained event, or
	// the position after which to resume.
	ReplayFrom int64 `toml:"replay_from"`
}

type Search struct {
	DebounceMs int `toml:"debounce_ms"`
}

type Daemon struct {
	// Channels lists realtime channels accepted besides the default one.
	Channels []string `toml:"channels"`
	LogLevel string   `toml:"log_level"`
	// RetainEvents caps the event log; 0 keeps every event.
	RetainEvents int `toml:"retain_events"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		Realtime: Realtime{
			Channel:    "/event/chatter/message",
			ReplayFrom: -1,
		},
		Search: Search{DebounceMs: 300},
		Daemon: Daemon{LogLevel: "info", RetainEvents: 10_000},
	}
}

// Debounce returns the search debounce delay.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Search.DebounceMs) * time.Millisecond
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	if c.Realtime.ReplayFrom < -2 {
		return fmt.Errorf("realtime.replay_from must be -1, -2 or a position, got %d", c.Realtime.ReplayFrom)
	}
	if c.Realtime.Channel != "" && !strings.HasPrefix(c.Realtime.Channel, "/") {
		return fmt.Errorf("realtime.channel %q must start with /", c.Realtime.Channel)
	}
	if c.Daemon.RetainEvents < 0 {
		return fmt.Errorf("daemon.retain_events must not be negative, got %d", c.Daemon.RetainEvents)
	}
	if c.Search.DebounceMs < 0 {
		return fmt.Errorf("search.debounce_ms must not be negative, got %d", c.Search.DebounceMs)
	}
	return nil
}

// Load reads config from path on top of Default. A missing file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
