package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration read from a JSON file and overridden
// by environment variables.
type Config struct {
	Addr        string            `json:"addr"`
	ClientDir   string            `json:"clientDir"`
	Log         LogConfig         `json:"log"`
	World       WorldConfig       `json:"world"`
	Leaderboard LeaderboardConfig `json:"leaderboard"`
}

type LogConfig struct {
	Level string `json:"level"`
	// JSONPath enables the newline-delimited JSON sink when set.
	JSONPath   string `json:"jsonPath,omitempty"`
	BufferSize int    `json:"bufferSize"`
}

type WorldConfig struct {
	Seed               string `json:"seed,omitempty"`
	RespawnDelayMillis int    `json:"respawnDelayMillis"`
	MaxChatLength      int    `json:"maxChatLength"`
	MaxNameLength      int    `json:"maxNameLength"`
}

type LeaderboardConfig struct {
	Path        string `json:"path"`
	RetainLimit int    `json:"retainLimit"`
}

func Default() Config {
	return Config{
		Addr:      ":3000",
		ClientDir: "public",
		Log: LogConfig{
			Level:      "info",
			BufferSize: 1024,
		},
		World: WorldConfig{
			RespawnDelayMillis: 2000,
			MaxChatLength:      200,
			MaxNameLength:      32,
		},
		Leaderboard: LeaderboardConfig{
			Path:        "records.db",
			RetainLimit: 50,
		},
	}
}

// RespawnDelay converts the configured milliseconds.
func (c Config) RespawnDelay() time.Duration {
	return time.Duration(c.World.RespawnDelayMillis) * time.Millisecond
}

// Load reads path over the defaults. A missing file is created with the
// defaults so operators have something to edit. Environment overrides are
// applied last.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup lookupFunc) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if err := Save(path, cfg); err != nil {
				return Config{}, err
			}
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg as indented JSON.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	if raw, ok := lookup("SNAKE_ADDR"); ok && raw != "" {
		cfg.Addr = raw
	} else if raw, ok := lookup("PORT"); ok && raw != "" {
		if _, err := strconv.Atoi(raw); err != nil {
			return fmt.Errorf("invalid PORT=%q: %w", raw, err)
		}
		cfg.Addr = ":" + raw
	}
	if raw, ok := lookup("SNAKE_DB_PATH"); ok && raw != "" {
		cfg.Leaderboard.Path = raw
	}
	if raw, ok := lookup("SNAKE_CLIENT_DIR"); ok && raw != "" {
		cfg.ClientDir = raw
	}
	if raw, ok := lookup("SNAKE_WORLD_SEED"); ok && raw != "" {
		cfg.World.Seed = raw
	}
	if raw, ok := lookup("SNAKE_LOG_LEVEL"); ok && raw != "" {
		cfg.Log.Level = strings.ToLower(raw)
	}
	if raw, ok := lookup("SNAKE_LOG_JSON"); ok && raw != "" {
		cfg.Log.JSONPath = raw
	}
	return nil
}
