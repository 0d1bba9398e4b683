// Package config loads rigsim settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when --config is unset.
const DefaultPath = "rigsim.yaml"

// Config holds the settings for one rigsim installation. Database selects the
// SQLite slot store; when it is empty the state lives in StateFile.
type Config struct {
	Database          string        `yaml:"database"`
	StateFile         string        `yaml:"state_file"`
	SlotKey           string        `yaml:"slot_key"`
	Speed             float64       `yaml:"speed"`
	GeneratorInterval time.Duration `yaml:"generator_interval"`
	ClickerDuration   int           `yaml:"clicker_duration"`
	ElectricityCost   float64       `yaml:"electricity_cost"`
	Seed              int64         `yaml:"seed"`
	LogLevel          string        `yaml:"log_level"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Database:          "rigsim.db",
		StateFile:         "rigsim-state.json",
		SlotKey:           "rollercoin-game-state",
		Speed:             1,
		GeneratorInterval: 5 * time.Second,
		ClickerDuration:   30,
		ElectricityCost:   0.1,
		LogLevel:          "info",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// Validate checks that every field is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" && strings.TrimSpace(c.StateFile) == "" {
		return errors.New("one of database or state_file is required")
	}
	if strings.TrimSpace(c.SlotKey) == "" {
		return errors.New("slot_key is required")
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", c.Speed)
	}
	if c.GeneratorInterval <= 0 {
		return fmt.Errorf("generator_interval must be positive, got %v", c.GeneratorInterval)
	}
	if c.ClickerDuration <= 0 {
		return fmt.Errorf("clicker_duration must be positive, got %d", c.ClickerDuration)
	}
	if c.ElectricityCost < 0 {
		return fmt.Errorf("electricity_cost must not be negative, got %v", c.ElectricityCost)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured slog level, defaulting to info.
func (c Config) Level() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level: %q", s)
}
