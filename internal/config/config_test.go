package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file gives defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("empty path gives defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("overrides keep unset defaults", func(t *testing.T) {
		path := writeTempConfig(t, "speed: 60\ngenerator_interval: 2s\nseed: 42\nlog_level: debug\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 60.0, cfg.Speed)
		assert.Equal(t, 2*time.Second, cfg.GeneratorInterval)
		assert.Equal(t, int64(42), cfg.Seed)
		assert.Equal(t, slog.LevelDebug, cfg.Level())
		assert.Equal(t, "rigsim.db", cfg.Database)
		assert.Equal(t, 30, cfg.ClickerDuration)
	})

	t.Run("file slot only", func(t *testing.T) {
		path := writeTempConfig(t, "database: \"\"\nstate_file: save.json\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, cfg.Database)
		assert.Equal(t, "save.json", cfg.StateFile)
	})

	invalid := map[string]string{
		"invalid yaml":        "speed: [\n",
		"no storage":          "database: \"\"\nstate_file: \"\"\n",
		"empty slot key":      "slot_key: \" \"\n",
		"zero speed":          "speed: 0\n",
		"negative interval":   "generator_interval: -1s\n",
		"zero clicker length": "clicker_duration: 0\n",
		"negative cost":       "electricity_cost: -0.2\n",
		"unknown log level":   "log_level: loud\n",
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, body))
			assert.Error(t, err)
		})
	}

	t.Run("no storage message", func(t *testing.T) {
		err := Config{SlotKey: "k", Speed: 1, GeneratorInterval: time.Second, ClickerDuration: 1}.Validate()
		assert.EqualError(t, err, "one of database or state_file is required")
	})

	t.Run("unreadable path", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})
}

func TestLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, Config{LogLevel: in}.Level(), "level %q", in)
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rigsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}
