package utils

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Collection.MaxGames)
	assert.Equal(t, 51, cfg.Collection.RegionGoal)
	assert.Equal(t, "one_per_region", cfg.Collection.DefaultMode)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTDuration)
	assert.Equal(t, 256, cfg.Images.CacheSize)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platehub.yaml")
	body := []byte("collection:\n  max_games: 3\nlogging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	t.Setenv("PLATEHUB_SERVER_ADDR", ":9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Collection.MaxGames)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	bad := cfg
	bad.Collection.MaxGames = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Auth.JWTSecret = "  "
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Images.MissTTL = 0
	assert.ErrorContains(t, bad.Validate(), "images.miss_ttl")

	bad = cfg
	bad.Collection.DefaultMode = "bogus"
	assert.ErrorContains(t, bad.Validate(), "collection.default_mode")

	good := cfg
	good.Collection.DefaultMode = "unlimited"
	assert.NoError(t, good.Validate())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	log.Info("hidden")
	log.Warn("shown", "component", "test")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"test"`)
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".platehub", "data.db"), ExpandHome("~/.platehub/data.db"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "data/plates.csv", ExpandHome("data/plates.csv"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
