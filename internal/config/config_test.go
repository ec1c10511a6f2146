package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8099", cfg.Addr)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 1440, cfg.FeedDefaultIntervalMin)
	assert.Equal(t, "0 0 6 * * *", cfg.ReminderSpec)
	assert.Equal(t, filepath.Join("./data", "planner.db"), cfg.DBPath())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PLANNER_ADDR", ":9000")
	t.Setenv("PLANNER_FEED_DEFAULT_INTERVAL_MIN", "60")
	t.Setenv("PLANNER_TIMEZONE", "UTC")
	t.Setenv("VERSION", "1.2.3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 60, cfg.FeedDefaultIntervalMin)
	assert.Equal(t, "1.2.3", cfg.Version)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PLANNER_DATA_DIR=/srv/planner\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PLANNER_DATA_DIR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/planner", cfg.DataDir)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PLANNER_TIMEZONE", "Mars/Olympus")
	_, err := Load("")
	assert.Error(t, err)
}
