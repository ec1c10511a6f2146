// Package config loads server settings from defaults, an optional .env file
// and PLANNER_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PLANNER_DATA_DIR.
const EnvPrefix = "PLANNER"

// Config holds the server settings.
type Config struct {
	Addr                   string
	DataDir                string
	StaticDir              string
	FeedDefaultIntervalMin int
	ReminderSpec           string
	RefreshSpec            string
	Timezone               string
	Version                string
}

// DBPath is where the SQLite file lives.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "planner.db")
}

// Location resolves Timezone, falling back to the host's zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("addr", ":8099")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("static_dir", "./static")
	v.SetDefault("feed_default_interval_min", 1440)
	v.SetDefault("reminder_spec", "0 0 6 * * *")
	v.SetDefault("refresh_spec", "@every 5m")
	v.SetDefault("timezone", "Local")
	v.SetDefault("version", "dev")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// VERSION is set by the add-on image without a prefix
	_ = v.BindEnv("version", EnvPrefix+"_VERSION", "VERSION")
	return v
}

// Load reads configuration. A .env file at dotEnvPath is loaded first if it
// exists; variables already set in the environment win.
func Load(dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, fmt.Errorf("loading %s: %w", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking %s: %w", dotEnvPath, err)
		}
	}

	v := newViper()
	cfg := &Config{
		Addr:                   v.GetString("addr"),
		DataDir:                v.GetString("data_dir"),
		StaticDir:              v.GetString("static_dir"),
		FeedDefaultIntervalMin: v.GetInt("feed_default_interval_min"),
		ReminderSpec:           v.GetString("reminder_spec"),
		RefreshSpec:            v.GetString("refresh_spec"),
		Timezone:               v.GetString("timezone"),
		Version:                v.GetString("version"),
	}

	if cfg.FeedDefaultIntervalMin <= 0 {
		return nil, fmt.Errorf("feed_default_interval_min must be positive, got %d", cfg.FeedDefaultIntervalMin)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}
