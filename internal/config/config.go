package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/benvon/taskdeck/internal/validation"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DatabasePath        string `yaml:"database_path"`
	DebugMode           bool   `yaml:"debug"`
	ExpandWindowDays    int    `yaml:"expand_window_days"`
	DefaultReminderTime string `yaml:"default_reminder_time"`
	RefreshTime         string `yaml:"refresh_time"`
	CacheTTLMinutes     int    `yaml:"cache_ttl_minutes"`
	CacheMaxEntries     int    `yaml:"cache_max_entries"`
}

// Load reads configuration from a YAML file, then applies TASKDECK_*
// environment overrides. A missing file is fine; defaults apply. An empty
// path resolves to the per-user config directory.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ExpandWindowDays:    14,
		DefaultReminderTime: "09:00",
		RefreshTime:         "00:05",
		CacheTTLMinutes:     15,
		CacheMaxEntries:     1000,
	}

	if path == "" {
		path = defaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.DatabasePath = getEnv("TASKDECK_DB_PATH", cfg.DatabasePath)
	cfg.DebugMode = getEnvBool("TASKDECK_DEBUG", cfg.DebugMode)
	cfg.ExpandWindowDays = getEnvInt("TASKDECK_WINDOW_DAYS", cfg.ExpandWindowDays)
	cfg.DefaultReminderTime = getEnv("TASKDECK_REMINDER_TIME", cfg.DefaultReminderTime)
	cfg.RefreshTime = getEnv("TASKDECK_REFRESH_TIME", cfg.RefreshTime)

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDBPath()
	}
	if cfg.ExpandWindowDays < 1 {
		return nil, fmt.Errorf("expand_window_days must be at least 1, got %d", cfg.ExpandWindowDays)
	}
	if !validation.IsClockTime(cfg.DefaultReminderTime) {
		return nil, fmt.Errorf("default_reminder_time %q is not a valid HH:MM time", cfg.DefaultReminderTime)
	}
	if !validation.IsClockTime(cfg.RefreshTime) {
		return nil, fmt.Errorf("refresh_time %q is not a valid HH:MM time", cfg.RefreshTime)
	}

	return cfg, nil
}

func defaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taskdeck", "config.yaml")
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "taskdeck.db"
	}
	return filepath.Join(dir, "taskdeck", "taskdeck.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
