package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values; invalid values are ignored.
// The returned error lists the interval overrides that were ignored; every
// other setting has still been applied.
func LoadFromEnv(cfg *Config) error {
	var problems []string

	// Target configuration
	if name := os.Getenv("ADMUTE_PROCESS_NAME"); name != "" {
		cfg.Target.ProcessName = name
	}

	if search := os.Getenv("ADMUTE_SEARCH"); search != "" {
		cfg.Target.SearchSubstring = search
	}

	if marker := os.Getenv("ADMUTE_MARKER"); marker != "" {
		cfg.Target.AdvertMarker = marker
	}

	// Monitor configuration
	search := envMillis("ADMUTE_SEARCH_INTERVAL_MS", cfg.Monitor.SearchInterval, &problems)
	idle := envMillis("ADMUTE_IDLE_INTERVAL_MS", cfg.Monitor.IdleInterval, &problems)
	advert := envMillis("ADMUTE_ADVERT_INTERVAL_MS", cfg.Monitor.AdvertInterval, &problems)
	if err := cfg.SetIntervals(search, idle, advert); err != nil {
		problems = append(problems, err.Error())
	}

	if failFast := os.Getenv("ADMUTE_FAIL_FAST"); failFast != "" {
		if val, err := strconv.ParseBool(failFast); err == nil {
			cfg.Monitor.FailFast = val
		}
	}

	// Daemon configuration
	if pidFile := os.Getenv("ADMUTE_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Console configuration
	if clearScreen := os.Getenv("ADMUTE_CLEAR_SCREEN"); clearScreen != "" {
		if val, err := strconv.ParseBool(clearScreen); err == nil {
			cfg.Console.ClearScreen = val
		}
	}

	if color := os.Getenv("ADMUTE_COLOR"); color != "" {
		switch color {
		case "auto", "always", "never":
			cfg.Console.Color = color
		}
	}

	// Log configuration
	if level := os.Getenv("ADMUTE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if file := os.Getenv("ADMUTE_LOG_FILE"); file != "" {
		cfg.Log.File = file
	}

	if len(problems) > 0 {
		return fmt.Errorf("ignored interval overrides: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envMillis(key string, fallback time.Duration, problems *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		*problems = append(*problems, fmt.Sprintf("%s=%q is not a positive number of milliseconds", key, v))
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// New creates a new Config with default values and loads from environment.
// The Config is always usable; a non-nil error reports ignored interval
// overrides.
func New() (*Config, error) {
	cfg := Default()
	err := LoadFromEnv(cfg)
	return cfg, err
}
