package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Target process configuration
	Target TargetConfig

	// Monitor loop configuration
	Monitor MonitorConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Console output configuration
	Console ConsoleConfig

	// Diagnostic log configuration
	Log LogConfig
}

// TargetConfig identifies the media player to watch
type TargetConfig struct {
	ProcessName     string // Exact process name whose PIDs are considered
	SearchSubstring string // Case-insensitive substring used to scan the process table
	AdvertMarker    string // Title substring that marks an advertisement
}

// MonitorConfig holds polling behavior configuration
type MonitorConfig struct {
	SearchInterval  time.Duration // Poll interval while the player is not running
	IdleInterval    time.Duration // Poll interval during normal playback
	AdvertInterval  time.Duration // Poll interval while an advertisement is playing
	MinPollInterval time.Duration // Minimum allowed poll interval
	MaxPollInterval time.Duration // Maximum allowed poll interval
	FailFast        bool          // Stop the monitor on the first mute failure
}

// DaemonConfig holds single-instance configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file guarding against two monitors
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	ClearScreen bool   // Clear the terminal once at startup
	Color       string // "auto", "always" or "never"
}

// LogConfig holds diagnostic logging configuration
type LogConfig struct {
	Level string // zerolog level name
	File  string // Optional log file; empty logs to stderr only
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			ProcessName:     defaultProcessName(),
			SearchSubstring: "spotify",
			AdvertMarker:    "Advertisement",
		},
		Monitor: MonitorConfig{
			SearchInterval:  30 * time.Second,
			IdleInterval:    2 * time.Second,
			AdvertInterval:  300 * time.Millisecond,
			MinPollInterval: 100 * time.Millisecond,
			MaxPollInterval: 5 * time.Minute,
			FailFast:        false,
		},
		Daemon: DaemonConfig{
			PIDFile: defaultPIDFile(),
		},
		Console: ConsoleConfig{
			ClearScreen: true,
			Color:       "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaultPIDFile is per user: the uid elsewhere, the per-user temp directory
// on Windows, where there is no uid
func defaultPIDFile() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.TempDir(), "admute.pid")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("admute-%d.pid", os.Getuid()))
}

func defaultProcessName() string {
	if runtime.GOOS == "windows" {
		return "Spotify.exe"
	}
	return "spotify"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Target.ProcessName == "" {
		return fmt.Errorf("target process name cannot be empty")
	}
	if c.Target.SearchSubstring == "" {
		return fmt.Errorf("search substring cannot be empty")
	}
	if c.Target.AdvertMarker == "" {
		return fmt.Errorf("advertisement marker cannot be empty")
	}

	if err := c.validateIntervals(c.Monitor.SearchInterval, c.Monitor.IdleInterval, c.Monitor.AdvertInterval); err != nil {
		return err
	}

	switch c.Console.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("console color must be auto, always or never, got %q", c.Console.Color)
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

func (c *Config) validateIntervals(search, idle, advert time.Duration) error {
	named := []struct {
		name string
		d    time.Duration
	}{
		{"search interval", search},
		{"idle interval", idle},
		{"advert interval", advert},
	}

	for _, n := range named {
		if n.d < c.Monitor.MinPollInterval {
			return fmt.Errorf("%s (%v) cannot be less than minimum (%v)", n.name, n.d, c.Monitor.MinPollInterval)
		}
		if n.d > c.Monitor.MaxPollInterval {
			return fmt.Errorf("%s (%v) cannot be greater than maximum (%v)", n.name, n.d, c.Monitor.MaxPollInterval)
		}
	}

	if advert > idle {
		return fmt.Errorf("advert interval (%v) cannot be greater than idle interval (%v)", advert, idle)
	}
	if idle > search {
		return fmt.Errorf("idle interval (%v) cannot be greater than search interval (%v)", idle, search)
	}

	return nil
}

// SetIntervals sets the three poll intervals with validation
func (c *Config) SetIntervals(search, idle, advert time.Duration) error {
	if err := c.validateIntervals(search, idle, advert); err != nil {
		return err
	}
	c.Monitor.SearchInterval = search
	c.Monitor.IdleInterval = idle
	c.Monitor.AdvertInterval = advert
	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Target:
    Process Name: %s
    Search: %s
    Advert Marker: %s
  Monitor:
    Search Interval: %v
    Idle Interval: %v
    Advert Interval: %v
    Fail Fast: %v
  Daemon:
    PID File: %s
  Console:
    Clear Screen: %v
    Color: %s
  Log:
    Level: %s
    File: %s`,
		c.Target.ProcessName,
		c.Target.SearchSubstring,
		c.Target.AdvertMarker,
		c.Monitor.SearchInterval,
		c.Monitor.IdleInterval,
		c.Monitor.AdvertInterval,
		c.Monitor.FailFast,
		c.Daemon.PIDFile,
		c.Console.ClearScreen,
		c.Console.Color,
		c.Log.Level,
		c.Log.File,
	)
}
