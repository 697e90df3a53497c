package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "ecomax"
	configFile = "config.yaml"
)

// Defaults applied when a setting is absent from the file.
const (
	DefaultPort            = 8899
	DefaultPollSeconds     = 30
	DefaultExchangeSeconds = 10
	DefaultListenAddr      = ":8080"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// Config holds the persisted settings shared by the CLI and the monitor
// daemon. Zero/absent values fall back to defaults on load; the device host
// is the only setting without a usable default.
type Config struct {
	Version int `yaml:"version"`

	// Device is the TCP serial bridge in front of the controller.
	Device DeviceConfig `yaml:"device"`

	// Monitor configures the polling daemon.
	Monitor MonitorConfig `yaml:"monitor"`

	// Log configures file logging for the daemon. Console verbosity is
	// controlled by ECOMAX_LOG_LEVEL or command flags, not by this file.
	Log LogConfig `yaml:"log"`
}

// DeviceConfig locates the controller and bounds each exchange.
type DeviceConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-exchange timeout as a duration.
func (d DeviceConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// MonitorConfig configures the polling daemon.
type MonitorConfig struct {
	PollSeconds int    `yaml:"poll_seconds"`
	ListenAddr  string `yaml:"listen_addr"`
}

// PollInterval returns the polling period as a duration.
func (m MonitorConfig) PollInterval() time.Duration {
	return time.Duration(m.PollSeconds) * time.Second
}

// LogConfig configures rotating file logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// New returns a config populated with defaults.
func New() *Config {
	return &Config{
		Version: 1,
		Device: DeviceConfig{
			Port:           DefaultPort,
			TimeoutSeconds: DefaultExchangeSeconds,
		},
		Monitor: MonitorConfig{
			PollSeconds: DefaultPollSeconds,
			ListenAddr:  DefaultListenAddr,
		},
	}
}

// applyDefaults fills zero values after a load so partial files behave.
func (c *Config) applyDefaults() {
	if c.Device.Port == 0 {
		c.Device.Port = DefaultPort
	}
	if c.Device.TimeoutSeconds == 0 {
		c.Device.TimeoutSeconds = DefaultExchangeSeconds
	}
	if c.Monitor.PollSeconds == 0 {
		c.Monitor.PollSeconds = DefaultPollSeconds
	}
	if c.Monitor.ListenAddr == "" {
		c.Monitor.ListenAddr = DefaultListenAddr
	}
}

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/ecomax or $HOME/.config/ecomax
//   - macOS: $HOME/.config/ecomax (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\ecomax
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		// Linux and other Unix-like systems: Use XDG_CONFIG_HOME or $HOME/.config
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// ensureConfigDir ensures the configuration directory exists.
func ensureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	// User-only permissions (0700)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// Load reads the configuration from disk. A missing file is not an error;
// it yields a config with defaults and an empty device host.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return New(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}
	cfg.Version = 1
	cfg.applyDefaults()

	return &cfg, nil
}

// Save writes the configuration to disk.
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := ensureConfigDir(); err != nil {
		return fmt.Errorf("failed to ensure config directory exists: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# ecoMAX Configuration File
# Stores the serial bridge address and monitor settings shared by
# ecomax-ctl and ecomax-monitor.
#
# Location: ` + configPath + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	// Atomic rename (this is atomic on all platforms)
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
