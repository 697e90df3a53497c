package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "ecomax") {
		t.Errorf("GetConfigDir() = %v, should contain 'ecomax'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigDir_RespectsXDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join(dir, "ecomax") {
		t.Errorf("GetConfigDir() = %v, want %v", configDir, filepath.Join(dir, "ecomax"))
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Version != 1 {
		t.Errorf("New().Version = %v, want 1", cfg.Version)
	}
	if cfg.Device.Port != DefaultPort {
		t.Errorf("New().Device.Port = %v, want %v", cfg.Device.Port, DefaultPort)
	}
	if cfg.Device.Timeout() != 10*time.Second {
		t.Errorf("New().Device.Timeout() = %v, want 10s", cfg.Device.Timeout())
	}
	if cfg.Monitor.PollInterval() != 30*time.Second {
		t.Errorf("New().Monitor.PollInterval() = %v, want 30s", cfg.Monitor.PollInterval())
	}
	if cfg.Monitor.ListenAddr != DefaultListenAddr {
		t.Errorf("New().Monitor.ListenAddr = %v, want %v", cfg.Monitor.ListenAddr, DefaultListenAddr)
	}
	if cfg.Device.Host != "" {
		t.Errorf("New().Device.Host = %q, want empty (no usable default)", cfg.Device.Host)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with missing file should not error, got: %v", err)
	}
	if cfg.Device.Port != DefaultPort {
		t.Errorf("Missing file should yield defaults, got port %v", cfg.Device.Port)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := New()
	cfg.Device.Host = "192.168.1.50"
	cfg.Device.Port = 2000
	cfg.Monitor.PollSeconds = 15
	cfg.Log.Level = "debug"
	cfg.Log.File = "/tmp/ecomax-test.log"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Device.Host != "192.168.1.50" {
		t.Errorf("Loaded Host = %v, want 192.168.1.50", loaded.Device.Host)
	}
	if loaded.Device.Port != 2000 {
		t.Errorf("Loaded Port = %v, want 2000", loaded.Device.Port)
	}
	if loaded.Monitor.PollInterval() != 15*time.Second {
		t.Errorf("Loaded PollInterval() = %v, want 15s", loaded.Monitor.PollInterval())
	}
	if loaded.Log.Level != "debug" {
		t.Errorf("Loaded Log.Level = %v, want debug", loaded.Log.Level)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "ecomax")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatal(err)
	}
	partial := "device:\n  host: boiler.local\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(partial), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Host != "boiler.local" {
		t.Errorf("Loaded Host = %v, want boiler.local", cfg.Device.Host)
	}
	// Unset settings fall back to defaults.
	if cfg.Device.Port != DefaultPort {
		t.Errorf("Loaded Port = %v, want default %v", cfg.Device.Port, DefaultPort)
	}
	if cfg.Device.Timeout() != 10*time.Second {
		t.Errorf("Loaded Timeout() = %v, want 10s", cfg.Device.Timeout())
	}
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "ecomax")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("version: 99\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() should reject unsupported config version")
	}
}

func TestSave_NoLeftoverTempFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := New()
	cfg.Device.Host = "192.168.1.50"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "ecomax"))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("Save() left temporary file %v behind", entry.Name())
		}
	}
}
