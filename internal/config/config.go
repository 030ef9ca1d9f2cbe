package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ihalemcp/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const AppName = "ihalemcp" // application name used for config directory

// Config holds user configuration for ihalemcp.
type Config struct {
	// StorageDir is the directory where saved-search watchlist files live.
	StorageDir string `yaml:"storage_dir"`
	// SpreadsheetID is the default Google Sheets spreadsheet for lead export.
	SpreadsheetID string `yaml:"spreadsheet_id,omitempty"`
	// SheetName is the tab leads are appended to. Defaults to "Leads".
	SheetName string `yaml:"sheet_name,omitempty"`
	// Language is the language hint passed to Google APIs (default "tr").
	Language string `yaml:"language,omitempty"`
	Version  string `yaml:"version"`
	InitTime int64  `yaml:"init_time"` // Unix timestamp of first setup
}

// EnvConfigPath overrides the config file location when set. Tests and
// containerized deployments use it to avoid touching the real config.
const EnvConfigPath = "IHALEMCP_CONFIG_PATH"

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() (string, error) {
	if override := os.Getenv(EnvConfigPath); override != "" {
		return override, nil
	}

	configDir := filepath.Join(xdg.ConfigHome, AppName)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// Load loads the config from the standard location.
// If no config exists, it returns an error indicating first run is needed.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		return nil, fmt.Errorf("no configuration found, first-time setup required")
	}

	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.SheetName == "" {
		cfg.SheetName = "Leads"
	}
	if cfg.Language == "" {
		cfg.Language = "tr"
	}

	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// IsFirstRun checks if this is the first time the application is run
func IsFirstRun() bool {
	_, exists := FindConfigFile()
	return !exists
}

// DefaultStorageDir returns the default directory for watchlist files.
func DefaultStorageDir() string {
	return filepath.Join(xdg.DataHome, AppName, "watchlists")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	path := DefaultStorageDir()
	logging.Debug("Using default storage directory", "path", path)

	return Config{
		StorageDir: path,
		SheetName:  "Leads",
		Language:   "tr",
		Version:    "1.0",
		InitTime:   0, // Set during first save
	}
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Restrictive permissions: the config can reference spreadsheet ids
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// CreateNewConfig initializes a new configuration with the given storage
// directory and spreadsheet id, creating the storage directory if needed.
func CreateNewConfig(storageDir, spreadsheetID string) error {
	cfg := DefaultConfig()
	if storageDir != "" {
		cfg.StorageDir = storageDir
	}
	cfg.SpreadsheetID = spreadsheetID

	if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logging.Info("Configuration created successfully", "storage_dir", cfg.StorageDir)
	return nil
}
