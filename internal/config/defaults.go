package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Download defaults
	DefaultTimeout        = 60 * time.Second
	DefaultRetries        = 3
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 30 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repofetch"
	}
	return filepath.Join(home, ".repofetch")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Download: DownloadConfig{
			Timeout:        DefaultTimeout,
			Retries:        DefaultRetries,
			InitialBackoff: DefaultInitialBackoff,
			MaxBackoff:     DefaultMaxBackoff,
		},
		Output: OutputConfig{
			Directory: "",
			Overwrite: false,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
