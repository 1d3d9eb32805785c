package config

import "time"

// Config represents the application configuration
type Config struct {
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// DownloadConfig contains archive download settings
type DownloadConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`                 // per attempt
	Retries        int           `mapstructure:"retries" yaml:"retries"`                 // total attempts
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"` // empty means derive from URL
	Overwrite bool   `mapstructure:"overwrite" yaml:"overwrite"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration and clamps out-of-range values
// back to their defaults
func (c *Config) Validate() error {
	if c.Download.Timeout < time.Second {
		c.Download.Timeout = DefaultTimeout
	}
	if c.Download.Retries < 1 {
		c.Download.Retries = DefaultRetries
	}
	if c.Download.InitialBackoff < 100*time.Millisecond {
		c.Download.InitialBackoff = DefaultInitialBackoff
	}
	if c.Download.MaxBackoff < c.Download.InitialBackoff {
		c.Download.MaxBackoff = DefaultMaxBackoff
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	return nil
}
