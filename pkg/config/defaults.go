package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultTimezone      = "UTC"
	DefaultEncoding      = "utf-8"
	DefaultFetchTimeout  = 30 * time.Second
	DefaultPlotWidth     = "16cm"
	DefaultPlotHeight    = "8cm"
	DefaultPlotTitle     = "Standard lamp tests"
	DefaultXLSXSheet     = "lamptests"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultNotifyTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvTimezone = "LAMPTEST_TIMEZONE"
	EnvLogLevel = "LAMPTEST_LOG_LEVEL"
	EnvEncoding = "LAMPTEST_ENCODING"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			RemoveDuplicates: true,
			Verbose:          true,
			Timezone:         DefaultTimezone,
			Encoding:         DefaultEncoding,
			FetchTimeout:     DefaultFetchTimeout,
		},
		Plot: PlotConfig{
			Width:  DefaultPlotWidth,
			Height: DefaultPlotHeight,
			Title:  DefaultPlotTitle,
		},
		Output: OutputConfig{
			Format:    FormatText,
			XLSXSheet: DefaultXLSXSheet,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if tz := os.Getenv(EnvTimezone); tz != "" {
		c.Extract.Timezone = tz
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
	if enc := os.Getenv(EnvEncoding); enc != "" {
		c.Extract.Encoding = enc
	}
}
