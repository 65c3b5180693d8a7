package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // timezone names must resolve on hosts without zoneinfo

	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/lamptest/pkg/logging"
	"github.com/ccollicutt/lamptest/pkg/source"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadDefault returns the default configuration with environment overrides
// applied and validated, for runs without a config file.
func LoadDefault() (*Config, error) {
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors, fills in defaults for unset
// values and resolves time zones, encodings and lengths.
func Validate(cfg *Config) error {
	if err := validateExtract(&cfg.Extract); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	if err := validatePlot(&cfg.Plot); err != nil {
		return fmt.Errorf("plot: %w", err)
	}

	if err := validateOutput(&cfg.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	for i := range cfg.Notify {
		if err := cfg.Notify[i].Validate(); err != nil {
			return fmt.Errorf("notify[%d] (%s): %w", i, cfg.Notify[i].Label(), err)
		}
	}

	return nil
}

func validateExtract(e *ExtractConfig) error {
	if e.Timezone == "" {
		e.Timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", e.Timezone, err)
	}
	e.location = loc

	dec, err := source.LookupEncoding(e.Encoding)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	e.decoder = dec

	if e.FetchTimeout < 0 {
		return errors.New("fetch_timeout must not be negative")
	}
	if e.FetchTimeout == 0 {
		e.FetchTimeout = DefaultFetchTimeout
	}

	return nil
}

func validatePlot(p *PlotConfig) error {
	if p.Width == "" {
		p.Width = DefaultPlotWidth
	}
	if p.Height == "" {
		p.Height = DefaultPlotHeight
	}

	w, err := parseLength("width", p.Width)
	if err != nil {
		return err
	}
	h, err := parseLength("height", p.Height)
	if err != nil {
		return err
	}
	p.width, p.height = w, h

	return nil
}

func parseLength(field, value string) (vg.Length, error) {
	l, err := vg.ParseLength(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	if l <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", field, value)
	}
	return l, nil
}

func validateOutput(o *OutputConfig) error {
	if o.Format == "" {
		o.Format = FormatText
	}
	o.Format = OutputFormat(strings.ToLower(string(o.Format)))

	switch o.Format {
	case FormatText, FormatJSON, FormatYAML, FormatCSV, FormatXLSX:
		// Valid
	default:
		return fmt.Errorf("invalid format %q (must be text, json, yaml, csv, or xlsx)", o.Format)
	}

	if o.XLSXSheet == "" {
		o.XLSXSheet = DefaultXLSXSheet
	}
	if len(o.XLSXSheet) > 31 {
		return fmt.Errorf("xlsx_sheet %q is longer than 31 characters", o.XLSXSheet)
	}

	return nil
}

func validateLogging(l *LoggingConfig) error {
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	if _, err := logging.ParseLevel(l.Level); err != nil {
		return err
	}

	if l.Format == "" {
		l.Format = DefaultLogFormat
	}
	if _, err := logging.ParseFormat(l.Format); err != nil {
		return err
	}

	return nil
}

// Validate checks the endpoint and fills in the default trigger and timeout.
func (n *NotifyConfig) Validate() error {
	if n.URL == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(n.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}

	n.Token = os.ExpandEnv(n.Token)

	switch n.Trigger {
	case "":
		n.Trigger = NotifyOnFailure
	case NotifyOnFailure, NotifyAlways, NotifyNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_failure, always, or never)", n.Trigger)
	}

	if n.Timeout <= 0 {
		n.Timeout = DefaultNotifyTimeout
	}
	return nil
}
