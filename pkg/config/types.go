// Package config provides configuration loading and validation for lamptest.
package config

import (
	"time"

	"gonum.org/v1/plot/vg"
	"golang.org/x/text/encoding"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Extract ExtractConfig `yaml:"extract"`
	Plot    PlotConfig    `yaml:"plot"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`

	// Notify lists endpoints that receive the extraction report as JSON.
	Notify []NotifyConfig `yaml:"notify,omitempty"`
}

// ExtractConfig controls how lamp test logs are read.
type ExtractConfig struct {
	// RemoveDuplicates drops rows that repeat an earlier row on every column
	// except the timestamps.
	RemoveDuplicates bool `yaml:"remove_duplicates"`

	// Verbose prints progress and informational log lines.
	Verbose bool `yaml:"verbose"`

	// StrictLabels fails an extraction whose entries use different test labels.
	StrictLabels bool `yaml:"strict_labels"`

	// Timezone is the IANA zone the naive log timestamps are read in.
	Timezone string `yaml:"timezone"`

	// Encoding is the character encoding of the input files.
	Encoding string `yaml:"encoding"`

	// FetchTimeout bounds HTTP fetches of URL inputs.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	location *time.Location
	decoder  encoding.Encoding
}

// Location returns the loaded time zone (populated during validation).
func (e *ExtractConfig) Location() *time.Location {
	return e.location
}

// Decoder returns the input encoding, nil for UTF-8 (populated during validation).
func (e *ExtractConfig) Decoder() encoding.Encoding {
	return e.decoder
}

// PlotConfig controls the time series plot.
type PlotConfig struct {
	// Column is the numeric column to plot. Empty means <first label>_mean.
	Column string `yaml:"column,omitempty"`

	// Width and Height are lengths with a unit, e.g. "16cm" or "6in".
	Width  string `yaml:"width"`
	Height string `yaml:"height"`

	Title string `yaml:"title,omitempty"`

	width  vg.Length
	height vg.Length
}

// Size returns the parsed plot dimensions (populated during validation).
func (p *PlotConfig) Size() (vg.Length, vg.Length) {
	return p.width, p.height
}

// OutputFormat names a table output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatCSV  OutputFormat = "csv"
	FormatXLSX OutputFormat = "xlsx"
)

// OutputConfig controls how extracted tables are written.
type OutputConfig struct {
	Format    OutputFormat `yaml:"format"`
	XLSXSheet string       `yaml:"xlsx_sheet,omitempty"`
}

// LoggingConfig controls the diagnostic log written to stderr.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// NotifyTrigger determines when a report is posted.
type NotifyTrigger string

const (
	// NotifyOnFailure posts only when extraction fails (default).
	NotifyOnFailure NotifyTrigger = "on_failure"
	// NotifyAlways posts after every extraction.
	NotifyAlways NotifyTrigger = "always"
	// NotifyNever disables the endpoint.
	NotifyNever NotifyTrigger = "never"
)

// NotifyConfig is an HTTP endpoint that receives extraction reports.
type NotifyConfig struct {
	Name string `yaml:"name,omitempty"`

	// URL must be http or https.
	URL string `yaml:"url"`

	// Token is sent as a bearer token. $VAR and ${VAR} are expanded.
	Token string `yaml:"token,omitempty"`

	Trigger NotifyTrigger `yaml:"trigger,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Label returns the name used in messages: Name, or URL when unnamed.
func (n NotifyConfig) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.URL
}
