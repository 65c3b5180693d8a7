package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/plot/vg"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
extract:
  remove_duplicates: false
  strict_labels: true
  timezone: Europe/Prague
  encoding: windows-1252
  fetch_timeout: 5s
plot:
  column: D_mean
  width: 20cm
  height: 4in
output:
  format: csv
logging:
  level: debug
  format: json
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Extract.RemoveDuplicates {
		t.Error("RemoveDuplicates = true, want false")
	}
	if !cfg.Extract.Verbose {
		t.Error("Verbose = false, want default true")
	}
	if !cfg.Extract.StrictLabels {
		t.Error("StrictLabels = false, want true")
	}
	if cfg.Extract.Location() == nil || cfg.Extract.Location().String() != "Europe/Prague" {
		t.Errorf("Location = %v, want Europe/Prague", cfg.Extract.Location())
	}
	if cfg.Extract.Decoder() == nil {
		t.Error("Decoder = nil, want windows-1252")
	}
	if cfg.Extract.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.Extract.FetchTimeout)
	}
	if cfg.Plot.Column != "D_mean" {
		t.Errorf("Plot.Column = %q, want D_mean", cfg.Plot.Column)
	}
	w, h := cfg.Plot.Size()
	if w != 20*vg.Centimeter || h != 4*vg.Inch {
		t.Errorf("Plot.Size() = %v x %v, want 20cm x 4in", w, h)
	}
	if cfg.Plot.Title != DefaultPlotTitle {
		t.Errorf("Plot.Title = %q, want default", cfg.Plot.Title)
	}
	if cfg.Output.Format != FormatCSV {
		t.Errorf("Output.Format = %q, want csv", cfg.Output.Format)
	}
	if cfg.Output.XLSXSheet != DefaultXLSXSheet {
		t.Errorf("Output.XLSXSheet = %q, want default", cfg.Output.XLSXSheet)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeTempFile(t, "empty.yaml", "")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Extract.RemoveDuplicates || !cfg.Extract.Verbose {
		t.Errorf("Extract = %+v, want remove_duplicates and verbose on", cfg.Extract)
	}
	if cfg.Extract.Location() != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Extract.Location())
	}
	if cfg.Extract.Decoder() != nil {
		t.Error("Decoder should be nil for utf-8")
	}
	if cfg.Output.Format != FormatText {
		t.Errorf("Output.Format = %q, want text", cfg.Output.Format)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `invalid: yaml: content: [`
	path := writeTempFile(t, "invalid.yaml", content)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvTimezone, "America/Denver")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvEncoding, "latin1")

	path := writeTempFile(t, "config.yaml", "extract:\n  timezone: UTC\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Extract.Timezone != "America/Denver" {
		t.Errorf("Timezone = %q, want env override", cfg.Extract.Timezone)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want env override", cfg.Logging.Level)
	}
	if cfg.Extract.Decoder() == nil {
		t.Error("Decoder = nil, want latin1 from env")
	}
}

func TestLoadDefault(t *testing.T) {
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	w, h := cfg.Plot.Size()
	if w != 16*vg.Centimeter || h != 8*vg.Centimeter {
		t.Errorf("Plot.Size() = %v x %v, want 16cm x 8cm", w, h)
	}
}

func TestLoadDefault_BadEnvironment(t *testing.T) {
	t.Setenv(EnvTimezone, "Mars/Olympus_Mons")
	if _, err := LoadDefault(); err == nil {
		t.Error("LoadDefault() expected error for unknown timezone")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name:    "unknown timezone",
			modify:  func(c *Config) { c.Extract.Timezone = "Nowhere/Special" },
			wantErr: "extract: invalid timezone",
		},
		{
			name:    "unknown encoding",
			modify:  func(c *Config) { c.Extract.Encoding = "ebcdic" },
			wantErr: "extract: encoding",
		},
		{
			name:    "negative fetch timeout",
			modify:  func(c *Config) { c.Extract.FetchTimeout = -time.Second },
			wantErr: "fetch_timeout",
		},
		{
			name:    "bad width",
			modify:  func(c *Config) { c.Plot.Width = "wide" },
			wantErr: "plot: invalid width",
		},
		{
			name:    "zero height",
			modify:  func(c *Config) { c.Plot.Height = "0cm" },
			wantErr: "plot: height must be positive",
		},
		{
			name:    "unknown output format",
			modify:  func(c *Config) { c.Output.Format = "parquet" },
			wantErr: "output: invalid format",
		},
		{
			name:    "long sheet name",
			modify:  func(c *Config) { c.Output.XLSXSheet = strings.Repeat("x", 32) },
			wantErr: "xlsx_sheet",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "logging: invalid log level",
		},
		{
			name:    "bad log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging: invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_FillsBlanks(t *testing.T) {
	cfg := &Config{}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Extract.Timezone != DefaultTimezone {
		t.Errorf("Timezone = %q, want %q", cfg.Extract.Timezone, DefaultTimezone)
	}
	if cfg.Extract.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("FetchTimeout = %v, want %v", cfg.Extract.FetchTimeout, DefaultFetchTimeout)
	}
	if cfg.Output.Format != FormatText {
		t.Errorf("Output.Format = %q, want text", cfg.Output.Format)
	}
	if cfg.Logging.Level != DefaultLogLevel || cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("Logging = %+v, want defaults", cfg.Logging)
	}
}

func TestValidate_OutputFormatCaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Format = "XLSX"
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Output.Format != FormatXLSX {
		t.Errorf("Output.Format = %q, want xlsx", cfg.Output.Format)
	}
}

func TestValidate_Notify(t *testing.T) {
	tests := []struct {
		name    string
		notify  NotifyConfig
		wantErr string
	}{
		{"valid", NotifyConfig{URL: "https://hooks.example.org/x", Trigger: NotifyAlways}, ""},
		{"missing url", NotifyConfig{Name: "ops"}, "url is required"},
		{"bad scheme", NotifyConfig{URL: "ftp://example.org"}, "http or https"},
		{"no host", NotifyConfig{URL: "http://"}, "host"},
		{"bad trigger", NotifyConfig{URL: "http://example.org", Trigger: "sometimes"}, "invalid trigger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Notify = []NotifyConfig{tt.notify}
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "notify[0]") {
				t.Errorf("error %q does not name the endpoint", err)
			}
		})
	}
}

func TestValidate_NotifyDefaults(t *testing.T) {
	t.Setenv("LAMPTEST_HOOK_TOKEN", "s3cret")
	n := NotifyConfig{URL: "https://hooks.example.org/x", Token: "${LAMPTEST_HOOK_TOKEN}"}

	if err := n.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if n.Trigger != NotifyOnFailure {
		t.Errorf("Trigger = %q, want %q", n.Trigger, NotifyOnFailure)
	}
	if n.Timeout != DefaultNotifyTimeout {
		t.Errorf("Timeout = %v, want %v", n.Timeout, DefaultNotifyTimeout)
	}
	if n.Token != "s3cret" {
		t.Errorf("Token = %q, want expanded value", n.Token)
	}
	if n.Label() != "https://hooks.example.org/x" {
		t.Errorf("Label() = %q, want URL", n.Label())
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}
