package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ccollicutt/lamptest/pkg/config"
	"github.com/ccollicutt/lamptest/pkg/extractor"
	"github.com/ccollicutt/lamptest/pkg/logging"
	"github.com/ccollicutt/lamptest/pkg/source"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// loadConfig loads the config file if one was given, or the defaults
// otherwise. Logging flags override the file.
func loadConfig(ctx context.Context, g *GlobalOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.ConfigPath != "" {
		cfg, err = config.Load(ctx, g.ConfigPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, w)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return logger, nil
}

func newReader(cfg *config.Config) *source.Reader {
	return source.NewReader(
		source.WithTimeout(cfg.Extract.FetchTimeout),
		source.WithEncoding(cfg.Extract.Decoder()),
	)
}

// newExtractor builds an extractor from the config. Progress lines go to
// progress so they never mix with table output on stdout.
func newExtractor(cfg *config.Config, logger *slog.Logger, progress io.Writer) *extractor.Extractor {
	return extractor.New(
		extractor.WithLogger(logger),
		extractor.WithReader(newReader(cfg)),
		extractor.WithLocation(cfg.Extract.Location()),
		extractor.WithRemoveDuplicates(cfg.Extract.RemoveDuplicates),
		extractor.WithVerbose(cfg.Extract.Verbose),
		extractor.WithStrictLabels(cfg.Extract.StrictLabels),
		extractor.WithProgress(progress),
	)
}

func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
