// Package plot renders a column of the lamp test table as a time series image.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"golang.org/x/image/colornames"

	"github.com/ccollicutt/lamptest/pkg/table"
)

var (
	// ErrNoData is returned when the table has no rows to plot.
	ErrNoData = errors.New("no data to plot")

	// ErrNoOutput is returned when no output path is given.
	ErrNoOutput = errors.New("plot output path is required")
)

// Default plot settings.
const (
	DefaultWidth  = 16 * vg.Centimeter
	DefaultHeight = 8 * vg.Centimeter
	DefaultTitle  = "Standard lamp tests"
	TimeFormat    = "2006-01-02"
)

// Formats lists the supported image file extensions.
var Formats = []string{".png", ".svg", ".pdf", ".jpg", ".jpeg", ".eps", ".tex", ".tif", ".tiff"}

// Plotter draws one numeric column against dtm.
type Plotter struct {
	column string
	width  vg.Length
	height vg.Length
	title  string
	color  color.Color
	logger *slog.Logger
}

// Option configures a Plotter.
type Option func(*Plotter)

// WithColumn sets the column to plot. The default is the first label's mean.
func WithColumn(name string) Option {
	return func(p *Plotter) {
		p.column = name
	}
}

// WithSize sets the image size. Non-positive lengths keep the default.
func WithSize(width, height vg.Length) Option {
	return func(p *Plotter) {
		if width > 0 {
			p.width = width
		}
		if height > 0 {
			p.height = height
		}
	}
}

// WithTitle sets the plot title.
func WithTitle(title string) Option {
	return func(p *Plotter) {
		p.title = title
	}
}

// WithColor sets the line color.
func WithColor(c color.Color) Option {
	return func(p *Plotter) {
		if c != nil {
			p.color = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Plotter) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Plotter.
func New(opts ...Option) *Plotter {
	p := &Plotter{
		width:  DefaultWidth,
		height: DefaultHeight,
		title:  DefaultTitle,
		color:  colornames.Red,
		logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Column returns the column that will be plotted for tbl.
func (p *Plotter) Column(tbl *table.Table) string {
	if p.column != "" {
		return p.column
	}
	labels := tbl.Labels()
	if len(labels) == 0 {
		return ""
	}
	return labels[0] + "_mean"
}

// Plot renders the column against dtm and saves the image to path. The image
// format follows the file extension. Failures inside the plotting library
// are returned as errors.
func (p *Plotter) Plot(tbl *table.Table, path string) (err error) {
	if path == "" {
		return ErrNoOutput
	}
	if !supported(path) {
		return fmt.Errorf("unsupported image format %q (use one of %s)",
			filepath.Ext(path), strings.Join(Formats, ", "))
	}
	if tbl == nil || !tbl.HasSchema() || tbl.Len() == 0 {
		return ErrNoData
	}

	column := p.Column(tbl)
	ys, err := tbl.Column(column)
	if err != nil {
		return fmt.Errorf("plot column: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rendering plot: %v", r)
		}
	}()

	pts := make(plotter.XYs, len(ys))
	for i, r := range tbl.Rows {
		pts[i].X = float64(r.Time.Unix())
		pts[i].Y = ys[i]
	}

	pl := gplot.New()
	pl.Title.Text = p.title
	pl.X.Label.Text = table.ColTime
	pl.Y.Label.Text = column
	pl.X.Tick.Marker = gplot.TimeTicks{Format: TimeFormat}
	pl.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("building line: %w", err)
	}
	line.Color = p.color
	pl.Add(line)

	if err := pl.Save(p.width, p.height, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}

	p.logger.Info("plot saved",
		slog.String("path", path),
		slog.String("column", column),
		slog.Int("points", len(pts)))
	return nil
}

func supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats {
		if ext == f {
			return true
		}
	}
	return false
}
