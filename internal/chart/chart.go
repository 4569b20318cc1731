// Package chart renders visualization panels as SVG or PNG images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToRender is returned for panels that have no points.
var ErrNothingToRender = errors.New("chart: panel has no points")

// Format is an image encoding.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat validates a format name; empty selects SVG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", SVG:
		return SVG, nil
	case PNG:
		return PNG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() gochart.RendererProvider {
	if f == PNG {
		return gochart.PNG
	}
	return gochart.SVG
}

// Options size the rendered image.
type Options struct {
	Width   int
	Height  int
	MaxBars int // bar charts draw at most this many bars; the title notes the rest
}

// DefaultOptions are used for zero-valued fields.
var DefaultOptions = Options{Width: 720, Height: 360, MaxBars: 40}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultOptions.Width
	}
	if o.Height <= 0 {
		o.Height = DefaultOptions.Height
	}
	if o.MaxBars <= 0 {
		o.MaxBars = DefaultOptions.MaxBars
	}
	return o
}

var barStyle = gochart.Style{
	FillColor:   drawing.ColorFromHex("4e79a7"),
	StrokeColor: drawing.ColorFromHex("4e79a7"),
	StrokeWidth: 1,
}

// Render draws p to w. Line panels become a line chart; histograms, bar
// panels and categorical panels become bar charts.
func Render(w io.Writer, p core.Panel, format Format, opts Options) error {
	if p.Empty || len(p.Points) == 0 {
		return ErrNothingToRender
	}
	opts = opts.withDefaults()

	if p.Kind == core.PanelNumeric && p.Chart == core.ChartLine {
		return renderLine(w, p, format, opts)
	}
	return renderBars(w, p, format, opts)
}

// Title describes the panel, e.g. "histogram of score".
func Title(p core.Panel) string {
	if p.Kind == core.PanelCategorical {
		return "frequency of " + p.Column
	}
	return string(p.Chart) + " of " + p.Column
}

// capBars limits p to limit bars and returns the chart title. Value counts
// are sorted most frequent first, so only the rarest values are cut; a raw
// bar series keeps its leading rows.
func capBars(p core.Panel, limit int) ([]core.Point, string) {
	title := Title(p)
	n := len(p.Points)
	if n <= limit {
		return p.Points, title
	}
	if p.Kind == core.PanelNumeric && p.Chart == core.ChartBar {
		return p.Points[:limit], fmt.Sprintf("%s (first %d of %d rows)", title, limit, n)
	}
	return p.Points[:limit], fmt.Sprintf("%s (top %d of %d values)", title, limit, n)
}

func renderBars(w io.Writer, p core.Panel, format Format, opts Options) error {
	points, title := capBars(p, opts.MaxBars)

	bars := make([]gochart.Value, len(points))
	lo, hi := 0.0, 0.0
	for i, pt := range points {
		bars[i] = gochart.Value{Label: pt.Label, Value: pt.Value, Style: barStyle}
		lo, hi = math.Min(lo, pt.Value), math.Max(hi, pt.Value)
	}
	if hi <= lo {
		hi = lo + 1
	}

	spacing := 4
	barWidth := (opts.Width-80)/len(bars) - spacing
	if barWidth < 2 {
		barWidth = 2
	}

	bc := gochart.BarChart{
		Title:        title,
		Width:        opts.Width,
		Height:       opts.Height,
		BarWidth:     barWidth,
		BarSpacing:   spacing,
		Background:   gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:        gochart.YAxis{Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
		UseBaseValue: lo < 0,
		BaseValue:    0,
		Bars:         bars,
	}
	if err := bc.Render(format.provider(), w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

func renderLine(w io.Writer, p core.Panel, format Format, opts Options) error {
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		x, err := strconv.ParseFloat(pt.Label, 64)
		if err != nil {
			x = float64(i)
		}
		xs[i], ys[i] = x, pt.Value
	}
	// A single point has no x range; widen it so the axis can be drawn.
	if len(xs) == 1 {
		xs = append(xs, xs[0]+1)
		ys = append(ys, ys[0])
	}

	lo, hi := ys[0], ys[0]
	for _, y := range ys {
		lo, hi = math.Min(lo, y), math.Max(hi, y)
	}
	if hi <= lo {
		lo, hi = lo-1, hi+1
	}

	ch := gochart.Chart{
		Title:      Title(p),
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "row"},
		YAxis:      gochart.YAxis{Name: p.Column, Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    p.Column,
				XValues: xs,
				YValues: ys,
				Style:   gochart.Style{StrokeColor: barStyle.StrokeColor, StrokeWidth: 2},
			},
		},
	}
	if err := ch.Render(format.provider(), w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}
