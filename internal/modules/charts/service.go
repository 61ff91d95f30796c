// Package charts renders performance overlay charts to PNG.
package charts

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// OverlayTitle is the title of every overlay chart.
const OverlayTitle = "Performance Overlay Comparison (Normalized to 100)"

// Series is one labelled line.
type Series struct {
	Label  string
	Dates  []time.Time
	Values []float64
}

// Renderer turns labelled series into an encoded image.
type Renderer interface {
	RenderOverlay(title string, series []Series) ([]byte, error)
}

// Service renders charts with gonum/plot.
type Service struct {
	width, height vg.Length
	log           zerolog.Logger
}

// NewService creates a renderer producing 12x8 inch PNGs.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		width:  12 * vg.Inch,
		height: 8 * vg.Inch,
		log:    log.With().Str("service", "charts").Logger(),
	}
}

// Normalize rebases values to 100 at the first observation. A zero first
// value yields a flat line at 100.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	base := values[0]
	for i, v := range values {
		if base == 0 {
			out[i] = 100
			continue
		}
		out[i] = v / base * 100
	}
	return out
}

// RenderOverlay draws every series on one time axis and returns PNG bytes.
func (s *Service) RenderOverlay(title string, series []Series) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Performance (%)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())

	for i, ser := range series {
		if len(ser.Dates) != len(ser.Values) {
			return nil, fmt.Errorf("series %q has %d dates and %d values", ser.Label, len(ser.Dates), len(ser.Values))
		}
		pts := make(plotter.XYs, len(ser.Values))
		for j, v := range ser.Values {
			pts[j].X = float64(ser.Dates[j].Unix())
			pts[j].Y = v
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to build line %q: %w", ser.Label, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(ser.Label, line)
	}
	p.Legend.Top = true

	w, err := p.WriterTo(s.width, s.height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	s.log.Debug().Int("series", len(series)).Int("bytes", buf.Len()).Msg("Chart rendered")
	return buf.Bytes(), nil
}

// DataURI wraps a PNG in a data URI.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
