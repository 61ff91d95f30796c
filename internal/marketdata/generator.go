package marketdata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// InstrumentSpec describes one synthetic price path.
type InstrumentSpec struct {
	Symbol     string  `yaml:"symbol"`
	Class      string  `yaml:"class"` // empty for indices, which stay out of the class map
	StartPrice float64 `yaml:"start_price"`
	Drift      float64 `yaml:"drift"`      // annualised
	Volatility float64 `yaml:"volatility"` // annualised
}

// GeneratorConfig controls synthetic table generation.
type GeneratorConfig struct {
	Start       time.Time
	Days        int // business days
	Instruments []InstrumentSpec
	FX          map[string]float64
}

// Generate builds a table of geometric Brownian motion paths over business
// days. The same config and source always produce the same table.
func Generate(cfg GeneratorConfig, src rand.Source) (*Table, error) {
	if cfg.Days < 2 {
		return nil, fmt.Errorf("need at least 2 days of prices, got %d", cfg.Days)
	}
	if len(cfg.Instruments) == 0 {
		return nil, fmt.Errorf("no instruments configured")
	}

	dates := BusinessDays(cfg.Start, cfg.Days)
	prices := make(map[string][]float64, len(cfg.Instruments))
	classes := make(map[string]string)

	const dt = 1.0 / 252
	shock := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	// Instruments are walked in config order so the draw sequence is stable.
	for _, spec := range cfg.Instruments {
		if spec.StartPrice <= 0 {
			return nil, fmt.Errorf("instrument %s: start price must be positive", spec.Symbol)
		}
		if _, dup := prices[spec.Symbol]; dup {
			return nil, fmt.Errorf("instrument %s configured twice", spec.Symbol)
		}

		series := make([]float64, cfg.Days)
		series[0] = spec.StartPrice
		drift := (spec.Drift - 0.5*spec.Volatility*spec.Volatility) * dt
		diffusion := spec.Volatility * math.Sqrt(dt)
		for i := 1; i < cfg.Days; i++ {
			series[i] = series[i-1] * math.Exp(drift+diffusion*shock.Rand())
		}
		prices[spec.Symbol] = series

		if spec.Class != "" {
			classes[spec.Symbol] = spec.Class
		}
	}

	return NewTable(dates, prices, cfg.FX, classes)
}

// BusinessDays returns n consecutive weekdays starting at start (or the next
// weekday if start falls on a weekend).
func BusinessDays(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := Day(start)
	for len(out) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}
