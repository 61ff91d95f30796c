package estimators

import (
	"math/rand/v2"

	"github.com/rs/zerolog"
)

// Placeholder ranges. None of these are backed by a model.
const (
	esgLow, esgHigh             = 0.70, 0.95
	climateLow, climateHigh     = 0.50, 0.90
	taxLow, taxHigh             = 0.80, 0.95
	allocationLow, allocationHi = 0.0, 0.02
	currencyLow, currencyHigh   = -0.01, 0.01
)

// RandomPlaceholders draws every estimate uniformly from a fixed range.
type RandomPlaceholders struct {
	src rand.Source
	log zerolog.Logger
}

// NewRandomPlaceholders creates placeholder estimates backed by src, which
// must be safe for concurrent use when the estimates are.
func NewRandomPlaceholders(src rand.Source, log zerolog.Logger) *RandomPlaceholders {
	return &RandomPlaceholders{
		src: src,
		log: log.With().Str("component", "placeholders").Logger(),
	}
}

func (p *RandomPlaceholders) draw(source string, lo, hi float64) Estimate {
	e := Estimate{Value: Uniform(p.src, lo, hi), Placeholder: true, Source: source}
	p.log.Debug().
		Bool("placeholder", true).
		Str("source", source).
		Float64("value", e.Value).
		Msg("Placeholder estimate")
	return e
}

// ESGScore returns a score in [0.70, 0.95).
func (p *RandomPlaceholders) ESGScore(subject string) Estimate {
	return p.draw("esg_score", esgLow, esgHigh)
}

// ClimateMultiplier scales scenario impact for climate scenarios.
func (p *RandomPlaceholders) ClimateMultiplier() Estimate {
	return p.draw("climate_multiplier", climateLow, climateHigh)
}

// TaxAdjusted returns proceeds after a simulated 5-20% tax drag.
func (p *RandomPlaceholders) TaxAdjusted(proceeds float64) Estimate {
	e := p.draw("tax_adjustment", taxLow, taxHigh)
	e.Value *= proceeds
	return e
}

// AllocationEffect is the allocation leg of performance attribution.
func (p *RandomPlaceholders) AllocationEffect() Estimate {
	return p.draw("allocation_effect", allocationLow, allocationHi)
}

// CurrencyEffect is the currency driver of performance.
func (p *RandomPlaceholders) CurrencyEffect() Estimate {
	return p.draw("currency_effect", currencyLow, currencyHigh)
}
