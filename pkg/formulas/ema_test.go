package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEMA(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		length int
		want   float64
	}{
		{"empty", nil, 5, 0},
		{"short series falls back to mean", []float64{1, 2, 3}, 5, 2},
		{"constant series", []float64{4, 4, 4, 4, 4, 4}, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EMA(tt.series, tt.length), 1e-9)
		})
	}
}

func TestEMA_WeightsRecentValues(t *testing.T) {
	rising := []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	ema := EMA(rising, 3)
	assert.Greater(t, ema, Mean(rising))
	assert.LessOrEqual(t, ema, 1.0)
}
