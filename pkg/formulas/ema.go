package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// EMA returns the last exponential moving average value of series.
//
// EMA_today = (x_today × k) + (EMA_yesterday × (1 - k)), k = 2 / (length + 1)
//
// Falls back to the plain mean when the series is shorter than length.
func EMA(series []float64, length int) float64 {
	if len(series) == 0 {
		return 0
	}
	if length <= 1 || len(series) < length {
		return Mean(series)
	}

	ema := talib.Ema(series, length)
	if n := len(ema); n > 0 && !math.IsNaN(ema[n-1]) {
		return ema[n-1]
	}
	return Mean(series[len(series)-length:])
}
