// Package formulas provides the statistical building blocks used by the
// portfolio engine and the risk routines.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualisation factor for daily series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 denominator).
// Fewer than two observations yield 0.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance (n-1 denominator).
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two equally sized datasets.
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// AnnualizedMean scales the mean daily return by 252.
// This is the arithmetic annualisation, not CAGR.
func AnnualizedMean(dailyReturns []float64) float64 {
	return Mean(dailyReturns) * TradingDaysPerYear
}

// SafeRatio returns num/den, or 0 when den is 0.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// PctChange converts a level series into period-over-period returns.
// The first (undefined) return is dropped; a zero previous level yields 0.
func PctChange(levels []float64) []float64 {
	if len(levels) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(levels)-1)
	for i := 1; i < len(levels); i++ {
		if levels[i-1] != 0 {
			returns[i-1] = (levels[i] - levels[i-1]) / levels[i-1]
		}
	}
	return returns
}

// Beta is cov(x, market) / var(market), 0 when the market series has no variance.
func Beta(returns, market []float64) float64 {
	if len(returns) != len(market) {
		return 0
	}
	variance := Variance(market)
	if variance == 0 {
		return 0
	}
	return Covariance(returns, market) / variance
}

// Percentile returns the p-th percentile (0..100) using linear interpolation
// between closest ranks. The input is not modified.
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// HerfindahlIndex returns the sum of squared weights for the given position
// values along with the normalised weights. A zero total yields zero weights.
func HerfindahlIndex(values []float64) (float64, []float64) {
	weights := make([]float64, len(values))
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return 0, weights
	}

	hhi := 0.0
	for i, v := range values {
		weights[i] = v / total
		hhi += weights[i] * weights[i]
	}
	return hhi, weights
}

// ExceedsLimit reports whether value is above limit by more than a rounding tolerance.
func ExceedsLimit(value, limit float64) bool {
	return value-limit > 1e-9
}
