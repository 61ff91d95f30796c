package marketdata

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func smallTable(t *testing.T) *Table {
	t.Helper()
	dates := []time.Time{day("2024-01-01"), day("2024-01-02"), day("2024-01-03")}
	table, err := NewTable(dates,
		map[string][]float64{
			"AAPL":  {100, 110, 99},
			"SP500": {4000, 4000, 4000},
		},
		map[string]float64{"EUR": 1.1},
		map[string]string{"AAPL": "Equity"},
	)
	require.NoError(t, err)
	return table
}

func TestNewTable_Validation(t *testing.T) {
	dates := []time.Time{day("2024-01-02"), day("2024-01-01")}
	_, err := NewTable(dates, nil, nil, nil)
	assert.Error(t, err, "descending dates")

	_, err = NewTable([]time.Time{day("2024-01-01")}, map[string][]float64{"X": {1, 2}}, nil, nil)
	assert.Error(t, err, "series length mismatch")

	_, err = NewTable([]time.Time{day("2024-01-01")}, nil, map[string]float64{"EUR": 0}, nil)
	assert.Error(t, err, "non-positive fx")

	_, err = NewTable(nil, nil, nil, nil)
	assert.Error(t, err, "no dates")
}

func TestPrice(t *testing.T) {
	table := smallTable(t)

	p, err := table.Price("AAPL", day("2024-01-02").Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 110.0, p)

	last, err := table.LastPrice("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 99.0, last)
}

func TestPrice_Unavailable(t *testing.T) {
	table := smallTable(t)

	tests := []struct {
		name   string
		symbol string
		date   time.Time
	}{
		{"unknown symbol", "MSFT", day("2024-01-02")},
		{"missing date", "AAPL", day("2023-12-29")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.Price(tt.symbol, tt.date)
			require.ErrorIs(t, err, ErrDataUnavailable)

			var dataErr *DataUnavailableError
			require.True(t, errors.As(err, &dataErr))
			assert.Equal(t, tt.symbol, dataErr.Symbol)
			assert.True(t, tt.date.Equal(dataErr.Date))
			assert.Contains(t, err.Error(), tt.symbol)
		})
	}
}

func TestFXRate(t *testing.T) {
	table := smallTable(t)

	usd, err := table.FXRate("USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, usd)

	_, err = table.FXRate("JPY")
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.Contains(t, err.Error(), "JPY")

	assert.Equal(t, []string{"EUR", "USD"}, table.Currencies())
}

func TestReturnsAndProxy(t *testing.T) {
	table := smallTable(t)

	r, err := table.Returns("AAPL")
	require.NoError(t, err)
	require.Len(t, r, 2)
	assert.InDelta(t, 0.10, r[0], 1e-12)
	assert.InDelta(t, -0.10, r[1], 1e-12)

	proxy := table.ProxySeries()
	assert.Equal(t, []float64{2050, 2055, 2049.5}, proxy)
	assert.Len(t, table.ProxyReturns(), 2)
}

func TestAssetClassAndTail(t *testing.T) {
	table := smallTable(t)

	assert.Equal(t, "Equity", table.AssetClass("AAPL"))
	assert.Equal(t, OtherClass, table.AssetClass("SP500"))
	assert.Equal(t, []string{"AAPL"}, table.ClassifiedAssets())

	tail := table.Tail(2)
	require.Contains(t, tail, "AAPL")
	assert.Equal(t, map[string]float64{"2024-01-02": 110, "2024-01-03": 99}, tail["AAPL"])
	assert.Len(t, table.Tail(0)["SP500"], 3)
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{
		Start: day("2024-01-06"), // Saturday
		Days:  30,
		Instruments: []InstrumentSpec{
			{Symbol: "AAPL", Class: "Equity", StartPrice: 180, Drift: 0.08, Volatility: 0.25},
			{Symbol: "SP500", StartPrice: 4700, Drift: 0.07, Volatility: 0.15},
		},
		FX: map[string]float64{"EUR": 1.08},
	}

	a, err := Generate(cfg, rand.NewPCG(42, 42))
	require.NoError(t, err)
	b, err := Generate(cfg, rand.NewPCG(42, 42))
	require.NoError(t, err)

	assert.Equal(t, 30, a.Len())
	assert.Equal(t, time.Monday, a.Dates()[0].Weekday())
	for _, d := range a.Dates() {
		assert.NotEqual(t, time.Saturday, d.Weekday())
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}

	sa, _ := a.Series("AAPL")
	sb, _ := b.Series("AAPL")
	assert.Equal(t, sa, sb)
	assert.Equal(t, 180.0, sa[0])
	for _, p := range sa {
		assert.Greater(t, p, 0.0)
	}
	assert.Equal(t, []string{"AAPL"}, a.ClassifiedAssets())
}

func TestGenerate_Validation(t *testing.T) {
	_, err := Generate(GeneratorConfig{Days: 1}, rand.NewPCG(1, 1))
	assert.Error(t, err)

	_, err = Generate(GeneratorConfig{
		Days:        5,
		Instruments: []InstrumentSpec{{Symbol: "X", StartPrice: 1}, {Symbol: "X", StartPrice: 1}},
	}, rand.NewPCG(1, 1))
	assert.Error(t, err)
}
