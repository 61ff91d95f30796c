// Package marketdata holds the session's price table, exchange rates and
// asset class map. A Table is immutable after construction and safe for
// concurrent readers.
package marketdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/alschell/wealthhorizonai/pkg/formulas"
)

// DateLayout is the canonical date format used for keys and output.
const DateLayout = "2006-01-02"

// BaseCurrency is the currency every valuation is expressed in.
const BaseCurrency = "USD"

// OtherClass is reported for instruments missing from the class map.
const OtherClass = "Other"

// Table is a dense date x instrument price table.
type Table struct {
	dates   []time.Time
	index   map[string]int
	prices  map[string][]float64
	symbols []string
	fx      map[string]float64
	classes map[string]string
}

// NewTable validates and copies its inputs. Dates must be strictly ascending
// and every price series must have one value per date.
func NewTable(dates []time.Time, prices map[string][]float64, fx map[string]float64, classes map[string]string) (*Table, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("market table needs at least one date")
	}

	t := &Table{
		dates:   make([]time.Time, len(dates)),
		index:   make(map[string]int, len(dates)),
		prices:  make(map[string][]float64, len(prices)),
		fx:      map[string]float64{BaseCurrency: 1.0},
		classes: make(map[string]string, len(classes)),
	}

	for i, d := range dates {
		d = Day(d)
		if i > 0 && !d.After(t.dates[i-1]) {
			return nil, fmt.Errorf("dates must be strictly ascending: %s follows %s",
				d.Format(DateLayout), t.dates[i-1].Format(DateLayout))
		}
		t.dates[i] = d
		t.index[d.Format(DateLayout)] = i
	}

	for symbol, series := range prices {
		if len(series) != len(dates) {
			return nil, fmt.Errorf("instrument %s has %d prices for %d dates", symbol, len(series), len(dates))
		}
		t.prices[symbol] = append([]float64(nil), series...)
		t.symbols = append(t.symbols, symbol)
	}
	sort.Strings(t.symbols)

	for ccy, rate := range fx {
		if rate <= 0 {
			return nil, fmt.Errorf("exchange rate for %s must be positive, got %f", ccy, rate)
		}
		t.fx[ccy] = rate
	}

	for symbol, class := range classes {
		t.classes[symbol] = class
	}

	return t, nil
}

// Day truncates t to a UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Dates returns a copy of the table's dates in ascending order.
func (t *Table) Dates() []time.Time {
	return append([]time.Time(nil), t.dates...)
}

// Len returns the number of dates.
func (t *Table) Len() int {
	return len(t.dates)
}

// LastDate returns the most recent date in the table.
func (t *Table) LastDate() time.Time {
	return t.dates[len(t.dates)-1]
}

// Symbols returns every instrument in the table, sorted.
func (t *Table) Symbols() []string {
	return append([]string(nil), t.symbols...)
}

// Has reports whether the instrument has a price series.
func (t *Table) Has(symbol string) bool {
	_, ok := t.prices[symbol]
	return ok
}

// Price returns the instrument's price on date.
func (t *Table) Price(symbol string, date time.Time) (float64, error) {
	series, ok := t.prices[symbol]
	if !ok {
		return 0, &DataUnavailableError{Symbol: symbol, Date: Day(date)}
	}
	i, ok := t.index[Day(date).Format(DateLayout)]
	if !ok {
		return 0, &DataUnavailableError{Symbol: symbol, Date: Day(date)}
	}
	return series[i], nil
}

// LastPrice returns the instrument's price on the last date.
func (t *Table) LastPrice(symbol string) (float64, error) {
	return t.Price(symbol, t.LastDate())
}

// Series returns a copy of the instrument's full price series.
func (t *Table) Series(symbol string) ([]float64, error) {
	series, ok := t.prices[symbol]
	if !ok {
		return nil, &DataUnavailableError{Symbol: symbol}
	}
	return append([]float64(nil), series...), nil
}

// Returns returns the instrument's period-over-period percentage changes,
// one fewer than the number of dates.
func (t *Table) Returns(symbol string) ([]float64, error) {
	series, ok := t.prices[symbol]
	if !ok {
		return nil, &DataUnavailableError{Symbol: symbol}
	}
	return formulas.PctChange(series), nil
}

// ProxySeries is the equal-weighted mean price across all instruments per
// date. It stands in for the market when computing beta.
func (t *Table) ProxySeries() []float64 {
	out := make([]float64, len(t.dates))
	if len(t.symbols) == 0 {
		return out
	}
	for i := range t.dates {
		var sum float64
		for _, s := range t.symbols {
			sum += t.prices[s][i]
		}
		out[i] = sum / float64(len(t.symbols))
	}
	return out
}

// ProxyReturns returns the percentage changes of ProxySeries.
func (t *Table) ProxyReturns() []float64 {
	return formulas.PctChange(t.ProxySeries())
}

// FXRate converts one unit of currency into BaseCurrency.
func (t *Table) FXRate(currency string) (float64, error) {
	rate, ok := t.fx[currency]
	if !ok {
		return 0, &DataUnavailableError{Currency: currency}
	}
	return rate, nil
}

// Currencies returns every currency with a known rate, sorted.
func (t *Table) Currencies() []string {
	out := make([]string, 0, len(t.fx))
	for c := range t.fx {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// AssetClass returns the configured class, or OtherClass.
func (t *Table) AssetClass(symbol string) string {
	if c, ok := t.classes[symbol]; ok {
		return c
	}
	return OtherClass
}

// ClassifiedAssets returns the instruments in the class map, sorted.
func (t *Table) ClassifiedAssets() []string {
	out := make([]string, 0, len(t.classes))
	for s := range t.classes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Tail returns the last n rows as instrument -> date -> price.
func (t *Table) Tail(n int) map[string]map[string]float64 {
	if n <= 0 || n > len(t.dates) {
		n = len(t.dates)
	}
	start := len(t.dates) - n

	out := make(map[string]map[string]float64, len(t.symbols))
	for _, s := range t.symbols {
		rows := make(map[string]float64, n)
		for i := start; i < len(t.dates); i++ {
			rows[t.dates[i].Format(DateLayout)] = t.prices[s][i]
		}
		out[s] = rows
	}
	return out
}
