// Package testing provides shared fixtures, fakes and database helpers for
// package tests.
package testing

import (
	"time"

	"github.com/alschell/wealthhorizonai/internal/marketdata"
	"github.com/alschell/wealthhorizonai/internal/modules/portfolio"
)

// FixtureDates are six consecutive business days.
var FixtureDates = []time.Time{
	time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
}

// FixturePrices is a hand-built price table. Every series trends up with
// the index so fixture portfolios have a positive beta.
var FixturePrices = map[string][]float64{
	"AAPL":        {100, 102, 101, 104, 106, 108},
	"TSLA":        {200, 210, 205, 215, 220, 225},
	"BOND_US":     {50, 50.1, 50.2, 50.1, 50.3, 50.4},
	"BTC":         {40000, 41000, 39000, 42000, 43000, 44000},
	"REAL_ESTATE": {500, 502, 501, 505, 507, 510},
	"SP500":       {4000, 4040, 4020, 4080, 4100, 4120},
	"DJIA":        {36000, 36200, 36100, 36500, 36700, 36900},
}

// FixtureFX converts one unit into USD.
var FixtureFX = map[string]float64{
	"EUR": 1.1,
	"GBP": 1.27,
	"CHF": 1.12,
	"HKD": 0.128,
}

// FixtureClasses maps tradable instruments to asset classes. Indices are
// deliberately absent.
var FixtureClasses = map[string]string{
	"AAPL":        "Equity",
	"TSLA":        "Equity",
	"BOND_US":     "Fixed Income",
	"BTC":         "Cryptocurrency",
	"REAL_ESTATE": "Real Estate",
}

// NewMarketFixture returns the fixture market table.
func NewMarketFixture() *marketdata.Table {
	table, err := marketdata.NewTable(FixtureDates, FixturePrices, FixtureFX, FixtureClasses)
	if err != nil {
		panic(err)
	}
	return table
}

// P1LastValue is P1's value on the last fixture date, computed by hand:
// cash 10000 + 5000×1.1, AAPL 100×108, BOND_US 200×50.4, BTC 0.1×44000,
// REAL_ESTATE 2×510×1.1.
const P1LastValue = 10000 + 5500 + 10800 + 10080 + 4400 + 1122

// NewP1 returns a growth portfolio with a small crypto sleeve.
func NewP1() *portfolio.Portfolio {
	return portfolio.New("P1", "EquityFocused", "Growth",
		map[string]portfolio.Holding{
			"AAPL":        {Quantity: 100, AssetClass: "Equity", Region: "US", Currency: "USD"},
			"BOND_US":     {Quantity: 200, AssetClass: "Fixed Income", Region: "US", Currency: "USD"},
			"BTC":         {Quantity: 0.1, AssetClass: "Cryptocurrency", Region: "Global", Currency: "USD"},
			"REAL_ESTATE": {Quantity: 2, AssetClass: "Real Estate", Region: "Europe", Currency: "EUR"},
		},
		map[string]float64{"USD": 10000, "EUR": 5000},
	)
}

// NewP2 returns a balanced portfolio without crypto.
func NewP2() *portfolio.Portfolio {
	return portfolio.New("P2", "BalancedAlt", "Diversified",
		map[string]portfolio.Holding{
			"TSLA":    {Quantity: 10, AssetClass: "Equity", Region: "US", Currency: "USD"},
			"BOND_US": {Quantity: 100, AssetClass: "Fixed Income", Region: "US", Currency: "USD"},
		},
		map[string]float64{"GBP": 8000, "CHF": 3000},
	)
}

// NewFlatMarket returns a table where every price is constant, so every
// return and every variance is zero.
func NewFlatMarket() *marketdata.Table {
	prices := map[string][]float64{
		"AAPL":  {100, 100, 100, 100, 100, 100},
		"SP500": {4000, 4000, 4000, 4000, 4000, 4000},
	}
	table, err := marketdata.NewTable(FixtureDates, prices, nil, map[string]string{"AAPL": "Equity"})
	if err != nil {
		panic(err)
	}
	return table
}
