package marketdata

import (
	"errors"
	"fmt"
	"time"
)

// ErrDataUnavailable matches any missing price, date or FX rate.
var ErrDataUnavailable = errors.New("market data unavailable")

// DataUnavailableError names what was missing.
// Exactly one of Symbol or Currency is set. Date is zero for FX lookups.
type DataUnavailableError struct {
	Symbol   string
	Currency string
	Date     time.Time
}

func (e *DataUnavailableError) Error() string {
	switch {
	case e.Currency != "":
		return fmt.Sprintf("%s: no exchange rate for currency %s", ErrDataUnavailable, e.Currency)
	case e.Date.IsZero():
		return fmt.Sprintf("%s: unknown instrument %s", ErrDataUnavailable, e.Symbol)
	default:
		return fmt.Sprintf("%s: no price for %s on %s", ErrDataUnavailable, e.Symbol, e.Date.Format(DateLayout))
	}
}

// Unwrap lets errors.Is match ErrDataUnavailable.
func (e *DataUnavailableError) Unwrap() error {
	return ErrDataUnavailable
}
