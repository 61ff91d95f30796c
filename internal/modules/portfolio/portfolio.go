// Package portfolio holds the portfolio model and the valuation/risk engine.
package portfolio

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// CryptoClass is the asset class subject to allocation caps and AML review.
const CryptoClass = "Cryptocurrency"

// Holding is one position.
type Holding struct {
	Quantity   float64 `json:"qty" yaml:"qty" msgpack:"qty"`
	AssetClass string  `json:"asset_class" yaml:"asset_class" msgpack:"asset_class"`
	Region     string  `json:"region" yaml:"region" msgpack:"region"`
	Currency   string  `json:"currency" yaml:"currency" msgpack:"currency"`
}

// Transaction is an executed trade. Transactions are append-only.
type Transaction struct {
	ID         string    `json:"id" msgpack:"id"`
	Type       string    `json:"type" msgpack:"type"`
	Asset      string    `json:"asset" msgpack:"asset"`
	Quantity   float64   `json:"qty" msgpack:"qty"`
	Proceeds   float64   `json:"proceeds" msgpack:"proceeds"`
	ExecutedAt time.Time `json:"executed_at" msgpack:"executed_at"`
}

// Snapshot is a deep copy of a portfolio's state at one instant.
type Snapshot struct {
	ID               string
	Name             string
	Strategy         string
	Holdings         map[string]Holding
	Cash             map[string]float64
	Transactions     []Transaction
	TargetAllocation map[string]float64
}

// Symbols returns the held instruments, sorted.
func (s Snapshot) Symbols() []string {
	out := make([]string, 0, len(s.Holdings))
	for sym := range s.Holdings {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Currencies returns the cash currencies, sorted.
func (s Snapshot) Currencies() []string {
	out := make([]string, 0, len(s.Cash))
	for c := range s.Cash {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.Holdings = make(map[string]Holding, len(s.Holdings))
	for k, v := range s.Holdings {
		c.Holdings[k] = v
	}
	c.Cash = make(map[string]float64, len(s.Cash))
	for k, v := range s.Cash {
		c.Cash[k] = v
	}
	c.Transactions = append([]Transaction(nil), s.Transactions...)
	c.TargetAllocation = make(map[string]float64, len(s.TargetAllocation))
	for k, v := range s.TargetAllocation {
		c.TargetAllocation[k] = v
	}
	return c
}

// Validate checks the invariants every committed state must satisfy.
func (s Snapshot) Validate() error {
	for sym, h := range s.Holdings {
		if h.Quantity < 0 {
			return fmt.Errorf("holding %s would go negative (%f)", sym, h.Quantity)
		}
	}
	for ccy, bal := range s.Cash {
		if bal < 0 {
			return fmt.Errorf("cash balance %s would go negative (%f)", ccy, bal)
		}
	}
	if len(s.TargetAllocation) > 0 {
		var sum float64
		for _, w := range s.TargetAllocation {
			sum += w
		}
		if sum < 1-1e-6 || sum > 1+1e-6 {
			return fmt.Errorf("target allocation sums to %f", sum)
		}
	}
	return nil
}

// Portfolio is a mutable, lock-guarded portfolio. Readers take a Snapshot;
// writers go through Mutate.
type Portfolio struct {
	mu    sync.RWMutex
	state Snapshot
}

// New creates a portfolio with an equal-weight target over its holdings.
func New(id, name, strategy string, holdings map[string]Holding, cash map[string]float64) *Portfolio {
	s := Snapshot{
		ID:       id,
		Name:     name,
		Strategy: strategy,
		Holdings: holdings,
		Cash:     cash,
	}.clone()

	if n := len(s.Holdings); n > 0 {
		for sym := range s.Holdings {
			s.TargetAllocation[sym] = 1 / float64(n)
		}
	}

	return &Portfolio{state: s}
}

// ID returns the registry key.
func (p *Portfolio) ID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.ID
}

// Snapshot returns a deep copy of the current state.
func (p *Portfolio) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.clone()
}

// Mutate applies fn to a copy of the state under the write lock. The copy
// replaces the state only if fn succeeds and the result is valid, so a
// failure at any step leaves the portfolio untouched.
func (p *Portfolio) Mutate(fn func(s *Snapshot) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("portfolio %s: %w", p.state.ID, err)
	}
	next.ID = p.state.ID
	p.state = next
	return nil
}
