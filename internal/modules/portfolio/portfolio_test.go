package portfolio

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePortfolio() *Portfolio {
	return New("P1", "Sample", "Growth",
		map[string]Holding{
			"AAPL": {Quantity: 100, AssetClass: "Equity", Currency: "USD"},
			"BTC":  {Quantity: 1, AssetClass: CryptoClass, Currency: "USD"},
		},
		map[string]float64{"USD": 1000},
	)
}

func TestNew_EqualWeightTarget(t *testing.T) {
	s := samplePortfolio().Snapshot()
	assert.Equal(t, map[string]float64{"AAPL": 0.5, "BTC": 0.5}, s.TargetAllocation)
	assert.Equal(t, []string{"AAPL", "BTC"}, s.Symbols())
	assert.Equal(t, []string{"USD"}, s.Currencies())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	p := samplePortfolio()
	s := p.Snapshot()
	s.Cash["USD"] = 0
	s.Holdings["AAPL"] = Holding{}
	s.Transactions = append(s.Transactions, Transaction{ID: "x"})

	fresh := p.Snapshot()
	assert.Equal(t, 1000.0, fresh.Cash["USD"])
	assert.Equal(t, 100.0, fresh.Holdings["AAPL"].Quantity)
	assert.Empty(t, fresh.Transactions)
}

func TestMutate_CommitsOnSuccess(t *testing.T) {
	p := samplePortfolio()
	err := p.Mutate(func(s *Snapshot) error {
		h := s.Holdings["AAPL"]
		h.Quantity = 50
		s.Holdings["AAPL"] = h
		s.Cash["GBP"] += 10
		s.Transactions = append(s.Transactions, Transaction{ID: "t1", Type: "sell"})
		return nil
	})
	require.NoError(t, err)

	s := p.Snapshot()
	assert.Equal(t, 50.0, s.Holdings["AAPL"].Quantity)
	assert.Equal(t, 10.0, s.Cash["GBP"])
	assert.Len(t, s.Transactions, 1)
}

func TestMutate_RollsBackOnError(t *testing.T) {
	p := samplePortfolio()
	boom := errors.New("journal offline")

	err := p.Mutate(func(s *Snapshot) error {
		h := s.Holdings["AAPL"]
		h.Quantity = 0
		s.Holdings["AAPL"] = h
		s.Cash["GBP"] = 123
		return boom
	})
	require.ErrorIs(t, err, boom)

	s := p.Snapshot()
	assert.Equal(t, 100.0, s.Holdings["AAPL"].Quantity)
	assert.NotContains(t, s.Cash, "GBP")
}

func TestMutate_RejectsInvalidState(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Snapshot)
	}{
		{"negative quantity", func(s *Snapshot) { s.Holdings["AAPL"] = Holding{Quantity: -1} }},
		{"negative cash", func(s *Snapshot) { s.Cash["USD"] = -0.01 }},
		{"target not on simplex", func(s *Snapshot) { s.TargetAllocation = map[string]float64{"AAPL": 0.7} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePortfolio()
			err := p.Mutate(func(s *Snapshot) error {
				tt.mutate(s)
				return nil
			})
			require.Error(t, err)
			assert.Equal(t, samplePortfolio().Snapshot(), p.Snapshot())
		})
	}
}

func TestMutate_SerializesWriters(t *testing.T) {
	p := samplePortfolio()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Mutate(func(s *Snapshot) error {
				s.Cash["USD"]++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1050.0, p.Snapshot().Cash["USD"])
}
