package trade

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/alschell/wealthhorizonai/internal/ledger"
	"github.com/alschell/wealthhorizonai/internal/modules/portfolio"
)

// Trade outcomes.
const (
	Processed         = "Trade processed."
	Executed          = "Trade executed, approved, and tax-optimized."
	ExecutedDeposited = "Trade executed, approved, tax-optimized, and funds deposited."
)

// Broker is where every executed order is routed.
const Broker = "Interactive Brokers"

// DefaultAsset is sold when the instruction names no instrument.
const DefaultAsset = "TSLA"

// Account is a deposit destination.
type Account struct {
	Currency string
	Bank     string
	Location string
}

// DepositAccounts receive equal shares of deposited proceeds.
var DepositAccounts = []Account{
	{Currency: "GBP", Bank: "Standard Chartered", Location: "UK"},
	{Currency: "CHF", Bank: "UBS", Location: "Switzerland"},
	{Currency: "HKD", Bank: "HSBC", Location: "Hong Kong"},
}

var assetAliases = map[string]string{
	"apple": "AAPL",
	"tesla": "TSLA",
}

// Order is a parsed sell instruction.
type Order struct {
	Portfolio string
	Asset     string
	Fraction  float64
	Deposit   bool
}

// ParseOrder reads a free-text sell instruction. ok is false when the text
// contains no sell intent.
func (s *Service) ParseOrder(text string) (Order, bool) {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "sell") {
		return Order{}, false
	}

	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) {
		words[w] = true
	}

	ids := s.state.PortfolioIDs()
	o := Order{Fraction: 1, Deposit: strings.Contains(lower, "deposit")}
	if len(ids) > 0 {
		o.Portfolio = ids[0]
	}
	for _, id := range ids {
		if words[strings.ToLower(id)] {
			o.Portfolio = id
			break
		}
	}
	if strings.Contains(lower, "half") {
		o.Fraction = 0.5
	}

	o.Asset = s.resolveAsset(o.Portfolio, words)
	return o, true
}

func (s *Service) resolveAsset(portfolioID string, words map[string]bool) string {
	if p, ok := s.state.Portfolio(portfolioID); ok {
		for _, sym := range p.Snapshot().Symbols() {
			if words[strings.ToLower(sym)] {
				return sym
			}
		}
	}
	for _, alias := range []string{"apple", "tesla"} {
		if words[alias] {
			return assetAliases[alias]
		}
	}
	return DefaultAsset
}

// ExecuteTrade sells part or all of a position. Holdings, the transaction
// record, cash deposits and the journal entry commit together or not at all.
func (s *Service) ExecuteTrade(ctx context.Context, text string) (string, error) {
	order, ok := s.ParseOrder(text)
	if !ok {
		return Processed, nil
	}
	p, ok := s.state.Portfolio(order.Portfolio)
	if !ok {
		return Processed, nil
	}

	executed := false
	err := p.Mutate(func(snap *portfolio.Snapshot) error {
		h, held := snap.Holdings[order.Asset]
		if !held || h.Quantity <= 0 {
			return nil
		}

		qty := h.Quantity * order.Fraction
		proceeds, err := s.state.Engine.PositionValue(order.Asset, portfolio.Holding{Quantity: qty, Currency: h.Currency})
		if err != nil {
			return err
		}

		h.Quantity -= qty
		snap.Holdings[order.Asset] = h

		s.log.Info().Str("broker", Broker).Str("portfolio", snap.ID).Str("asset", order.Asset).Msg("Trade routed to " + Broker)

		now := time.Now().UTC()
		entry := ledger.Trade{
			ID:          ledger.NewTradeID(),
			PortfolioID: snap.ID,
			Side:        "sell",
			Asset:       order.Asset,
			Quantity:    decimal.NewFromFloat(qty),
			Proceeds:    decimal.NewFromFloat(proceeds),
			ExecutedAt:  now,
		}
		snap.Transactions = append(snap.Transactions, portfolio.Transaction{
			ID:         entry.ID,
			Type:       "sell",
			Asset:      order.Asset,
			Quantity:   qty,
			Proceeds:   proceeds,
			ExecutedAt: now,
		})

		net := s.state.Placeholders.TaxAdjusted(proceeds)
		entry.NetProceeds = decimal.NewFromFloat(net.Value)

		if order.Deposit {
			share := net.Value / float64(len(DepositAccounts))
			for _, acct := range DepositAccounts {
				snap.Cash[acct.Currency] += share
				amount := decimal.NewFromFloat(share)
				entry.Deposits = append(entry.Deposits, ledger.Deposit{
					Currency: acct.Currency,
					Bank:     acct.Bank,
					Location: acct.Location,
					Amount:   amount,
				})
				s.log.Info().
					Str("portfolio", snap.ID).
					Str("currency", acct.Currency).
					Str("bank", acct.Bank).
					Msgf("Deposited %s to %s in %s", ledger.FormatMoney(amount, acct.Currency), acct.Bank, acct.Location)
			}
		}

		// The journal commits on its own, so the new state must be valid first.
		if err := snap.Validate(); err != nil {
			return err
		}
		if s.state.Journal != nil {
			if err := s.state.Journal.Record(ctx, entry); err != nil {
				return fmt.Errorf("failed to journal trade: %w", err)
			}
		}
		executed = true
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("trade on %s %s failed: %w", order.Portfolio, order.Asset, err)
	}

	if !executed {
		return Processed, nil
	}
	if order.Deposit {
		return ExecutedDeposited, nil
	}
	return Executed, nil
}
