// Package ledger persists executed trades and the cash deposits they fund.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/alschell/wealthhorizonai/internal/database"
)

// Deposit is one cash credit funded by a trade.
type Deposit struct {
	Currency string
	Bank     string
	Location string
	Amount   decimal.Decimal
}

// Trade is one journal entry.
type Trade struct {
	ID          string
	PortfolioID string
	Side        string
	Asset       string
	Quantity    decimal.Decimal
	Proceeds    decimal.Decimal
	NetProceeds decimal.Decimal // after the tax adjustment
	ExecutedAt  time.Time
	Deposits    []Deposit
}

// Journal is the sqlite-backed trade journal.
type Journal struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewJournal creates a journal over a migrated "ledger" database.
func NewJournal(db *sql.DB, log zerolog.Logger) *Journal {
	return &Journal{
		db:  db,
		log: log.With().Str("component", "ledger").Logger(),
	}
}

// NewTradeID returns a fresh trade identifier.
func NewTradeID() string {
	return uuid.New().String()
}

// Record writes the trade and its deposits in one transaction.
func (j *Journal) Record(ctx context.Context, t Trade) error {
	if t.ID == "" {
		t.ID = NewTradeID()
	}
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now()
	}

	err := database.WithTransaction(j.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trades (id, portfolio_id, side, asset, quantity, proceeds, net_proceeds, executed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.PortfolioID, t.Side, t.Asset,
			t.Quantity.String(), t.Proceeds.String(), t.NetProceeds.String(), t.ExecutedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}

		for _, d := range t.Deposits {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO deposits (trade_id, currency, bank, location, amount)
				VALUES (?, ?, ?, ?, ?)
			`, t.ID, d.Currency, d.Bank, d.Location, d.Amount.String())
			if err != nil {
				return fmt.Errorf("failed to insert deposit %s: %w", d.Currency, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record trade %s on %s: %w", t.Asset, t.PortfolioID, err)
	}

	j.log.Debug().
		Str("trade_id", t.ID).
		Str("portfolio", t.PortfolioID).
		Str("asset", t.Asset).
		Str("proceeds", t.Proceeds.StringFixed(2)).
		Int("deposits", len(t.Deposits)).
		Msg("Trade journaled")
	return nil
}

// ListByPortfolio returns a portfolio's trades, oldest first.
func (j *Journal) ListByPortfolio(ctx context.Context, portfolioID string) ([]Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, portfolio_id, side, asset, quantity, proceeds, net_proceeds, executed_at
		FROM trades WHERE portfolio_id = ? ORDER BY executed_at, id
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var (
			t                  Trade
			qty, proceeds, net string
			executedAt         int64
		)
		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.Side, &t.Asset, &qty, &proceeds, &net, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		if t.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("trade %s quantity: %w", t.ID, err)
		}
		if t.Proceeds, err = decimal.NewFromString(proceeds); err != nil {
			return nil, fmt.Errorf("trade %s proceeds: %w", t.ID, err)
		}
		if t.NetProceeds, err = decimal.NewFromString(net); err != nil {
			return nil, fmt.Errorf("trade %s net proceeds: %w", t.ID, err)
		}
		t.ExecutedAt = time.UnixMilli(executedAt)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	for i := range trades {
		deposits, err := j.deposits(ctx, trades[i].ID)
		if err != nil {
			return nil, err
		}
		trades[i].Deposits = deposits
	}
	return trades, nil
}

func (j *Journal) deposits(ctx context.Context, tradeID string) ([]Deposit, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT currency, bank, location, amount FROM deposits WHERE trade_id = ? ORDER BY currency
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits: %w", err)
	}
	defer rows.Close()

	var out []Deposit
	for rows.Next() {
		var d Deposit
		var amount string
		if err := rows.Scan(&d.Currency, &d.Bank, &d.Location, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		if d.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("deposit %s amount: %w", d.Currency, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count returns the number of journaled trades.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trades").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return n, nil
}

// FormatMoney renders an amount with its currency symbol, e.g. "£1,234.56".
// Unknown currency codes fall back to "1234.56 XYZ".
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), currency).Display()
}
