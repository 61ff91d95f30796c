package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/config"
	"github.com/alschell/wealthhorizonai/internal/database"
	"github.com/alschell/wealthhorizonai/internal/ledger"
)

// InitializeDatabases opens the trade journal database and applies its schema.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	ledgerDB, err := database.New(database.Config{
		Path:    cfg.LedgerDSN,
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger database: %w", err)
	}
	if err := ledgerDB.Migrate(); err != nil {
		ledgerDB.Close()
		return nil, fmt.Errorf("failed to migrate ledger database: %w", err)
	}
	container.LedgerDB = ledgerDB
	container.Journal = ledger.NewJournal(ledgerDB.Conn(), log)

	log.Debug().Str("path", ledgerDB.Path()).Msg("Ledger database ready")
	return container, nil
}
