package testing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alschell/wealthhorizonai/internal/database"
)

// NewTestDB creates a private in-memory SQLite database and applies the
// embedded schema for name, if one exists. The database is closed when the
// test finishes.
//
// Supported schema names:
//   - "ledger" - applies ledger_schema.sql
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	// Shared cache keeps the single pooled connection and any reopen on the
	// same data; the test name keeps databases isolated.
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, strings.ReplaceAll(t.Name(), "/", "_"))

	db, err := database.New(database.Config{
		Path:    dsn,
		Profile: database.ProfileLedger,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})
	return db
}
