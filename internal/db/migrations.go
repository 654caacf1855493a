package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: ledger entries and unsold rows may reference items that were
	// deleted from the catalog; drop rows that point at nothing.
	`DELETE FROM ledger_entries WHERE item_id IS NOT NULL
	     AND item_id NOT IN (SELECT id FROM items)`,
	// Migration 2: a negotiation without an active item is stale.
	`DELETE FROM negotiations
	     WHERE item_id NOT IN (SELECT id FROM items WHERE state = 'active')`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
