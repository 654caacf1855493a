package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'operator' CHECK (role IN ('admin', 'operator')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username COLLATE NOCASE) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS teams (
    id               INTEGER PRIMARY KEY,
    name             TEXT NOT NULL UNIQUE COLLATE NOCASE,
    password_hash    TEXT NOT NULL DEFAULT '',
    logo_url         TEXT,
    initial_budget   INTEGER NOT NULL CHECK (initial_budget >= 0),
    budget_remaining INTEGER NOT NULL CHECK (budget_remaining >= 0),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id               INTEGER PRIMARY KEY,
    name             TEXT NOT NULL UNIQUE,
    rating           INTEGER NOT NULL DEFAULT 0,
    category         TEXT NOT NULL DEFAULT '',
    nationality      TEXT NOT NULL DEFAULT '',
    image            BLOB,
    image_mime       TEXT,
    base_price       INTEGER NOT NULL CHECK (base_price >= 0),
    current_bid      INTEGER NOT NULL DEFAULT 0,
    state            TEXT NOT NULL DEFAULT 'idle' CHECK (state IN ('idle', 'active', 'sold', 'unsold')),
    buyer_team_id    INTEGER REFERENCES teams(id),
    previous_owner   TEXT,
    last_activity_at DATETIME,
    unsold_at        DATETIME,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_state ON items(state);

CREATE TABLE IF NOT EXISTS bids (
    id         INTEGER PRIMARY KEY,
    item_id    INTEGER NOT NULL REFERENCES items(id),
    team_id    INTEGER NOT NULL REFERENCES teams(id),
    amount     INTEGER NOT NULL CHECK (amount > 0),
    placed_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bids_item ON bids(item_id, id);

CREATE TABLE IF NOT EXISTS sales (
    item_id     INTEGER PRIMARY KEY REFERENCES items(id),
    team_id     INTEGER NOT NULL REFERENCES teams(id),
    amount      INTEGER NOT NULL CHECK (amount >= 0),
    is_rtm      INTEGER NOT NULL DEFAULT 0,
    item_name   TEXT NOT NULL,
    rating      INTEGER NOT NULL DEFAULT 0,
    category    TEXT NOT NULL DEFAULT '',
    nationality TEXT NOT NULL DEFAULT '',
    sold_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_team ON sales(team_id);

CREATE TABLE IF NOT EXISTS unsold (
    item_id     INTEGER PRIMARY KEY REFERENCES items(id),
    item_name   TEXT NOT NULL,
    rating      INTEGER NOT NULL DEFAULT 0,
    category    TEXT NOT NULL DEFAULT '',
    nationality TEXT NOT NULL DEFAULT '',
    marked_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS negotiations (
    id             TEXT PRIMARY KEY,
    item_id        INTEGER NOT NULL UNIQUE REFERENCES items(id),
    owner_team_id  INTEGER NOT NULL REFERENCES teams(id),
    bidder_team_id INTEGER NOT NULL REFERENCES teams(id),
    amount         INTEGER NOT NULL,
    opened_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_entries (
    id         INTEGER PRIMARY KEY,
    team_id    INTEGER NOT NULL REFERENCES teams(id),
    item_id    INTEGER REFERENCES items(id),
    kind       TEXT NOT NULL CHECK (kind IN ('debit', 'refund', 'reset')),
    amount     INTEGER NOT NULL,
    balance    INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ledger_team ON ledger_entries(team_id, id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
