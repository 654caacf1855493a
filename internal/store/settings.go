package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erazemk/drazba/internal/model"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT so concurrent startups agree on one value.
func GetJWTSecret(ctx context.Context, db DBTX) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('jwt_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'jwt_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}

	return secret, nil
}

// LoadRules returns the auction rules, seeding the defaults on first use.
func LoadRules(ctx context.Context, db DBTX) (model.Rules, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'rules'`,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		rules := model.DefaultRules()
		if err := SaveRules(ctx, db, rules); err != nil {
			return model.Rules{}, err
		}
		return rules, nil
	}
	if err != nil {
		return model.Rules{}, fmt.Errorf("querying rules: %w", err)
	}

	var rules model.Rules
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return model.Rules{}, fmt.Errorf("decoding rules: %w", err)
	}
	return rules, nil
}

// SaveRules validates and stores the auction rules, replacing the old set.
func SaveRules(ctx context.Context, db DBTX, rules model.Rules) error {
	rules.DomesticNationality = strings.TrimSpace(rules.DomesticNationality)
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}

	raw, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('rules', ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("storing rules: %w", err)
	}
	return nil
}
