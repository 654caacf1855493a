// Package store holds the SQL repository functions for the auction.
package store

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is implemented by both *sql.DB and *sql.Tx, so every repository
// function can run standalone or inside a caller's transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ErrInsufficientFunds is returned by Debit when the team's remaining
// budget does not cover the amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

type scanner interface {
	Scan(dest ...any) error
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
