package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/drazba/internal/model"
)

// Debit takes amount out of a team's purse and journals it. It returns
// ErrInsufficientFunds, leaving the purse untouched, when the remaining
// budget does not cover the amount.
func Debit(ctx context.Context, db DBTX, teamID int64, itemID *int64, amount int64, now time.Time) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must not be negative")
	}

	result, err := db.ExecContext(ctx,
		`UPDATE teams SET budget_remaining = budget_remaining - ?
		 WHERE id = ? AND budget_remaining >= ?`,
		amount, teamID, amount,
	)
	if err != nil {
		return 0, fmt.Errorf("debiting team: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("debiting team: %w", err)
	}
	if n == 0 {
		return 0, ErrInsufficientFunds
	}

	return journal(ctx, db, teamID, itemID, model.LedgerDebit, -amount, now)
}

// Refund returns amount to a team's purse and journals it.
func Refund(ctx context.Context, db DBTX, teamID int64, itemID *int64, amount int64, now time.Time) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("refund amount must not be negative")
	}

	_, err := db.ExecContext(ctx,
		`UPDATE teams SET budget_remaining = budget_remaining + ? WHERE id = ?`,
		amount, teamID,
	)
	if err != nil {
		return 0, fmt.Errorf("refunding team: %w", err)
	}

	return journal(ctx, db, teamID, itemID, model.LedgerRefund, amount, now)
}

// BudgetOf returns a team's remaining purse.
func BudgetOf(ctx context.Context, db DBTX, teamID int64) (int64, error) {
	var budget int64
	err := db.QueryRowContext(ctx,
		`SELECT budget_remaining FROM teams WHERE id = ?`, teamID,
	).Scan(&budget)
	if err != nil {
		return 0, fmt.Errorf("getting budget: %w", err)
	}
	return budget, nil
}

// ResetBudgets restores every team's purse to its initial budget, journaling
// the correction for teams whose balance changed.
func ResetBudgets(ctx context.Context, db DBTX, now time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO ledger_entries (team_id, kind, amount, balance, created_at)
		 SELECT id, 'reset', initial_budget - budget_remaining, initial_budget, ?
		 FROM teams WHERE budget_remaining != initial_budget`,
		now,
	)
	if err != nil {
		return fmt.Errorf("journaling budget reset: %w", err)
	}

	if _, err := db.ExecContext(ctx, `UPDATE teams SET budget_remaining = initial_budget`); err != nil {
		return fmt.Errorf("resetting budgets: %w", err)
	}
	return nil
}

// ListLedger returns a team's ledger, oldest first.
func ListLedger(ctx context.Context, db DBTX, teamID int64) ([]model.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, team_id, item_id, kind, amount, balance, created_at
		 FROM ledger_entries WHERE team_id = ? ORDER BY id`, teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.TeamID, &e.ItemID, &e.Kind, &e.Amount, &e.Balance, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func journal(ctx context.Context, db DBTX, teamID int64, itemID *int64, kind string, amount int64, now time.Time) (int64, error) {
	balance, err := BudgetOf(ctx, db, teamID)
	if err != nil {
		return 0, err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO ledger_entries (team_id, item_id, kind, amount, balance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		teamID, nullInt64(itemID), kind, amount, balance, now,
	)
	if err != nil {
		return 0, fmt.Errorf("journaling %s: %w", kind, err)
	}
	return balance, nil
}
