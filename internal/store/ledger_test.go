package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

func TestDebitAndRefund(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	team, _ := CreateTeam(ctx, database, "RR", "", "", 1_000)

	balance, err := Debit(ctx, database, team.ID, nil, 400, now)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if balance != 600 {
		t.Errorf("expected balance 600, got %d", balance)
	}

	balance, err = Refund(ctx, database, team.ID, nil, 400, now)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if balance != 1_000 {
		t.Errorf("expected balance 1000, got %d", balance)
	}

	entries, _ := ListLedger(ctx, database, team.ID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	if entries[0].Kind != model.LedgerDebit || entries[0].Amount != -400 || entries[0].Balance != 600 {
		t.Errorf("unexpected debit entry %+v", entries[0])
	}
	if entries[1].Kind != model.LedgerRefund || entries[1].Amount != 400 || entries[1].Balance != 1_000 {
		t.Errorf("unexpected refund entry %+v", entries[1])
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	team, _ := CreateTeam(ctx, database, "PBKS", "", "", 100)

	_, err := Debit(ctx, database, team.ID, nil, 101, time.Now())
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	budget, _ := BudgetOf(ctx, database, team.ID)
	if budget != 100 {
		t.Errorf("expected budget unchanged at 100, got %d", budget)
	}
	entries, _ := ListLedger(ctx, database, team.ID)
	if len(entries) != 0 {
		t.Errorf("expected no ledger entries, got %d", len(entries))
	}
}

func TestResetBudgets(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	spent, _ := CreateTeam(ctx, database, "GT", "", "", 1_000)
	untouched, _ := CreateTeam(ctx, database, "LSG", "", "", 1_000)
	Debit(ctx, database, spent.ID, nil, 300, now)

	if err := ResetBudgets(ctx, database, now); err != nil {
		t.Fatalf("ResetBudgets: %v", err)
	}

	for _, id := range []int64{spent.ID, untouched.ID} {
		budget, _ := BudgetOf(ctx, database, id)
		if budget != 1_000 {
			t.Errorf("team %d: expected budget 1000, got %d", id, budget)
		}
	}

	entries, _ := ListLedger(ctx, database, spent.ID)
	if len(entries) != 2 || entries[1].Kind != model.LedgerReset || entries[1].Amount != 300 {
		t.Errorf("expected reset entry of 300, got %+v", entries)
	}
	entries, _ = ListLedger(ctx, database, untouched.ID)
	if len(entries) != 0 {
		t.Errorf("expected no entries for untouched team, got %d", len(entries))
	}
}
