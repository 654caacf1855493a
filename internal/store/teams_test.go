package store

import (
	"context"
	"testing"

	"github.com/erazemk/drazba/internal/db"
)

func TestCreateAndGetTeam(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	team, err := CreateTeam(ctx, database, "Chennai", "hash", "https://example.com/csk.png", 1_000_000)
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if team.InitialBudget != 1_000_000 || team.BudgetRemaining != 1_000_000 {
		t.Errorf("expected full purse, got %d/%d", team.BudgetRemaining, team.InitialBudget)
	}
	if team.LogoURL != "https://example.com/csk.png" {
		t.Errorf("unexpected logo %q", team.LogoURL)
	}

	got, err := GetTeamByName(ctx, database, "  chennai ")
	if err != nil {
		t.Fatalf("GetTeamByName: %v", err)
	}
	if got == nil || got.ID != team.ID {
		t.Fatal("expected case-insensitive lookup to find team")
	}

	missing, _ := GetTeamByName(ctx, database, "Mumbai")
	if missing != nil {
		t.Error("expected nil for missing team")
	}
}

func TestCreateTeamDuplicateName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateTeam(ctx, database, "Delhi", "", "", 100); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if _, err := CreateTeam(ctx, database, "DELHI", "", "", 100); err == nil {
		t.Error("expected duplicate team name to fail")
	}
}

func TestCreateTeamNegativeBudget(t *testing.T) {
	database := db.NewTestDB(t)

	if _, err := CreateTeam(context.Background(), database, "Broke", "", "", -1); err == nil {
		t.Error("expected negative budget to fail")
	}
}

func TestListTeamsAndPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	b, _ := CreateTeam(ctx, database, "B", "", "", 100)
	CreateTeam(ctx, database, "A", "", "", 100)

	teams, err := ListTeams(ctx, database)
	if err != nil {
		t.Fatalf("ListTeams: %v", err)
	}
	if len(teams) != 2 || teams[0].Name != "A" {
		t.Errorf("expected teams sorted by name, got %+v", teams)
	}

	UpdateTeamPassword(ctx, database, b.ID, "newhash")
	got, _ := GetTeam(ctx, database, b.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}
