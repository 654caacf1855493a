package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/drazba/internal/model"
)

const teamColumns = `id, name, password_hash, logo_url, initial_budget, budget_remaining, created_at`

func scanTeam(s scanner) (*model.Team, error) {
	t := &model.Team{}
	var logo sql.NullString
	if err := s.Scan(&t.ID, &t.Name, &t.PasswordHash, &logo, &t.InitialBudget, &t.BudgetRemaining, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.LogoURL = logo.String
	return t, nil
}

// CreateTeam creates a team with a full purse.
func CreateTeam(ctx context.Context, db DBTX, name, passwordHash, logoURL string, budget int64) (*model.Team, error) {
	if budget < 0 {
		return nil, fmt.Errorf("budget must not be negative")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO teams (name, password_hash, logo_url, initial_budget, budget_remaining)
		 VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(name), passwordHash, nullString(logoURL), budget, budget,
	)
	if err != nil {
		return nil, fmt.Errorf("creating team: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting team id: %w", err)
	}

	return GetTeam(ctx, db, id)
}

// GetTeam returns a team by ID.
func GetTeam(ctx context.Context, db DBTX, id int64) (*model.Team, error) {
	t, err := scanTeam(db.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return t, nil
}

// GetTeamByName returns a team by name, ignoring case and surrounding spaces.
func GetTeamByName(ctx context.Context, db DBTX, name string) (*model.Team, error) {
	t, err := scanTeam(db.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting team by name: %w", err)
	}
	return t, nil
}

// ListTeams returns all teams.
func ListTeams(ctx context.Context, db DBTX) ([]model.Team, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []model.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

// UpdateTeamPassword sets a team's bidder password hash.
func UpdateTeamPassword(ctx context.Context, db DBTX, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE teams SET password_hash = ? WHERE id = ?`, passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating team password: %w", err)
	}
	return nil
}
