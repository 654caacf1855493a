package model

import (
	"strings"
	"time"
)

// Team is a buyer organization with a purse.
type Team struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"`
	LogoURL         string    `json:"logo_url,omitempty"`
	InitialBudget   int64     `json:"initial_budget"`
	BudgetRemaining int64     `json:"budget_remaining"`
	CreatedAt       time.Time `json:"created_at"`
}

// SameTeamName compares team names ignoring case and surrounding whitespace.
func SameTeamName(a, b string) bool {
	return NormalizeTeamName(a) == NormalizeTeamName(b)
}

// NormalizeTeamName returns the comparison key for a team name.
func NormalizeTeamName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Squad summarizes what a team has bought so far.
type Squad struct {
	TeamID          int64          `json:"team_id"`
	TeamName        string         `json:"team_name"`
	Items           []Sale         `json:"items"`
	TotalSpent      int64          `json:"total_spent"`
	TotalRating     int            `json:"total_rating"`
	BudgetRemaining int64          `json:"budget_remaining"`
	Categories      map[string]int `json:"categories"`
	Domestic        int            `json:"domestic"`
	Overseas        int            `json:"overseas"`
	RTMUsed         RTMUsage       `json:"rtm_used"`
	RTMRemaining    RTMUsage       `json:"rtm_remaining"`
}
