package model

import (
	"fmt"
	"time"
)

// User is an operator account (separate from teams).
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles. RoleTeam is carried only in tokens issued to team bidders.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleTeam     = "team"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:    3,
		RoleOperator: 2,
		RoleTeam:     1,
	}
	return levels[role] > 0 && levels[role] >= levels[minimum] && levels[minimum] > 0
}

// ValidatePassword checks password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
