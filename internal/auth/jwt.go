// Package auth issues and verifies the bearer tokens used by staff accounts
// and team bidders.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/erazemk/drazba/internal/model"
)

// Token lifetimes. Team tokens cover a single auction day.
const (
	StaffTokenExpiry = 7 * 24 * time.Hour
	TeamTokenExpiry  = 12 * time.Hour
)

// Principal is whoever a token was issued to. For RoleTeam the ID is a team
// ID, otherwise it is a user ID.
type Principal struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsTeam reports whether the principal bids on behalf of a team.
func (p Principal) IsTeam() bool {
	return p.Role == model.RoleTeam
}

// Claims are the JWT claims carried by every token.
type Claims struct {
	Principal Principal `json:"principal"`
	jwt.RegisteredClaims
}

// Expiry returns the token lifetime for a role.
func Expiry(role string) time.Duration {
	if role == model.RoleTeam {
		return TeamTokenExpiry
	}
	return StaffTokenExpiry
}

// GenerateToken signs a token for p with a unique ID.
func GenerateToken(secret string, p Principal) (string, error) {
	if p.Role == "" {
		return "", errors.New("principal has no role")
	}

	now := time.Now()
	claims := Claims{
		Principal: p,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%s:%d", p.Role, p.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(Expiry(p.Role))),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Principal.Role == "" {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
