package auth

import (
	"testing"
	"time"

	"github.com/erazemk/drazba/internal/model"
)

func TestGenerateAndValidateStaffToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, Principal{ID: 1, Name: "Admin", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.Principal.ID != 1 {
		t.Errorf("expected id 1, got %d", claims.Principal.ID)
	}
	if claims.Principal.Name != "Admin" {
		t.Errorf("expected name 'Admin', got %q", claims.Principal.Name)
	}
	if claims.Principal.IsTeam() {
		t.Error("staff token should not be a team principal")
	}
	if claims.Subject != "admin:1" {
		t.Errorf("expected subject 'admin:1', got %q", claims.Subject)
	}
	if claims.RegisteredClaims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestTeamToken(t *testing.T) {
	secret := "test"
	token, err := GenerateToken(secret, Principal{ID: 7, Name: "Chennai", Role: model.RoleTeam})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if !claims.Principal.IsTeam() {
		t.Error("expected a team principal")
	}
	if claims.Principal.ID != 7 {
		t.Errorf("expected team id 7, got %d", claims.Principal.ID)
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	p := Principal{ID: 1, Name: "Admin", Role: model.RoleAdmin}
	a, _ := GenerateToken("s", p)
	b, _ := GenerateToken("s", p)

	ca, _ := ValidateToken("s", a)
	cb, _ := ValidateToken("s", b)
	if ca.RegisteredClaims.ID == cb.RegisteredClaims.ID {
		t.Error("expected distinct token ids")
	}
}

func TestGenerateTokenRequiresRole(t *testing.T) {
	if _, err := GenerateToken("s", Principal{ID: 1}); err == nil {
		t.Error("expected error for missing role")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", Principal{ID: 1, Role: model.RoleAdmin})

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	tests := []struct {
		role string
		want time.Duration
	}{
		{model.RoleAdmin, StaffTokenExpiry},
		{model.RoleOperator, StaffTokenExpiry},
		{model.RoleTeam, TeamTokenExpiry},
	}
	for _, tt := range tests {
		token, _ := GenerateToken("test", Principal{ID: 1, Role: tt.role})
		claims, err := ValidateToken("test", token)
		if err != nil {
			t.Fatalf("ValidateToken(%s): %v", tt.role, err)
		}

		diff := time.Now().Add(tt.want).Sub(claims.ExpiresAt.Time)
		if diff < -5*time.Second || diff > 5*time.Second {
			t.Errorf("%s: token expiry too far from expected: diff=%v", tt.role, diff)
		}
	}
}
