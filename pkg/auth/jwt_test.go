package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_TokensRoundTripClaims(t *testing.T) {
	Configure("test-secret")
	properties := gopter.NewProperties(nil)

	properties.Property("signed tokens validate and keep identity claims", prop.ForAll(
		func(userID string, role string) bool {
			token, err := GenerateToken(Claims{UserID: userID, Role: role, Permissions: []string{"report:export"}}, time.Hour)
			if err != nil {
				t.Logf("FAIL: sign: %v", err)
				return false
			}
			claims, err := ValidateToken(token)
			if err != nil {
				t.Logf("FAIL: validate: %v", err)
				return false
			}
			return claims.UserID == userID && claims.Role == role &&
				len(claims.Permissions) == 1 && claims.Permissions[0] == "report:export"
		},
		gen.AlphaString(),
		gen.OneConstOf("Admin", "Manager", "StockManager", "User"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	Configure("test-secret")
	claims := Claims{UserID: "u-1", Role: "Admin"}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	Configure("secret-a")
	signed, err := GenerateToken(Claims{UserID: "u-1"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	Configure("secret-b")
	if _, err := ValidateToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAllRoles(t *testing.T) {
	c := Claims{Role: "Reporter", Roles: []string{"StockManager"}}
	roles := c.AllRoles()
	if len(roles) != 2 || roles[0] != "Reporter" || roles[1] != "StockManager" {
		t.Fatalf("AllRoles() = %v", roles)
	}

	empty := Claims{}
	if len(empty.AllRoles()) != 0 {
		t.Fatalf("expected no roles, got %v", empty.AllRoles())
	}
}
