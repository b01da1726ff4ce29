package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("unit-test-secret", 10)

	token, expiresAt, err := manager.GenerateToken("alice@example.com", domain.RoleAgent)
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("token must expire in the future")
	}

	claims, err := manager.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Email != "alice@example.com" || claims.Role != domain.RoleAgent {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-one", 10)
	verifier := NewTokenManager("secret-two", 10)

	token, _, err := issuer.GenerateToken("alice@example.com", domain.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("token signed with another secret must fail to parse")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	manager := NewTokenManager("unit-test-secret", 10)
	if _, err := manager.ParseToken("not.a.token"); err == nil {
		t.Fatal("garbage must fail to parse")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter222", 4)
	if err != nil {
		t.Fatal(err)
	}
	if hash == "hunter222" {
		t.Fatal("hash must not equal the password")
	}
	if err := ComparePassword(hash, "hunter222"); err != nil {
		t.Errorf("matching password must verify: %v", err)
	}
	if err := ComparePassword(hash, "hunter223"); err == nil {
		t.Error("wrong password must not verify")
	}
}
