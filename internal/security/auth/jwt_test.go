package auth

import (
	"testing"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
)

func TestGenerateAndValidate(t *testing.T) {
	tm := NewTokenManager("secret", "taskhub-test")
	user := domain.User{ID: 3, Name: "Sarah Johnson", Email: "sarah@demo.com", Role: domain.RoleManager}

	token, err := tm.GenerateToken(user, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != 3 || claims.Email != "sarah@demo.com" || claims.Role != "manager" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateRejectsForeignToken(t *testing.T) {
	tm := NewTokenManager("secret-a", "taskhub-test")
	other := NewTokenManager("secret-b", "taskhub-test")

	token, err := other.GenerateToken(domain.User{ID: 1, Email: "a@x.com"}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := tm.ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail for token signed with a different secret")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("secret", "taskhub-test")
	token, err := tm.GenerateToken(domain.User{ID: 1, Email: "a@x.com"}, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := tm.ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail for expired token")
	}
}

func TestExtractToken(t *testing.T) {
	if _, err := ExtractToken("Basic abc"); err == nil {
		t.Fatal("expected error for non-bearer header")
	}
	token, err := ExtractToken("Bearer abc.def.ghi")
	if err != nil || token != "abc.def.ghi" {
		t.Fatalf("unexpected extract result: %q, %v", token, err)
	}
}

func TestGenerateRequiresIdentity(t *testing.T) {
	tm := NewTokenManager("secret", "taskhub-test")
	if _, err := tm.GenerateToken(domain.User{}, time.Hour); err == nil {
		t.Fatal("expected error for user without id and email")
	}
}
