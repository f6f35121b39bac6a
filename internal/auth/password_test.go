package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordMatches(t *testing.T) {
	hash, err := HashPassword("Senha@123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := PasswordMatches(hash, "Senha@123")
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = PasswordMatches(hash, "wrong-password")
	if err != nil || ok {
		t.Fatalf("expected clean mismatch, got ok=%v err=%v", ok, err)
	}

	if _, err := PasswordMatches("not-a-bcrypt-hash", "Senha@123"); err == nil {
		t.Fatalf("expected error for corrupt hash")
	}
}
