package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("HashPassword() returned the plaintext")
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("CheckPassword() = false for the right password")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("CheckPassword() = true for the wrong password")
	}
	if CheckPassword("", "correct horse") {
		t.Error("CheckPassword() = true for an empty hash")
	}
}

func TestHashPassword_InvalidCost(t *testing.T) {
	if _, err := HashPassword("correct horse", bcrypt.MaxCost+1); err == nil {
		t.Error("HashPassword() expected error for cost above bcrypt.MaxCost")
	}
}

func TestValidateNewPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		want     error
	}{
		{"valid", "longenough", "longenough", nil},
		{"exactly minimum", "12345678", "12345678", nil},
		{"too short", "short", "short", ErrPasswordTooShort},
		{"mismatch", "longenough", "longenougH", ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateNewPassword(tt.password, tt.confirm); !errors.Is(err, tt.want) {
				t.Errorf("ValidateNewPassword() = %v, want %v", err, tt.want)
			}
		})
	}
}
