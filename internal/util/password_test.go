package util

import "testing"

func TestDeriveAndVerifyPassword(t *testing.T) {
	hash, salt, err := DerivePassword("CorrectHorse1")
	if err != nil {
		t.Fatalf("DerivePassword returned error: %v", err)
	}
	if len(hash) == 0 || len(salt) == 0 {
		t.Fatalf("expected hash and salt to be non-empty")
	}
	if !VerifyPassword("CorrectHorse1", salt, hash) {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword("WrongHorse1", salt, hash) {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestHashPasswordEmptyInput(t *testing.T) {
	if _, err := HashPassword("", []byte("salt")); err == nil {
		t.Fatalf("expected error for empty password")
	}
	if _, err := HashPassword("password1", nil); err == nil {
		t.Fatalf("expected error for empty salt")
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"short1", false},
		{"onlyletters", false},
		{"12345678", false},
		{"letters123", true},
		{"Uzun.Sifre.42", true},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.ok && err != nil {
			t.Fatalf("expected %q to be accepted, got %v", tc.password, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("expected %q to be rejected", tc.password)
		}
	}
}
