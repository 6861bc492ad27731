package auth

import "testing"

func TestVerify(t *testing.T) {
	hash, err := HashToken("super-secret")
	if err != nil {
		t.Fatalf("HashToken() failed: %v", err)
	}

	v := NewTokenVerifier(hash)

	if !v.Verify("super-secret") {
		t.Error("Verify() = false for the correct token")
	}
	if v.Verify("wrong-token") {
		t.Error("Verify() = true for a wrong token")
	}
	if v.Verify("") {
		t.Error("Verify() = true for an empty token")
	}
}

func TestHashToken_Empty(t *testing.T) {
	if _, err := HashToken(""); err == nil {
		t.Error("HashToken(\"\") expected error, got nil")
	}
}
