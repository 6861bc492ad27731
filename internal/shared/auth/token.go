package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// TokenVerifier checks presented API tokens against a bcrypt hash loaded
// from configuration. The service is single-tenant, so one token guards the
// whole API.
type TokenVerifier struct {
	hash []byte
}

func NewTokenVerifier(hash string) *TokenVerifier {
	return &TokenVerifier{hash: []byte(hash)}
}

// Verify returns true when the presented token matches the configured hash.
func (v *TokenVerifier) Verify(token string) bool {
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.hash, []byte(token)) == nil
}

// HashToken generates a bcrypt hash suitable for API_TOKEN_HASH.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hash), nil
}
