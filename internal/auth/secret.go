package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes a plaintext admin secret with the given bcrypt cost.
func HashSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifySecret checks a presented secret against the configured credentials.
// A configured bcrypt hash takes precedence over the plaintext secret;
// plaintext comparison is constant-time.
func VerifySecret(presented, plaintext, bcryptHash string) bool {
	if bcryptHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(bcryptHash), []byte(presented)) == nil
	}
	if plaintext == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(plaintext)) == 1
}
