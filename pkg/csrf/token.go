package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

const (
	// TokenBytes is the entropy of a token.
	TokenBytes = 32

	// TokenLength is the length of the hex encoded token.
	TokenLength = TokenBytes * 2
)

// GenerateToken returns a fresh token of TokenLength lowercase hex characters.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// IsValidFormat reports whether token is exactly TokenLength lowercase hex
// characters.
func IsValidFormat(token string) bool {
	if len(token) != TokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Validate reports whether the cookie and header tokens match. Both must be
// present and well formed.
func Validate(cookieToken, headerToken string) bool {
	if cookieToken == "" || headerToken == "" {
		return false
	}
	if !IsValidFormat(cookieToken) || !IsValidFormat(headerToken) {
		return false
	}
	if len(cookieToken) != len(headerToken) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) == 1
}
