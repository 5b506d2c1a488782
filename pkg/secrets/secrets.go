// Package secrets generates and compares shared secrets such as token
// signing keys and the platform admin API key.
package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	dErrors "smartparking/pkg/domain-errors"
)

// DefaultLength is the number of random bytes in a generated secret. It
// meets the production minimum for token signing secrets.
const DefaultLength = 48

// Generate creates a cryptographically secure random secret, base64url
// encoded without padding.
func Generate() (string, error) {
	return GenerateN(DefaultLength)
}

// GenerateN is Generate with n random bytes.
func GenerateN(n int) (string, error) {
	if n <= 0 {
		return "", dErrors.New(dErrors.CodeValidation, "secret length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Equal compares in constant time. An empty expected value never matches.
func Equal(got, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
