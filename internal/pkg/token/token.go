package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const (
	// ConfirmTTL is how long a confirmation token stays valid.
	ConfirmTTL = 24 * time.Hour
	// VerifyTTL is how long a GDPR verification token stays valid.
	VerifyTTL = 15 * time.Minute

	tokenBytes = 16
)

// New returns a fresh opaque hex token.
func New() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewWithExpiry returns a fresh token and its expiry timestamp.
func NewWithExpiry(ttl time.Duration) (string, time.Time, error) {
	t, err := New()
	if err != nil {
		return "", time.Time{}, err
	}
	return t, time.Now().Add(ttl), nil
}
