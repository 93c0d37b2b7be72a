package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenKeyLength is the length of an opaque token key in hex characters.
const TokenKeyLength = 40

// GenerateTokenKey returns a random opaque key. The key carries no
// embedded claims; it only identifies a row in the token store.
func GenerateTokenKey() (string, error) {
	b := make([]byte, TokenKeyLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
