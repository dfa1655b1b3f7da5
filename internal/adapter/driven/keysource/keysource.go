// Package keysource implements driven.KeyProvider for the places a vault key
// can live: process configuration, the OS keyring, AWS Secrets Manager, or a
// passphrase run through argon2id.
package keysource

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// KeySize is the vault key length in bytes.
const KeySize = 32

// DecodeHexKey parses a 64-character hex string into a 32-byte key.
func DecodeHexKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) != hex.EncodedLen(KeySize) {
		return nil, fmt.Errorf("%w: want %d hex characters, got %d", driven.ErrInvalidKey, hex.EncodedLen(KeySize), len(s))
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", driven.ErrInvalidKey, err)
	}
	return key, nil
}

// checkKey validates raw key bytes returned by a source.
func checkKey(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("%w: want %d bytes, got %d", driven.ErrInvalidKey, KeySize, len(key))
	}
	return nil
}
