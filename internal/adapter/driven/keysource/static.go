package keysource

import (
	"context"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KeyProvider = (*Static)(nil)

// Static serves a key already loaded into configuration, e.g. from
// CREDVAULT_SECRET_KEY.
type Static struct {
	key []byte
}

// NewStatic copies key into a new Static provider.
func NewStatic(key []byte) *Static {
	return &Static{key: append([]byte(nil), key...)}
}

// NewStaticHex decodes a hex key such as CREDVAULT_SECRET_KEY. An empty string
// yields a provider whose Key reports driven.ErrKeyNotFound; malformed input
// fails with driven.ErrInvalidKey.
func NewStaticHex(hexKey string) (*Static, error) {
	if strings.TrimSpace(hexKey) == "" {
		return &Static{}, nil
	}
	key, err := DecodeHexKey(hexKey)
	if err != nil {
		return nil, err
	}
	s := NewStatic(key)
	memguard.WipeBytes(key)
	return s, nil
}

// Key returns a copy of the configured key, so the consumer may wipe it.
func (s *Static) Key(context.Context) ([]byte, error) {
	if len(s.key) == 0 {
		return nil, driven.ErrKeyNotFound
	}
	if err := checkKey(s.key); err != nil {
		return nil, err
	}
	return append([]byte(nil), s.key...), nil
}
