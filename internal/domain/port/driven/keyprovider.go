package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// Sentinel errors returned by KeyProvider implementations.
var (
	// ErrKeyNotFound indicates the configured key source holds no key.
	ErrKeyNotFound = errors.New("vault key not found")

	// ErrInvalidKey indicates the key source returned malformed key material.
	ErrInvalidKey = errors.New("vault key is invalid")
)

// KeyProvider loads the process-wide vault key from an external source.
// Implementations return exactly 32 bytes; the caller owns the returned slice
// and is expected to hand it to cipherbox.New, which wipes it.
type KeyProvider interface {
	Key(ctx context.Context) ([]byte, error)
}

// KDFStore persists the key-derivation parameters of a passphrase-protected vault.
type KDFStore interface {
	// Get returns the stored parameters. ok is false when none exist yet.
	Get(ctx context.Context) (params model.KDFParams, ok bool, err error)

	// Init stores params unless parameters already exist, and returns the
	// parameters now in effect.
	Init(ctx context.Context, params model.KDFParams) (model.KDFParams, error)
}
