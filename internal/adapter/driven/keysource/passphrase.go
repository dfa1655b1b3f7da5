package keysource

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// SaltSize is the length of a freshly generated KDF salt.
const SaltSize = 16

// Upper bounds on stored KDF parameters. A row outside them is treated as
// corrupt rather than run; argon2 would otherwise try to allocate whatever
// memory_kib says.
const (
	MaxKDFTime    = 64
	MaxKDFMemory  = 4 * 1024 * 1024 // KiB, 4 GiB
	MaxKDFThreads = 64
	minSaltSize   = 8
	maxSaltSize   = 1024
)

// DefaultKDFParams are used when a vault is unlocked for the first time.
// Salt is filled in at that point.
var DefaultKDFParams = model.KDFParams{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 4,
}

// Compile-time interface satisfaction check.
var _ driven.KeyProvider = (*Passphrase)(nil)

// Passphrase derives the vault key from a user passphrase with argon2id. The
// salt and cost parameters live in the vault's KDFStore so the same passphrase
// yields the same key on every run.
type Passphrase struct {
	passphrase []byte
	store      driven.KDFStore
	defaults   model.KDFParams
	rand       io.Reader
}

// PassphraseOption configures a Passphrase provider.
type PassphraseOption func(*Passphrase)

// WithKDFParams sets the parameters used when the vault has none stored yet.
func WithKDFParams(params model.KDFParams) PassphraseOption {
	return func(p *Passphrase) { p.defaults = params }
}

// WithSaltReader replaces the salt source (for testing).
func WithSaltReader(r io.Reader) PassphraseOption {
	return func(p *Passphrase) { p.rand = r }
}

// NewPassphrase creates a provider for passphrase backed by store.
func NewPassphrase(passphrase string, store driven.KDFStore, opts ...PassphraseOption) *Passphrase {
	p := &Passphrase{
		passphrase: []byte(passphrase),
		store:      store,
		defaults:   DefaultKDFParams,
		rand:       rand.Reader,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key loads (or on first use creates) the KDF parameters and derives the key.
func (p *Passphrase) Key(ctx context.Context) ([]byte, error) {
	if len(p.passphrase) == 0 {
		return nil, fmt.Errorf("empty passphrase: %w", driven.ErrKeyNotFound)
	}

	params, ok, err := p.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load kdf params: %w", err)
	}
	if !ok {
		params, err = p.initParams(ctx)
		if err != nil {
			return nil, err
		}
	}

	if err := checkKDFParams(params); err != nil {
		return nil, err
	}

	return argon2.IDKey(p.passphrase, params.Salt, params.Time, params.Memory, params.Threads, KeySize), nil
}

func (p *Passphrase) initParams(ctx context.Context) (model.KDFParams, error) {
	params := p.defaults
	params.Salt = make([]byte, SaltSize)
	if _, err := io.ReadFull(p.rand, params.Salt); err != nil {
		return model.KDFParams{}, fmt.Errorf("rand salt: %w", err)
	}

	stored, err := p.store.Init(ctx, params)
	if err != nil {
		return model.KDFParams{}, fmt.Errorf("store kdf params: %w", err)
	}
	if len(stored.Salt) == 0 {
		return model.KDFParams{}, errors.New("store returned kdf params without salt")
	}
	return stored, nil
}

func checkKDFParams(p model.KDFParams) error {
	switch {
	case len(p.Salt) < minSaltSize || len(p.Salt) > maxSaltSize:
		return fmt.Errorf("%w: kdf salt is %d bytes", driven.ErrInvalidKey, len(p.Salt))
	case p.Time == 0 || p.Time > MaxKDFTime:
		return fmt.Errorf("%w: kdf time cost %d out of range", driven.ErrInvalidKey, p.Time)
	case p.Memory == 0 || p.Memory > MaxKDFMemory:
		return fmt.Errorf("%w: kdf memory %d KiB out of range", driven.ErrInvalidKey, p.Memory)
	case p.Threads == 0 || p.Threads > MaxKDFThreads:
		return fmt.Errorf("%w: kdf threads %d out of range", driven.ErrInvalidKey, p.Threads)
	}
	return nil
}
