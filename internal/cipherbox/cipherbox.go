// Package cipherbox provides AES-256-GCM authenticated encryption for vault
// secrets. The key is kept in a frozen memguard buffer for the life of the Box
// and is never exposed through the API.
package cipherbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/awnumar/memguard"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

const (
	// KeySize is the required key length in bytes (AES-256).
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
	// Overhead is the authentication tag length appended to every ciphertext.
	Overhead = 16
)

var (
	// ErrInvalidKeySize is returned by New when the key is not KeySize bytes.
	ErrInvalidKeySize = errors.New("cipherbox: key must be 32 bytes")

	// ErrBoxDestroyed is returned by operations on a Box after Destroy.
	ErrBoxDestroyed = errors.New("cipherbox: box has been destroyed")

	// ErrMemoryLockLimit is returned by New when RLIMIT_MEMLOCK is too small to
	// hold the key in locked memory.
	ErrMemoryLockLimit = errors.New("cipherbox: locked memory limit too low")
)

// Compile-time interface satisfaction check.
var _ model.Cipher = (*Box)(nil)

// Box seals and opens secrets under a single immutable key. A Box is safe for
// concurrent use.
type Box struct {
	mu   sync.RWMutex
	key  *memguard.LockedBuffer
	gcm  cipher.AEAD
	rand io.Reader
}

// Option configures a Box.
type Option func(*Box)

// WithRandReader replaces the nonce source. Only tests should use this; the
// default is crypto/rand.Reader.
func WithRandReader(r io.Reader) Option {
	return func(b *Box) {
		b.rand = r
	}
}

// New creates a Box holding key. The key bytes are moved into locked memory
// and the caller's slice is wiped, even when New fails.
//
// All locked memory is allocated here. Encrypt and Decrypt only use the cached
// AEAD, so they cannot fail on memory locking.
func New(key []byte, opts ...Option) (*Box, error) {
	if len(key) != KeySize {
		memguard.WipeBytes(key)
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	// memguard aborts the process instead of returning an error when mlock
	// fails, so refuse up front.
	if err := checkLockLimit(); err != nil {
		memguard.WipeBytes(key)
		return nil, err
	}

	lb := memguard.NewBufferFromBytes(key)

	block, err := aes.NewCipher(lb.Bytes())
	if err != nil {
		lb.Destroy()
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		lb.Destroy()
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	lb.Freeze()

	b := &Box{
		key:  lb,
		gcm:  gcm,
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Encrypt seals plaintext under a fresh random nonce. The returned ciphertext
// carries the GCM tag, so it is len(plaintext)+Overhead bytes long.
func (b *Box) Encrypt(plaintext []byte) (ciphertext, nonce []byte, err error) {
	gcm, err := b.aead()
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(b.rand, nonce); err != nil {
		return nil, nil, fmt.Errorf("rand nonce: %w", err)
	}

	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens ciphertext sealed with nonce. Any integrity failure, including
// a nonce of the wrong length or a different key, yields
// model.ErrAuthenticationFailed.
func (b *Box) Decrypt(ciphertext, nonce []byte) ([]byte, error) {
	gcm, err := b.aead()
	if err != nil {
		return nil, err
	}

	// gcm.Open panics on a nonce of the wrong size.
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: nonce is %d bytes, want %d", model.ErrAuthenticationFailed, len(nonce), gcm.NonceSize())
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, model.ErrAuthenticationFailed
	}
	return plaintext, nil
}

// DecryptString opens ciphertext and returns it as text. Plaintext that is not
// valid UTF-8 yields model.ErrDecodingFailed.
func (b *Box) DecryptString(ciphertext, nonce []byte) (string, error) {
	plaintext, err := b.Decrypt(ciphertext, nonce)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		memguard.WipeBytes(plaintext)
		return "", model.ErrDecodingFailed
	}
	return string(plaintext), nil
}

// Destroy drops the key. It is idempotent; later operations return ErrBoxDestroyed.
func (b *Box) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.key != nil {
		b.key.Destroy()
	}
	b.key = nil
	b.gcm = nil
}

func (b *Box) aead() (cipher.AEAD, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.gcm == nil {
		return nil, ErrBoxDestroyed
	}
	return b.gcm, nil
}
