package keysource

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// KeyringService is the service name vault keys are filed under in the OS keyring.
const KeyringService = "credvault"

// Compile-time interface satisfaction check.
var _ driven.KeyProvider = (*Keyring)(nil)

// KeyringClient is the subset of the OS keyring the provider needs.
// It allows tests to substitute an in-memory implementation.
type KeyringClient interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }

func (osKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// Keyring reads a hex-encoded vault key from the OS keyring (macOS Keychain,
// Secret Service on Linux, Windows Credential Manager).
type Keyring struct {
	account string
	client  KeyringClient
}

// NewKeyring returns a provider for the given keyring account. A nil client
// selects the real OS keyring.
func NewKeyring(account string, client KeyringClient) *Keyring {
	if client == nil {
		client = osKeyring{}
	}
	return &Keyring{account: account, client: client}
}

// Key loads and decodes the key. A missing entry yields driven.ErrKeyNotFound.
func (k *Keyring) Key(context.Context) ([]byte, error) {
	secret, err := k.client.Get(KeyringService, k.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("keyring account %q: %w", k.account, driven.ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read keyring account %q: %w", k.account, err)
	}
	return DecodeHexKey(secret)
}

// Store writes key to the keyring, replacing any existing entry.
func (k *Keyring) Store(key []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := k.client.Set(KeyringService, k.account, hex.EncodeToString(key)); err != nil {
		return fmt.Errorf("write keyring account %q: %w", k.account, err)
	}
	return nil
}
