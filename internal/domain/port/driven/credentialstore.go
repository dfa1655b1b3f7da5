// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// ErrNotFound is returned when an operation targets a credential id that does not exist.
var ErrNotFound = errors.New("credential not found")

// StoreError wraps a persistence or lookup failure at the store boundary.
// The underlying cause is preserved for errors.Is/As.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("credential store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// CredentialStore defines the driven port for durable credential persistence.
// Records are stored exactly as sealed; the store never sees plaintext.
type CredentialStore interface {
	// Put persists service name, username, encrypted secret and nonce as one
	// atomic write and returns the record with its assigned ID and CreatedAt.
	Put(ctx context.Context, cred model.Credential) (model.Credential, error)

	// FindByService returns every credential whose service name matches
	// exactly. An unknown service yields an empty slice and no error.
	FindByService(ctx context.Context, service string) ([]model.Credential, error)

	// ListServices returns the distinct service names, ordered alphabetically.
	ListServices(ctx context.Context) ([]string, error)

	// Delete removes the credential with the given id. Returns ErrNotFound
	// if no such credential exists.
	Delete(ctx context.Context, id int64) error
}
