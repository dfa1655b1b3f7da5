package model

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Cipher is the authenticated-encryption capability a Credential needs to seal
// and reveal its password. *cipherbox.Box satisfies it.
type Cipher interface {
	// Encrypt seals plaintext under a freshly generated nonce.
	Encrypt(plaintext []byte) (ciphertext, nonce []byte, err error)
	// DecryptString opens ciphertext with nonce and returns it as UTF-8 text.
	DecryptString(ciphertext, nonce []byte) (string, error)
}

// Credential binds a service/username identity to an encrypted password and the
// nonce it was sealed with. The ciphertext and nonce are only meaningful as a
// pair, so they are set once at construction and never modified.
type Credential struct {
	ID          int64
	ServiceName string
	Username    string
	CreatedAt   time.Time

	encryptedSecret []byte
	nonce           []byte
}

// NewCredential encrypts password exactly once with c and returns a record
// ready to be persisted. The service name must not be blank.
func NewCredential(c Cipher, service, username, password string) (Credential, error) {
	if strings.TrimSpace(service) == "" {
		return Credential{}, ErrEmptyServiceName
	}

	ciphertext, nonce, err := c.Encrypt([]byte(password))
	if err != nil {
		return Credential{}, fmt.Errorf("encrypt password for %q: %w", service, err)
	}

	return Credential{
		ServiceName:     service,
		Username:        username,
		encryptedSecret: ciphertext,
		nonce:           nonce,
	}, nil
}

// RestoreCredential rebuilds a Credential from its persisted fields. Store
// adapters use it when hydrating rows; it performs no cryptography.
func RestoreCredential(id int64, service, username string, encryptedSecret, nonce []byte, createdAt time.Time) Credential {
	return Credential{
		ID:              id,
		ServiceName:     service,
		Username:        username,
		CreatedAt:       createdAt,
		encryptedSecret: clone(encryptedSecret),
		nonce:           clone(nonce),
	}
}

// RevealPassword decrypts the record's own ciphertext and nonce. It does not
// modify the record and may be called any number of times. Errors from c are
// returned unchanged.
func (c Credential) RevealPassword(ci Cipher) (string, error) {
	return ci.DecryptString(c.encryptedSecret, c.nonce)
}

// EncryptedSecret returns a copy of the sealed password (ciphertext || tag).
func (c Credential) EncryptedSecret() []byte { return clone(c.encryptedSecret) }

// Nonce returns a copy of the nonce the secret was sealed with.
func (c Credential) Nonce() []byte { return clone(c.nonce) }

// LogValue keeps ciphertext and nonce out of structured logs.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("id", c.ID),
		slog.String("service", c.ServiceName),
		slog.String("username", c.Username),
	)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
