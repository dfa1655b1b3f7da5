package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the credential lifecycle. Callers match them with errors.Is.
var (
	// ErrInvalidLength indicates a password length outside the accepted range.
	ErrInvalidLength = errors.New("invalid password length")

	// ErrAuthenticationFailed indicates a ciphertext/nonce pair failed integrity
	// verification: tampered data, a mismatched nonce or the wrong key.
	ErrAuthenticationFailed = errors.New("ciphertext failed authentication")

	// ErrDecodingFailed indicates decrypted bytes are not valid UTF-8 text.
	ErrDecodingFailed = errors.New("decrypted secret is not valid text")

	// ErrEmptyServiceName indicates a credential was created without a service.
	ErrEmptyServiceName = errors.New("service name must not be empty")
)

// GenerationError reports a rejected password generation request.
type GenerationError struct {
	Length int
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate password of length %d: %v", e.Length, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
