package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
	"github.com/ericfisherdev/credvault/internal/metrics"
)

// PasswordGenerator produces passwords for a policy. *passgen.Generator satisfies it.
type PasswordGenerator interface {
	Generate(policy model.PasswordPolicy) (string, error)
}

// Metrics receives vault activity counts. *metrics.Recorder satisfies it,
// including a nil *metrics.Recorder.
type Metrics interface {
	PasswordGenerated()
	CredentialStored()
	CredentialRevealed()
	CredentialDeleted()
	CryptoFailure(kind string)
	StoreError(op string)
}

// RevealedCredential pairs a stored record with its decrypted password.
type RevealedCredential struct {
	model.Credential
	Password string
}

// VaultService runs the credential lifecycle: generate, seal, store, look up
// and reveal. It depends only on port interfaces and the shared cipher.
type VaultService struct {
	store   driven.CredentialStore
	cipher  model.Cipher
	gen     PasswordGenerator
	metrics Metrics
	logger  *slog.Logger
}

// NewVaultService creates a new VaultService. The cipher is shared by every
// operation; metrics may be nil. Store and cipher may also be nil when the
// service is only used to Generate.
func NewVaultService(store driven.CredentialStore, cipher model.Cipher, gen PasswordGenerator, m Metrics, logger *slog.Logger) *VaultService {
	if m == nil {
		m = (*metrics.Recorder)(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VaultService{
		store:   store,
		cipher:  cipher,
		gen:     gen,
		metrics: m,
		logger:  logger,
	}
}

// Generate returns a new password for policy without storing it.
func (s *VaultService) Generate(policy model.PasswordPolicy) (string, error) {
	password, err := s.gen.Generate(policy)
	if err != nil {
		return "", err
	}
	s.metrics.PasswordGenerated()
	s.logger.Debug("password generated",
		"length", policy.Length,
		"upper", policy.Upper,
		"digits", policy.Digits,
		"symbols", policy.Symbols,
	)
	return password, nil
}

// Add seals password for service/username and persists the record.
func (s *VaultService) Add(ctx context.Context, service, username, password string) (model.Credential, error) {
	cred, err := model.NewCredential(s.cipher, service, username, password)
	if err != nil {
		return model.Credential{}, err
	}

	stored, err := s.store.Put(ctx, cred)
	if err != nil {
		s.recordStoreError(err)
		return model.Credential{}, err
	}

	s.metrics.CredentialStored()
	s.logger.Info("credential stored", "credential", stored)
	return stored, nil
}

// AddGenerated generates a password for policy, stores it and returns both the
// stored record and the plaintext so the caller can show it once.
func (s *VaultService) AddGenerated(ctx context.Context, service, username string, policy model.PasswordPolicy) (model.Credential, string, error) {
	password, err := s.Generate(policy)
	if err != nil {
		return model.Credential{}, "", err
	}

	stored, err := s.Add(ctx, service, username, password)
	if err != nil {
		return model.Credential{}, "", err
	}
	return stored, password, nil
}

// Lookup returns every credential for service with its password revealed. An
// unknown service yields an empty slice. The first record that fails to
// decrypt aborts the lookup; no partial result is returned.
func (s *VaultService) Lookup(ctx context.Context, service string) ([]RevealedCredential, error) {
	creds, err := s.store.FindByService(ctx, service)
	if err != nil {
		s.recordStoreError(err)
		return nil, err
	}

	revealed := make([]RevealedCredential, 0, len(creds))
	for _, cred := range creds {
		password, err := cred.RevealPassword(s.cipher)
		if err != nil {
			s.metrics.CryptoFailure(failureKind(err))
			s.logger.Warn("credential failed to decrypt", "credential", cred, "error", err)
			return nil, fmt.Errorf("reveal credential %d for %q: %w", cred.ID, service, err)
		}
		s.metrics.CredentialRevealed()
		revealed = append(revealed, RevealedCredential{Credential: cred, Password: password})
	}

	s.logger.Debug("credentials looked up", "service", service, "count", len(revealed))
	return revealed, nil
}

// Services lists the distinct service names in the vault.
func (s *VaultService) Services(ctx context.Context) ([]string, error) {
	services, err := s.store.ListServices(ctx)
	if err != nil {
		s.recordStoreError(err)
		return nil, err
	}
	return services, nil
}

// Delete removes the credential with id. Returns driven.ErrNotFound for an unknown id.
func (s *VaultService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.recordStoreError(err)
		return err
	}
	s.metrics.CredentialDeleted()
	s.logger.Info("credential deleted", "id", id)
	return nil
}

func (s *VaultService) recordStoreError(err error) {
	var storeErr *driven.StoreError
	if errors.As(err, &storeErr) {
		s.metrics.StoreError(storeErr.Op)
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, model.ErrAuthenticationFailed):
		return metrics.KindAuthentication
	case errors.Is(err, model.ErrDecodingFailed):
		return metrics.KindDecoding
	default:
		return metrics.KindOther
	}
}
