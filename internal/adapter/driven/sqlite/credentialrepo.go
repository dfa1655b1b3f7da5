package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// It stores sealed credentials as received; encryption happens before Put and
// decryption after FindByService, outside the adapter.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Put inserts the credential's four fields in a single statement inside a
// transaction, so a ciphertext is never visible without its nonce.
func (r *CredentialRepo) Put(ctx context.Context, cred model.Credential) (model.Credential, error) {
	const query = `INSERT INTO credentials (service_name, username, encrypted_secret, nonce)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at`

	secret, nonce := cred.EncryptedSecret(), cred.Nonce()
	if len(secret) == 0 || len(nonce) == 0 {
		return model.Credential{}, &driven.StoreError{Op: "put", Err: fmt.Errorf("credential for %q is not sealed", cred.ServiceName)}
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Credential{}, &driven.StoreError{Op: "put", Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	var createdAt string
	err = tx.QueryRowContext(ctx, query, cred.ServiceName, cred.Username, secret, nonce).Scan(&id, &createdAt)
	if err != nil {
		return model.Credential{}, &driven.StoreError{Op: "put", Err: fmt.Errorf("insert credential %q: %w", cred.ServiceName, err)}
	}

	if err := tx.Commit(); err != nil {
		return model.Credential{}, &driven.StoreError{Op: "put", Err: fmt.Errorf("commit: %w", err)}
	}

	created, err := parseTime(createdAt)
	if err != nil {
		return model.Credential{}, &driven.StoreError{Op: "put", Err: fmt.Errorf("parse created_at: %w", err)}
	}

	return model.RestoreCredential(id, cred.ServiceName, cred.Username, secret, nonce, created), nil
}

// FindByService returns every credential stored for service, oldest first.
func (r *CredentialRepo) FindByService(ctx context.Context, service string) ([]model.Credential, error) {
	const query = `SELECT id, service_name, username, encrypted_secret, nonce, created_at
		FROM credentials WHERE service_name = ? ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query, service)
	if err != nil {
		return nil, &driven.StoreError{Op: "find", Err: fmt.Errorf("query credentials for %q: %w", service, err)}
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		var (
			id            int64
			svc, username string
			secret, nonce []byte
			createdAt     string
		)
		if err := rows.Scan(&id, &svc, &username, &secret, &nonce, &createdAt); err != nil {
			return nil, &driven.StoreError{Op: "find", Err: fmt.Errorf("scan credential: %w", err)}
		}

		created, err := parseTime(createdAt)
		if err != nil {
			return nil, &driven.StoreError{Op: "find", Err: fmt.Errorf("parse created_at for credential %d: %w", id, err)}
		}

		creds = append(creds, model.RestoreCredential(id, svc, username, secret, nonce, created))
	}
	if err := rows.Err(); err != nil {
		return nil, &driven.StoreError{Op: "find", Err: fmt.Errorf("iterate credentials: %w", err)}
	}

	return creds, nil
}

// ListServices returns the distinct service names ordered alphabetically.
func (r *CredentialRepo) ListServices(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT service_name FROM credentials ORDER BY service_name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, &driven.StoreError{Op: "list", Err: fmt.Errorf("list services: %w", err)}
	}
	defer rows.Close()

	services := []string{}
	for rows.Next() {
		var service string
		if err := rows.Scan(&service); err != nil {
			return nil, &driven.StoreError{Op: "list", Err: fmt.Errorf("scan service: %w", err)}
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, &driven.StoreError{Op: "list", Err: fmt.Errorf("iterate services: %w", err)}
	}

	return services, nil
}

// Delete removes the credential with the given id. Returns driven.ErrNotFound
// if no row matched.
func (r *CredentialRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM credentials WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return &driven.StoreError{Op: "delete", Err: fmt.Errorf("delete credential %d: %w", id, err)}
	}

	n, err := result.RowsAffected()
	if err != nil {
		return &driven.StoreError{Op: "delete", Err: fmt.Errorf("check rows affected: %w", err)}
	}
	if n == 0 {
		return fmt.Errorf("credential %d: %w", id, driven.ErrNotFound)
	}

	return nil
}
