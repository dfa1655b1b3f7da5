package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/credvault/internal/adapter/driven/keysource"
	sqliteadapter "github.com/ericfisherdev/credvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/credvault/internal/adapter/driving/cli"
	"github.com/ericfisherdev/credvault/internal/application"
	"github.com/ericfisherdev/credvault/internal/cipherbox"
	"github.com/ericfisherdev/credvault/internal/config"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
	"github.com/ericfisherdev/credvault/internal/metrics"
	"github.com/ericfisherdev/credvault/internal/passgen"
)

// backend wires adapters on demand: the database and the key are only touched
// by commands that need them.
type backend struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
	gen     *passgen.Generator

	db    *sqliteadapter.DB
	box   *cipherbox.Box
	vault *application.VaultService
}

func newBackend(_ context.Context, cfg *config.Config, logger *slog.Logger) (cli.Backend, error) {
	return &backend{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		gen:     passgen.New(),
	}, nil
}

// Generator returns a service with no store or cipher; only Generate may be called on it.
func (b *backend) Generator() cli.Generator {
	return application.NewVaultService(nil, nil, b.gen, b.metrics, b.logger)
}

func (b *backend) Vault(ctx context.Context) (cli.Vault, error) {
	if b.vault != nil {
		return b.vault, nil
	}

	db, err := b.openDB(ctx)
	if err != nil {
		return nil, err
	}

	provider, err := b.keyProvider(ctx, db)
	if err != nil {
		return nil, err
	}
	key, err := provider.Key(ctx)
	if err != nil {
		if errors.Is(err, driven.ErrKeyNotFound) {
			return nil, fmt.Errorf("no vault key for key source %s (%s): %w", b.cfg.KeySource, missingKeyHint(b.cfg.KeySource), err)
		}
		return nil, fmt.Errorf("load vault key: %w", err)
	}

	// cipherbox.New wipes key.
	box, err := cipherbox.New(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	b.box = box

	b.vault = application.NewVaultService(sqliteadapter.NewCredentialRepo(db), box, b.gen, b.metrics, b.logger)
	return b.vault, nil
}

func (b *backend) KeyStore() (cli.KeyStore, error) {
	if b.cfg.KeySource != config.KeySourceKeyring {
		return nil, fmt.Errorf("key source %s has no writable key store", b.cfg.KeySource)
	}
	return keysource.NewKeyring(b.cfg.KeyringAccount, nil), nil
}

// Close releases the key and the database, then writes the metrics textfile
// when one is configured.
func (b *backend) Close() error {
	var errs []error

	if b.box != nil {
		b.box.Destroy()
		b.box = nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		b.db = nil
	}
	if b.cfg.MetricsTextfile != "" {
		if err := b.metrics.WriteTextfile(b.cfg.MetricsTextfile); err != nil {
			errs = append(errs, err)
		}
	}
	b.vault = nil

	return errors.Join(errs...)
}

func (b *backend) openDB(ctx context.Context) (*sqliteadapter.DB, error) {
	if b.db != nil {
		return b.db, nil
	}

	db, err := sqliteadapter.NewDB(ctx, b.cfg.DBPath)
	if err != nil {
		return nil, err
	}

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	b.logger.Debug("database ready", "path", db.Path(), "schema_version", version)

	b.db = db
	return db, nil
}

func (b *backend) keyProvider(ctx context.Context, db *sqliteadapter.DB) (driven.KeyProvider, error) {
	switch b.cfg.KeySource {
	case config.KeySourceEnv:
		provider, err := keysource.NewStaticHex(b.cfg.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("CREDVAULT_SECRET_KEY: %w", err)
		}
		b.cfg.SecretKey = ""
		return provider, nil
	case config.KeySourceKeyring:
		return keysource.NewKeyring(b.cfg.KeyringAccount, nil), nil
	case config.KeySourceAWS:
		var opts []keysource.AWSOption
		if b.cfg.AWSRegion != "" {
			opts = append(opts, keysource.WithRegion(b.cfg.AWSRegion))
		}
		if b.cfg.AWSEndpoint != "" {
			opts = append(opts, keysource.WithEndpoint(b.cfg.AWSEndpoint))
		}
		return keysource.NewAWSSecretsManager(ctx, b.cfg.AWSSecretID, opts...)
	case config.KeySourcePassphrase:
		return keysource.NewPassphrase(b.cfg.Passphrase, sqliteadapter.NewKDFRepo(db)), nil
	default:
		return nil, fmt.Errorf("unknown key source %q", b.cfg.KeySource)
	}
}

// missingKeyHint tells the user how to supply a key for source.
func missingKeyHint(source config.KeySource) string {
	switch source {
	case config.KeySourceEnv:
		return "set CREDVAULT_SECRET_KEY, e.g. from 'credvault init-key'"
	case config.KeySourceKeyring:
		return "run 'credvault init-key'"
	case config.KeySourcePassphrase:
		return "set CREDVAULT_PASSPHRASE"
	case config.KeySourceAWS:
		return "check that CREDVAULT_AWS_SECRET_ID names an existing secret"
	default:
		return "check CREDVAULT_KEY_SOURCE"
	}
}
