// Package cli is the command-line driving adapter. It parses flags, loads
// configuration and calls the vault through the Backend supplied by main.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/credvault/internal/application"
	"github.com/ericfisherdev/credvault/internal/config"
	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// Generator produces passwords without touching the store or the key.
type Generator interface {
	Generate(policy model.PasswordPolicy) (string, error)
}

// Vault is the credential lifecycle as seen by the commands.
// *application.VaultService satisfies it.
type Vault interface {
	Add(ctx context.Context, service, username, password string) (model.Credential, error)
	AddGenerated(ctx context.Context, service, username string, policy model.PasswordPolicy) (model.Credential, string, error)
	Lookup(ctx context.Context, service string) ([]application.RevealedCredential, error)
	Services(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id int64) error
}

// KeyStore persists a freshly generated vault key. *keysource.Keyring satisfies it.
type KeyStore interface {
	Key(ctx context.Context) ([]byte, error)
	Store(key []byte) error
}

// Backend hands out the collaborators a command needs. Vault and KeyStore are
// only requested by commands that use them, so generating a password never
// requires a key.
type Backend interface {
	Generator() Generator
	Vault(ctx context.Context) (Vault, error)
	KeyStore() (KeyStore, error)
	Close() error
}

// BackendFactory builds a Backend once configuration is loaded.
type BackendFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Backend, error)

// app carries state shared by every subcommand of one invocation.
type app struct {
	factory BackendFactory

	configPath string
	debug      bool
	noColor    bool

	cfg     *config.Config
	logger  *slog.Logger
	backend Backend
}

// NewRootCommand returns the credvault command tree. The returned close func
// releases the backend and must be called after Execute returns.
func NewRootCommand(factory BackendFactory) (*cobra.Command, func() error) {
	a := &app{factory: factory}

	root := &cobra.Command{
		Use:   "credvault",
		Short: "Local encrypted credential vault",
		Long: `credvault generates passwords, stores credentials encrypted with AES-256-GCM
in a local SQLite database and reveals them again on lookup.

The vault key comes from CREDVAULT_SECRET_KEY, the OS keyring, AWS Secrets
Manager or a passphrase, selected with CREDVAULT_KEY_SOURCE.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $CREDVAULT_CONFIG)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		NewGenerateCommand(a),
		NewAddCommand(a),
		NewGetCommand(a),
		NewListCommand(a),
		NewDeleteCommand(a),
		NewInitKeyCommand(a),
	)

	return root, a.close
}

// Execute runs the command tree with args and prints a failure to stderr.
func Execute(ctx context.Context, factory BackendFactory, args []string, stdout, stderr io.Writer) error {
	root, closeBackend := NewRootCommand(factory)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := closeBackend(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Sprint("Error:"), err)
	}
	return err
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if a.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	backend, err := a.factory(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.backend = backend
	logger.Debug("configuration loaded", "db_path", cfg.DBPath, "key_source", cfg.KeySource)
	return nil
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend = nil
	return err
}
