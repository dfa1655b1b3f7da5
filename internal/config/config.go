// Package config loads application configuration from environment variables
// and an optional YAML file. Environment variables take precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// KeySource names where the vault key is loaded from.
type KeySource string

const (
	KeySourceEnv        KeySource = "env"
	KeySourceKeyring    KeySource = "keyring"
	KeySourceAWS        KeySource = "aws"
	KeySourcePassphrase KeySource = "passphrase"
)

// Config holds the application configuration.
type Config struct {
	DBPath    string
	KeySource KeySource

	// SecretKey is CREDVAULT_SECRET_KEY as given, hex-encoded. It is decoded
	// by the key source when the vault is opened.
	SecretKey      string
	KeyringAccount string
	AWSSecretID    string
	AWSRegion      string
	AWSEndpoint    string
	Passphrase     string

	Password        model.PasswordPolicy
	LogLevel        slog.Level
	MetricsTextfile string
}

// fileConfig mirrors the YAML file. Secrets are deliberately absent: the key and
// passphrase may only come from the environment.
type fileConfig struct {
	DBPath         string `yaml:"db_path"`
	KeySource      string `yaml:"key_source"`
	KeyringAccount string `yaml:"keyring_account"`
	AWS            struct {
		SecretID string `yaml:"secret_id"`
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"aws"`
	Password struct {
		Length  int   `yaml:"length"`
		Upper   *bool `yaml:"upper"`
		Digits  *bool `yaml:"digits"`
		Symbols *bool `yaml:"symbols"`
	} `yaml:"password"`
	LogLevel        string `yaml:"log_level"`
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// Load builds a validated Config. path names an optional YAML file; when empty,
// CREDVAULT_CONFIG is consulted, and with neither set no file is read.
//
// Environment variables: CREDVAULT_DB_PATH (credvault.db), CREDVAULT_KEY_SOURCE
// (env), CREDVAULT_SECRET_KEY (64 hex chars), CREDVAULT_KEYRING_ACCOUNT (default),
// CREDVAULT_AWS_SECRET_ID, CREDVAULT_AWS_REGION, CREDVAULT_AWS_ENDPOINT,
// CREDVAULT_PASSPHRASE, CREDVAULT_PASSWORD_LENGTH (12), CREDVAULT_LOG_LEVEL (warn),
// CREDVAULT_METRICS_TEXTFILE.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DBPath:         "credvault.db",
		KeySource:      KeySourceEnv,
		KeyringAccount: "default",
		Password: model.PasswordPolicy{
			Length:  model.DefaultPasswordLength,
			Upper:   true,
			Digits:  true,
			Symbols: true,
		},
		LogLevel: slog.LevelWarn,
	}

	if path == "" {
		path = os.Getenv("CREDVAULT_CONFIG")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.DBPath != "" {
		c.DBPath = fc.DBPath
	}
	if fc.KeySource != "" {
		c.KeySource = KeySource(fc.KeySource)
	}
	if fc.KeyringAccount != "" {
		c.KeyringAccount = fc.KeyringAccount
	}
	if fc.AWS.SecretID != "" {
		c.AWSSecretID = fc.AWS.SecretID
	}
	if fc.AWS.Region != "" {
		c.AWSRegion = fc.AWS.Region
	}
	if fc.AWS.Endpoint != "" {
		c.AWSEndpoint = fc.AWS.Endpoint
	}
	if fc.Password.Length != 0 {
		c.Password.Length = fc.Password.Length
	}
	if fc.Password.Upper != nil {
		c.Password.Upper = *fc.Password.Upper
	}
	if fc.Password.Digits != nil {
		c.Password.Digits = *fc.Password.Digits
	}
	if fc.Password.Symbols != nil {
		c.Password.Symbols = *fc.Password.Symbols
	}
	if fc.LogLevel != "" {
		level, err := parseLevel(fc.LogLevel)
		if err != nil {
			return fmt.Errorf("config file %s: log_level: %w", path, err)
		}
		c.LogLevel = level
	}
	if fc.MetricsTextfile != "" {
		c.MetricsTextfile = fc.MetricsTextfile
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("CREDVAULT_DB_PATH"); ok && v != "" {
		c.DBPath = v
	}
	if v, ok := os.LookupEnv("CREDVAULT_KEY_SOURCE"); ok && v != "" {
		c.KeySource = KeySource(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := os.LookupEnv("CREDVAULT_SECRET_KEY"); ok && v != "" {
		c.SecretKey = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("CREDVAULT_KEYRING_ACCOUNT"); ok && v != "" {
		c.KeyringAccount = v
	}
	if v, ok := os.LookupEnv("CREDVAULT_AWS_SECRET_ID"); ok && v != "" {
		c.AWSSecretID = v
	}
	if v, ok := os.LookupEnv("CREDVAULT_AWS_REGION"); ok && v != "" {
		c.AWSRegion = v
	}
	if v, ok := os.LookupEnv("CREDVAULT_AWS_ENDPOINT"); ok && v != "" {
		c.AWSEndpoint = v
	}
	if v, ok := os.LookupEnv("CREDVAULT_PASSPHRASE"); ok {
		c.Passphrase = v
	}
	if v, ok := os.LookupEnv("CREDVAULT_PASSWORD_LENGTH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CREDVAULT_PASSWORD_LENGTH has invalid integer %q: %w", v, err)
		}
		c.Password.Length = n
	}
	if v, ok := os.LookupEnv("CREDVAULT_LOG_LEVEL"); ok && v != "" {
		level, err := parseLevel(v)
		if err != nil {
			return fmt.Errorf("CREDVAULT_LOG_LEVEL: %w", err)
		}
		c.LogLevel = level
	}
	if v, ok := os.LookupEnv("CREDVAULT_METRICS_TEXTFILE"); ok && v != "" {
		c.MetricsTextfile = v
	}
	return nil
}

func (c *Config) validate() error {
	switch c.KeySource {
	case KeySourceEnv, KeySourceKeyring, KeySourcePassphrase:
	case KeySourceAWS:
		if c.AWSSecretID == "" {
			return errors.New("key source aws requires CREDVAULT_AWS_SECRET_ID")
		}
	default:
		return fmt.Errorf("unknown key source %q: want env, keyring, aws or passphrase", c.KeySource)
	}

	if c.Password.Length <= 0 {
		return fmt.Errorf("default password length must be positive, got %d", c.Password.Length)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
