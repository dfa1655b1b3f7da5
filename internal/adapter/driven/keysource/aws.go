package keysource

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KeyProvider = (*AWSSecretsManager)(nil)

// SecretsManagerAPI is the subset of the Secrets Manager client the provider
// calls. It allows for mocking in tests.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads the vault key from an AWS Secrets Manager secret.
// A binary secret must hold the 32 raw key bytes; a string secret must hold
// the key hex-encoded.
type AWSSecretsManager struct {
	secretID string
	region   string
	endpoint string
	client   SecretsManagerAPI
}

// AWSOption configures an AWSSecretsManager provider.
type AWSOption func(*AWSSecretsManager)

// WithRegion overrides the region from the default AWS config chain.
func WithRegion(region string) AWSOption {
	return func(p *AWSSecretsManager) { p.region = region }
}

// WithEndpoint points the client at a custom endpoint, e.g. LocalStack.
func WithEndpoint(endpoint string) AWSOption {
	return func(p *AWSSecretsManager) { p.endpoint = endpoint }
}

// WithSecretsManagerClient injects a client (for testing).
func WithSecretsManagerClient(client SecretsManagerAPI) AWSOption {
	return func(p *AWSSecretsManager) { p.client = client }
}

// NewAWSSecretsManager creates a provider for secretID. Without an injected
// client it loads the default AWS configuration chain.
func NewAWSSecretsManager(ctx context.Context, secretID string, opts ...AWSOption) (*AWSSecretsManager, error) {
	if secretID == "" {
		return nil, errors.New("aws secret id must not be empty")
	}

	p := &AWSSecretsManager{secretID: secretID}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		var configOpts []func(*config.LoadOptions) error
		if p.region != "" {
			configOpts = append(configOpts, config.WithRegion(p.region))
		}

		cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}

		var clientOpts []func(*secretsmanager.Options)
		if p.endpoint != "" {
			endpoint := p.endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = aws.String(endpoint)
			})
		}
		p.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return p, nil
}

// Key fetches the current version of the secret.
func (p *AWSSecretsManager) Key(ctx context.Context) ([]byte, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretID),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("aws secret %q: %w", p.secretID, driven.ErrKeyNotFound)
		}
		return nil, fmt.Errorf("get aws secret %q: %w", p.secretID, err)
	}

	switch {
	case len(out.SecretBinary) > 0:
		if err := checkKey(out.SecretBinary); err != nil {
			return nil, fmt.Errorf("aws secret %q: %w", p.secretID, err)
		}
		return append([]byte(nil), out.SecretBinary...), nil
	case out.SecretString != nil:
		key, err := DecodeHexKey(*out.SecretString)
		if err != nil {
			return nil, fmt.Errorf("aws secret %q: %w", p.secretID, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("aws secret %q has no value: %w", p.secretID, driven.ErrKeyNotFound)
	}
}
