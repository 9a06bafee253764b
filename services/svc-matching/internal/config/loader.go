package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/architeacher/logistics/services/svc-matching/internal/ports"
	"github.com/cenkalti/backoff/v5"
	"github.com/hashicorp/vault/api"
	"github.com/kelseyhightower/envconfig"
)

var ErrSecretsDisabled = errors.New("secret storage is not enabled")

// Loader overlays secrets kept in Vault on top of the environment.
type Loader struct {
	secretsRepo ports.SecretsRepository
}

func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if len(ServiceVersion) != 0 {
		cfg.App.ServiceVersion = ServiceVersion
	}

	if len(CommitSHA) != 0 {
		cfg.App.CommitSHA = CommitSHA
	}

	return cfg, nil
}

func NewLoader(secretsRepo ports.SecretsRepository) *Loader {
	return &Loader{secretsRepo: secretsRepo}
}

// Load authenticates, reads apps/data/<mount path> and applies the known
// keys to cfg. It returns the secret version that was applied.
func (l *Loader) Load(ctx context.Context, cfg *ServiceConfig) (uint, error) {
	if !cfg.SecretsStorage.Enabled {
		return 0, ErrSecretsDisabled
	}

	if err := l.authenticateVault(ctx, cfg.SecretsStorage); err != nil {
		return 0, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	secret, err := l.getSecretsWithRetry(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to load secrets from Vault: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return 0, nil
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("invalid secret format at %s, missing 'data' key", secretPath(cfg))
	}

	applySecretsToConfig(cfg, data)

	metadata, _ := secret.Data["metadata"].(map[string]any)

	version, err := getSecretVersion(metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to get secret version: %w", err)
	}

	return version, nil
}

func (l *Loader) authenticateVault(ctx context.Context, config SecretsStorage) error {
	switch strings.ToLower(config.AuthMethod) {
	case "token":
		if config.Token == "" {
			return fmt.Errorf("token is required for token auth method")
		}
		l.secretsRepo.SetToken(config.Token)

		return nil

	case "approle":
		if config.RoleID == "" || config.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for approle auth method")
		}

		data := map[string]any{
			"role_id":   config.RoleID,
			"secret_id": config.SecretID,
		}

		resp, err := l.secretsRepo.WriteWithContext(ctx, "auth/approle/login", data)
		if err != nil {
			return fmt.Errorf("failed to authenticate via approle: %w", err)
		}

		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("no auth info returned from Vault")
		}

		l.secretsRepo.SetToken(resp.Auth.ClientToken)

		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", config.AuthMethod)
	}
}

func (l *Loader) getSecretsWithRetry(ctx context.Context, cfg *ServiceConfig) (*api.Secret, error) {
	path := secretPath(cfg)

	ctx, cancel := context.WithTimeout(ctx, cfg.SecretsStorage.Timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.Backoff.BaseDelay
	policy.Multiplier = cfg.Backoff.Multiplier
	policy.RandomizationFactor = cfg.Backoff.Jitter
	policy.MaxInterval = cfg.Backoff.MaxDelay

	secret, err := backoff.Retry(ctx, func() (*api.Secret, error) {
		return l.secretsRepo.GetSecrets(ctx, path)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(cfg.SecretsStorage.MaxRetries+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read from path %s after %d retries: %w", path, cfg.SecretsStorage.MaxRetries, err)
	}

	return secret, nil
}

func secretPath(cfg *ServiceConfig) string {
	return fmt.Sprintf("apps/data/%s", cfg.SecretsStorage.MountPath)
}

func getSecretVersion(metadata map[string]any) (uint, error) {
	if metadata == nil {
		return 0, nil
	}

	version, ok := metadata["version"]
	if !ok {
		return 0, nil
	}

	switch v := version.(type) {
	case float64:
		return uint(v), nil
	case int:
		return uint(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("failed to parse version: %w", err)
		}

		return uint(n), nil
	default:
		return 0, fmt.Errorf("unexpected version type: %T", version)
	}
}

func applySecretsToConfig(cfg *ServiceConfig, data map[string]any) {
	for key, value := range data {
		strValue, ok := value.(string)
		if !ok || strValue == "" {
			continue
		}

		switch key {
		case "POSTGRES_USERNAME":
			cfg.Database.Username = strValue
		case "POSTGRES_PASSWORD":
			cfg.Database.Password = strValue
		case "CACHE_PASSWORD":
			cfg.Cache.Password = strValue
		}
	}
}
