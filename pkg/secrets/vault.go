// Package secrets loads service secrets from a HashiCorp Vault KV engine
// into the environment before configuration is read.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
	"github.com/zatekoja/clinicaltriage/pkg/retry"
)

// ManagedKeys are the environment variables Vault may supply. Anything else
// stored at the path is ignored.
var ManagedKeys = []string{
	"ADMIN_API_KEY",
	"DB_PASSWORD",
	"REDIS_PASSWORD",
	"CLASSIFIER_URL",
}

// errVaultUnavailable marks failures worth retrying
var errVaultUnavailable = errors.New("vault unavailable")

type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
}

type VaultResult struct {
	Enabled bool
	Path    string
	Loaded  []string
	Skipped []string
}

func LoadVaultConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     os.Getenv("VAULT_MOUNT"),
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	if cfg.Mount == "" {
		cfg.Mount = "secret"
	}
	if cfg.Path == "" {
		cfg.Path = "clinical-triage"
	}
	if v, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil {
		cfg.KVVersion = v
	}
	if ms, err := strconv.Atoi(os.Getenv("VAULT_TIMEOUT_MS")); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// ApplyVaultSecrets copies the managed keys found at cfg.Path into the
// process environment. Values already set win unless Overwrite is true.
func ApplyVaultSecrets(ctx context.Context, cfg VaultConfig) (VaultResult, error) {
	result := VaultResult{Enabled: cfg.Enabled, Path: cfg.Path}
	if !cfg.Enabled {
		return result, nil
	}
	if cfg.Addr == "" || cfg.Token == "" {
		return result, apperrors.NewConfigurationError("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN)", nil)
	}

	data, err := fetchSecrets(ctx, cfg)
	if err != nil {
		return result, err
	}

	for _, key := range ManagedKeys {
		value, ok := data[key]
		if !ok {
			continue
		}
		if !cfg.Overwrite && os.Getenv(key) != "" {
			result.Skipped = append(result.Skipped, key)
			continue
		}
		if err := os.Setenv(key, stringifyVaultValue(value)); err != nil {
			return result, apperrors.NewInternalError("failed to set "+key, err)
		}
		result.Loaded = append(result.Loaded, key)
	}
	return result, nil
}

// kvResponse covers both engine versions: v1 keeps the secret in data,
// v2 nests it in data.data next to metadata.
type kvResponse struct {
	Data json.RawMessage `json:"data"`
}

type kvV2Data struct {
	Data map[string]interface{} `json:"data"`
}

func fetchSecrets(ctx context.Context, cfg VaultConfig) (map[string]interface{}, error) {
	url, err := buildVaultURL(cfg.Addr, cfg.Mount, cfg.Path, cfg.KVVersion)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Timeout}
	var body []byte

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 3
	retryCfg.Retryable = func(err error) bool { return errors.Is(err, errVaultUnavailable) }
	err = retry.Do(ctx, retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-Vault-Token", cfg.Token)
		if cfg.Namespace != "" {
			req.Header.Set("X-Vault-Namespace", cfg.Namespace)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %w", errVaultUnavailable, err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return apperrors.NewExternalError("failed to read vault response", err)
		}
		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: %s", errVaultUnavailable, resp.Status)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return apperrors.NewExternalError(
				fmt.Sprintf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body))), nil)
		}
		return nil
	})
	if errors.Is(err, errVaultUnavailable) {
		return nil, apperrors.NewExternalError("failed to fetch secrets from vault", err)
	}
	if err != nil {
		return nil, err
	}

	var envelope kvResponse
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Data) == 0 {
		return nil, apperrors.NewSerializationError("vault response missing data", err)
	}

	if cfg.KVVersion == 1 {
		var data map[string]interface{}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, apperrors.NewSerializationError("vault KV v1 data is not an object", err)
		}
		return data, nil
	}

	var v2 kvV2Data
	if err := json.Unmarshal(envelope.Data, &v2); err != nil || v2.Data == nil {
		return nil, apperrors.NewSerializationError("vault response missing data for KV v2", err)
	}
	return v2.Data, nil
}

func buildVaultURL(addr, mount, path string, kvVersion int) (string, error) {
	addr = strings.TrimRight(addr, "/")
	mount = strings.Trim(mount, "/")
	path = strings.TrimLeft(path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", apperrors.NewConfigurationError("vault address, mount, and path must be set", nil)
	}
	if kvVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

func stringifyVaultValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
