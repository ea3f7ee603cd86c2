package secret

import (
	"fmt"

	"pagebuilder/internal/config"
)

// SecretStore provides a pluggable interface for storing sensitive data
// such as data source passwords and the admin API token.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// DataSourceKey is the secret key holding a data source password.
func DataSourceKey(dataSourceID string) string {
	return "datasource:" + dataSourceID
}

// APITokenKey is the secret key holding the admin API token.
const APITokenKey = "api:token"

// Open returns the secret store selected by cfg.
func Open(cfg config.SecretsConfig) (SecretStore, error) {
	switch cfg.Backend {
	case "", "env":
		return NewEnvStore("PAGEBUILDER_SECRET_"), nil
	case "keychain":
		return NewKeychainStore(cfg.Service), nil
	default:
		return nil, fmt.Errorf("unknown secrets backend: %s", cfg.Backend)
	}
}
