package secret

import (
	"os"
	"strings"
	"sync"
)

// EnvStore reads secrets from environment variables named prefix+KEY,
// where KEY is the upper-cased key with non-alphanumerics replaced by
// underscores. Values set at runtime shadow the environment for the life
// of the process.
type EnvStore struct {
	prefix string

	mu      sync.RWMutex
	values  map[string][]byte
	deleted map[string]bool
}

// NewEnvStore creates an EnvStore.
func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{prefix: prefix, values: map[string][]byte{}, deleted: map[string]bool{}}
}

// VarName is the environment variable consulted for key.
func (e *EnvStore) VarName(key string) string {
	var b strings.Builder
	b.WriteString(e.prefix)
	for _, r := range strings.ToUpper(key) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (e *EnvStore) Set(key string, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[key] = append([]byte(nil), value...)
	delete(e.deleted, key)
	return nil
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if v, ok := e.values[key]; ok {
		return append([]byte(nil), v...), nil
	}
	if e.deleted[key] {
		return nil, nil
	}
	if v, ok := os.LookupEnv(e.VarName(key)); ok {
		return []byte(v), nil
	}
	return nil, nil
}

func (e *EnvStore) Delete(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.values, key)
	e.deleted[key] = true
	return nil
}
