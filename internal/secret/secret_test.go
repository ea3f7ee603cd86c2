package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/config"
)

func TestEnvStore_ReadsEnvironment(t *testing.T) {
	store := NewEnvStore("PB_TEST_")
	t.Setenv("PB_TEST_DATASOURCE_DS_1", "hunter2")

	assert.Equal(t, "PB_TEST_DATASOURCE_DS_1", store.VarName(DataSourceKey("ds-1")))
	v, err := store.Get(DataSourceKey("ds-1"))
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(v))
}

func TestEnvStore_SetShadowsAndDeleteHides(t *testing.T) {
	store := NewEnvStore("PB_TEST_")
	t.Setenv("PB_TEST_API_TOKEN", "from-env")

	require.NoError(t, store.Set(APITokenKey, []byte("runtime")))
	v, err := store.Get(APITokenKey)
	require.NoError(t, err)
	assert.Equal(t, "runtime", string(v))

	require.NoError(t, store.Delete(APITokenKey))
	v, err = store.Get(APITokenKey)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = store.Get("never-set")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestOpen(t *testing.T) {
	s, err := Open(config.SecretsConfig{Backend: "env"})
	require.NoError(t, err)
	assert.IsType(t, &EnvStore{}, s)

	s, err = Open(config.SecretsConfig{Backend: "keychain", Service: "svc"})
	require.NoError(t, err)
	assert.Equal(t, "svc", s.(*KeychainStore).service)

	_, err = Open(config.SecretsConfig{Backend: "vault"})
	assert.Error(t, err)
}
