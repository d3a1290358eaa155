package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvModel, "")
	t.Setenv(EnvOpenAI, "")
	t.Setenv(EnvJina, "")
}

func TestNewFromEnvDefaultsToLocal(t *testing.T) {
	clearProviderEnv(t)

	e, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "local", e.Provider())
}

func TestNewFromEnvPrefersOpenAI(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvOpenAI, "sk-test")
	t.Setenv(EnvJina, "jina-test")

	e, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "openai", e.Provider())
	assert.Equal(t, DefaultOpenAIModel, e.Model())
}

func TestNewFromEnvFallsBackToJina(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvJina, "jina-test")

	e, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "jina", e.Provider())
}

func TestNewFromEnvExplicitProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvProvider, "local")
	t.Setenv(EnvOpenAI, "sk-test")

	e, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "local", e.Provider())
}

func TestNewFromEnvExplicitProviderMissingKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvProvider, "openai")

	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestNewFromEnvUnknownProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvProvider, "acme")

	_, err := NewFromEnv()
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestNewFromEnvModelOverride(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvOpenAI, "sk-test")
	t.Setenv(EnvModel, "text-embedding-3-large")

	e, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", e.Model())
}
