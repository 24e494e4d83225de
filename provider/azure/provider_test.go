package azure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(APIKey("secret"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint is required")
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Endpoint("https://myresource.openai.azure.com"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestNew(t *testing.T) {
	p, err := New(
		Endpoint("https://myresource.openai.azure.com"),
		APIKey("secret"),
	)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://envresource.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "env-secret")
	t.Setenv("AZURE_OPENAI_API_VERSION", "2024-06-01")

	p, err := New(FromEnv())
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestRequestOptions_DefaultsAPIVersion(t *testing.T) {
	options := RequestOptions(Config{
		Endpoint: "https://myresource.openai.azure.com",
		APIKey:   "secret",
	})
	assert.Len(t, options, 2)
}

func TestModel(t *testing.T) {
	m := Model("my-gpt4o-deployment")
	assert.Equal(t, "my-gpt4o-deployment", m.Name())
	// Registered under the deployment name
	assert.Equal(t, m, Model("my-gpt4o-deployment"))
}

func TestModel_ProviderNilWhenUnconfigured(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	t.Setenv("AZURE_OPENAI_API_KEY", "")
	t.Setenv("AZURE_OPENAI_API_VERSION", "")

	m := Model("unconfigured-deployment")
	assert.Nil(t, m.Provider())
}
