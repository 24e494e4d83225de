// Package azure serves models hosted on Azure OpenAI deployments. It reuses
// the OpenAI provider implementation and swaps in Azure endpoint routing and
// api-key authentication. On Azure the model name doubles as the deployment
// name.
package azure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fogfish/opts"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/pkg/slogx"
	"github.com/strixlabs/strix/provider"
	"github.com/strixlabs/strix/provider/models"
	openaiprovider "github.com/strixlabs/strix/provider/openai"
)

// DefaultAPIVersion is used when no api-version is configured.
const DefaultAPIVersion = "2024-10-21"

// Config holds the connection settings for an Azure OpenAI resource.
type Config struct {
	Endpoint   string
	APIKey     string
	APIVersion string
}

var (
	// Endpoint sets the resource endpoint, e.g. https://myresource.openai.azure.com.
	Endpoint = opts.ForName[Config, string]("Endpoint")
	// APIKey sets the api-key credential.
	APIKey = opts.ForName[Config, string]("APIKey")
	// APIVersion overrides the default api-version query parameter.
	APIVersion = opts.ForName[Config, string]("APIVersion")
)

// FromEnv populates the config from AZURE_OPENAI_ENDPOINT,
// AZURE_OPENAI_API_KEY and AZURE_OPENAI_API_VERSION.
func FromEnv() opts.Option[Config] {
	return opts.Type[Config](func(c *Config) error {
		if v := os.Getenv("AZURE_OPENAI_ENDPOINT"); v != "" {
			c.Endpoint = v
		}
		if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
			c.APIKey = v
		}
		if v := os.Getenv("AZURE_OPENAI_API_VERSION"); v != "" {
			c.APIVersion = v
		}
		return nil
	})
}

// New creates a provider for an Azure OpenAI resource.
func New(options ...opts.Option[Config]) (*openaiprovider.Provider, error) {
	var cfg Config
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azure: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azure: api key is required")
	}

	return openaiprovider.New(
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
	), nil
}

// RequestOptions returns the raw SDK options for callers that assemble their
// own client.
func RequestOptions(cfg Config) []option.RequestOption {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, apiVersion),
		azure.WithAPIKey(cfg.APIKey),
	}
}

// Model registers a model backed by an Azure deployment of the same name.
// The provider is configured from the environment on first use.
func Model(deployment string) api.Model {
	return models.GetOrAdd(deployment, func() api.Model {
		return model{deployment: deployment}
	})
}

type model struct {
	deployment string
}

func (m model) Name() string { return m.deployment }

func (m model) Provider() provider.Provider {
	p, err := New(FromEnv())
	if err != nil {
		slog.Error("azure provider unavailable", slogx.Error(err))
		return nil
	}
	return p
}
