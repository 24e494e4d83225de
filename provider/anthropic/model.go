package anthropic

import (
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/provider"
	"github.com/strixlabs/strix/provider/models"
)

// Model returns the registered model definition for name, creating it on
// first use.
func Model(name string) api.Model {
	return models.GetOrAdd(name, func() api.Model {
		return model{name: name}
	})
}

var (
	Claude37Sonnet = Model("claude-3-7-sonnet-latest")
	Claude35Sonnet = Model("claude-3-5-sonnet-latest")
	Claude35Haiku  = Model("claude-3-5-haiku-latest")
	Claude3Opus    = Model("claude-3-opus-latest")
)

type model struct {
	name string
}

func (m model) Name() string { return m.name }

func (m model) Provider() provider.Provider { return Must() }
