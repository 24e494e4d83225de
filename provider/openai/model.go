package openai

import (
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/provider"
	"github.com/strixlabs/strix/provider/models"
)

// Model returns the registered model definition for name, creating it on
// first use. The provider is constructed lazily so importing this package
// does not require credentials.
func Model(name string) api.Model {
	return models.GetOrAdd(name, func() api.Model {
		return model{name: name}
	})
}

var (
	GPT4o      = Model("gpt-4o")
	GPT4oMini  = Model("gpt-4o-mini")
	O1         = Model("o1")
	O1Mini     = Model("o1-mini")
	GPT4Turbo  = Model("gpt-4-turbo")
	TextSmall3 = "text-embedding-3-small"
	TextLarge3 = "text-embedding-3-large"
)

type model struct {
	name string
}

func (m model) Name() string { return m.name }

func (m model) Provider() provider.Provider { return New() }
