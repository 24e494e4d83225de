package mock

import (
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/provider"
	"github.com/strixlabs/strix/provider/models"
)

// Model registers a model served by the given scripted provider.
func Model(name string, p *Provider) api.Model {
	m := model{name: name, provider: p}
	models.Add(m)
	return m
}

type model struct {
	name     string
	provider *Provider
}

func (m model) Name() string { return m.name }

func (m model) Provider() provider.Provider { return m.provider }
