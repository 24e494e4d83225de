package api

import "github.com/strixlabs/strix/provider"

// Model names a concrete model and knows which provider serves it.
type Model interface {
	Name() string
	Provider() provider.Provider
}
