// Package factory creates providers by name so callers can switch vendors
// through configuration instead of imports. The built-in names are "openai",
// "azure", "anthropic" and "mock"; additional constructors can be registered.
package factory

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-openapi/swag"
	"github.com/strixlabs/strix/internal/registry"
	"github.com/strixlabs/strix/provider"
	"github.com/strixlabs/strix/provider/anthropic"
	"github.com/strixlabs/strix/provider/azure"
	"github.com/strixlabs/strix/provider/mock"
	"github.com/strixlabs/strix/provider/openai"
)

// EnvVar names the environment variable consulted by FromEnv.
const EnvVar = "STRIX_PROVIDER"

// Constructor builds a provider from ambient configuration.
type Constructor func() (provider.Provider, error)

var constructors = registry.New[Constructor]()

func init() {
	Register("openai", func() (provider.Provider, error) {
		return openai.New(), nil
	})
	Register("azure", func() (provider.Provider, error) {
		return azure.New(azure.FromEnv())
	})
	Register("anthropic", func() (provider.Provider, error) {
		return anthropic.New()
	})
	Register("mock", func() (provider.Provider, error) {
		return mock.New(), nil
	})
}

// Register makes a constructor available under the given name. Names are
// matched case-insensitively; registering an existing name replaces it.
func Register(name string, constructor Constructor) {
	constructors.Add(strings.ToLower(name), constructor)
}

// Names returns the registered provider names, sorted.
func Names() []string {
	names := constructors.Names()
	sort.Strings(names)
	return names
}

// New creates the provider registered under name. The match is
// case-insensitive. Unknown names produce an error listing what is
// available.
func New(name string) (provider.Provider, error) {
	if !swag.ContainsStringsCI(constructors.Names(), name) {
		return nil, fmt.Errorf("unknown provider %q, available: %s", name, strings.Join(Names(), ", "))
	}

	constructor, ok := constructors.Get(strings.ToLower(name))
	if !ok {
		return nil, fmt.Errorf("unknown provider %q, available: %s", name, strings.Join(Names(), ", "))
	}
	return constructor()
}

// FromEnv creates the provider named by STRIX_PROVIDER, defaulting to
// "openai" when unset.
func FromEnv() (provider.Provider, error) {
	name := os.Getenv(EnvVar)
	if name == "" {
		name = "openai"
	}
	return New(name)
}
