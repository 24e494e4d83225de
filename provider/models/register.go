// Package models keeps a global registry of model definitions so agents can
// reference models by name regardless of which provider package created them.
package models

import (
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/internal/registry"
)

var Global = registry.New[api.Model]()

func Add(model api.Model) {
	Global.Add(model.Name(), model)
}

func Get(name string) (api.Model, bool) {
	return Global.Get(name)
}

func GetOrAdd(name string, modelF func() api.Model) api.Model {
	m, _ := Global.GetOrAdd(name, modelF)
	return m
}

func Del(name string) {
	Global.Del(name)
}
