// Package registry provides a small concurrent registry keyed by name.
package registry

import "github.com/alphadose/haxmap"

// Registry is a concurrent name-to-value map.
type Registry[T any] struct {
	items *haxmap.Map[string, T]
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{items: haxmap.New[string, T]()}
}

// Add stores value under name, replacing any previous entry.
func (r *Registry[T]) Add(name string, value T) {
	r.items.Set(name, value)
}

// Get returns the value registered under name.
func (r *Registry[T]) Get(name string) (T, bool) {
	return r.items.Get(name)
}

// GetOrAdd returns the existing value for name, computing and storing it when
// absent.
func (r *Registry[T]) GetOrAdd(name string, valueF func() T) (T, bool) {
	return r.items.GetOrCompute(name, valueF)
}

// Del removes the entry for name.
func (r *Registry[T]) Del(name string) {
	r.items.Del(name)
}

// Names returns the registered names in arbitrary order.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, r.items.Len())
	r.items.ForEach(func(name string, _ T) bool {
		names = append(names, name)
		return true
	})
	return names
}
