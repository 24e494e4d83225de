// Package cache provides response caching for chat completions. Requests are
// keyed by a SHA-256 digest of the model, instructions, and conversation
// thread; entries expire after a configurable TTL. Two stores are provided:
// an in-process one backed by haxmap and a persistent one backed by BadgerDB
// with msgpack-encoded values. Provider wraps any provider.Provider with
// read-through caching of non-streaming, tool-free completions.
package cache
