// Package types provides core type definitions shared across the strix toolkit.
package types

import json "github.com/goccy/go-json"

// ContextVars is a key-value store of context variables used for template
// rendering of agent instructions and for passing state between conversation
// turns. Tool functions may declare a ContextVars parameter to receive the
// current variables, and may return ContextVars to update them.
//
// ContextVars is a plain map and is not safe for concurrent modification.
type ContextVars map[string]any

// String returns a JSON representation of the variables, or an empty string
// when marshaling fails.
func (cv ContextVars) String() string {
	data, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(data)
}
