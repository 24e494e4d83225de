// Package tool turns plain Go functions into tool definitions that models
// can invoke. A definition carries the function value, a name, a description,
// and parameter names; the JSON schema handed to providers is derived from
// the function signature through reflection.
//
// Parameters of type types.ContextVars are hidden from the model and injected
// by the executor at call time.
package tool
