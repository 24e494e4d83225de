// Package api holds the public contracts of the toolkit: agents and models.
package api

import (
	"github.com/strixlabs/strix/tool"
	"github.com/strixlabs/strix/types"
)

// Agent is a named participant in a run: a model, instructions, and the
// tools it may call.
type Agent interface {
	Name() string
	Model() Model
	Instructions() string
	Tools() []tool.Definition
	ParallelToolCalls() bool
	RenderInstructions(types.ContextVars) (string, error)
}
