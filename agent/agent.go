// Package agent provides the default api.Agent implementation: a named
// participant with a model, templated instructions, and tools.
package agent

import (
	"strings"
	"text/template"

	"github.com/fogfish/opts"
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/provider/openai"
	"github.com/strixlabs/strix/tool"
	"github.com/strixlabs/strix/types"
)

var _ api.Agent = (*defaultAgent)(nil)

type defaultAgent struct {
	name              string
	model             api.Model
	instructions      string
	tools             []tool.Definition
	parallelToolCalls bool
}

// Name returns the agent's name.
func (a *defaultAgent) Name() string {
	return a.name
}

// Model returns the agent's model.
func (a *defaultAgent) Model() api.Model {
	return a.model
}

// Instructions returns the agent's raw, unrendered instructions.
func (a *defaultAgent) Instructions() string {
	return a.instructions
}

// Tools returns the agent's tool definitions.
func (a *defaultAgent) Tools() []tool.Definition {
	return a.tools
}

// ParallelToolCalls returns whether the agent supports parallel tool calls.
func (a *defaultAgent) ParallelToolCalls() bool {
	return a.parallelToolCalls
}

// RenderInstructions renders the agent's instructions with the provided
// context variables. Instructions without template actions pass through
// untouched.
func (a *defaultAgent) RenderInstructions(cv types.ContextVars) (string, error) {
	if !strings.Contains(a.instructions, "{{") {
		return a.instructions, nil
	}
	return renderTemplate("instructions", a.instructions, cv)
}

func renderTemplate(name, templateStr string, cv types.ContextVars) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, cv); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// Option configures an agent under construction.
type Option = opts.Option[defaultAgent]

var (
	Name              = opts.ForName[defaultAgent, string]("name")
	Model             = opts.ForName[defaultAgent, api.Model]("model")
	Instructions      = opts.ForName[defaultAgent, string]("instructions")
	ParallelToolCalls = opts.ForName[defaultAgent, bool]("parallelToolCalls")
)

// Tools appends tool definitions to the agent.
func Tools(tool tool.Definition, extraTools ...tool.Definition) Option {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.tools = append(o.tools, tool)
		o.tools = append(o.tools, extraTools...)
		return nil
	})
}

// New creates an agent with the provided options. Without a Model option the
// agent uses gpt-4o-mini.
func New(options ...Option) api.Agent {
	agent := &defaultAgent{
		model:             openai.GPT4oMini,
		parallelToolCalls: true,
	}
	if err := opts.Apply(agent, options); err != nil {
		panic(err)
	}
	return agent
}
