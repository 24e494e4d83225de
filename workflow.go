package strix

import (
	"context"
	"fmt"
	"slices"

	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/internal/executor"
	"github.com/strixlabs/strix/internal/shorttermmemory"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/provider"
)

// Workflow is a named sequence of conversation steps over a pool of agents.
type Workflow struct {
	name   string
	agents *haxmap.Map[string, api.Agent]
	steps  []ConversationStep
}

// Agents registers agents with the workflow, keyed by name.
func Agents(agent api.Agent, extraAgents ...api.Agent) opts.Option[Workflow] {
	return opts.Type[Workflow](func(o *Workflow) error {
		o.agents.Set(agent.Name(), agent)
		for elem := range slices.Values(extraAgents) {
			o.agents.Set(elem.Name(), elem)
		}
		return nil
	})
}

// Steps appends conversation steps to the workflow.
func Steps(step ConversationStep, extraSteps ...ConversationStep) opts.Option[Workflow] {
	return opts.Type[Workflow](func(o *Workflow) error {
		o.steps = append(o.steps, step)
		o.steps = append(o.steps, extraSteps...)
		return nil
	})
}

// Name sets the sender name used for user prompts, defaults to "User".
var Name = opts.ForName[Workflow, string]("name")

// New creates a workflow from the provided options.
func New(options ...opts.Option[Workflow]) *Workflow {
	p := &Workflow{
		name:   "User",
		agents: haxmap.New[string, api.Agent](),
	}
	if err := opts.Apply(p, options); err != nil {
		panic(err)
	}
	return p
}

// Run executes the workflow steps in order. Every step starts on a fresh
// conversation; only the final step resolves the caller's promise and
// structured output schema.
func (w *Workflow) Run(ctx context.Context, rc ExecutionContext) error {
	if rc.broker != nil {
		topic := rc.broker.Topic(ctx, w.name)
		sub, err := topic.Subscribe(ctx, rc.hook)
		if err != nil {
			return fmt.Errorf("failed to subscribe to topic: %w", err)
		}
		defer sub.Unsubscribe()
		rc.hook = &broadcastHook{topic: topic}
	}

	defer rc.onClose(ctx)

	maxItems := len(w.steps) - 1

	for i, step := range w.steps {
		var promise executor.Promise = rc.promise
		var schema *provider.StructuredOutput
		if i < maxItems {
			promise = noopPromise{}
		} else {
			schema = rc.responseSchema
		}

		if err := w.runStep(ctx, step.agentName, step.task, ExecutionContext{
			executor:       rc.executor,
			hook:           rc.hook,
			promise:        promise,
			contextVars:    rc.contextVars,
			onClose:        rc.onClose,
			responseSchema: schema,
			stream:         rc.stream,
			maxTurns:       rc.maxTurns,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (w *Workflow) runStep(ctx context.Context, agentName string, prompt task, rc ExecutionContext) error {
	agent, found := w.agents.Get(agentName)
	if !found {
		return fmt.Errorf("agent %s not found", agentName)
	}

	state := shorttermmemory.New()

	var message messages.Message[messages.UserMessage]
	switch tsk := prompt.(type) {
	case stringTask:
		message = messages.New().WithSender(w.name).UserPrompt(string(tsk))
	case messageTask:
		message = messages.Message[messages.UserMessage](tsk)
	default:
		return fmt.Errorf("unknown task type %T", tsk)
	}
	state.AddUserPrompt(message)
	rc.hook.OnUserPrompt(ctx, message)

	cmd, err := rc.createCommand(agent, state)
	if err != nil {
		return err
	}

	return rc.executor.Run(ctx, cmd, rc.promise)
}
