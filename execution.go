package strix

import (
	"context"
	"reflect"

	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/events"
	"github.com/strixlabs/strix/internal/broker"
	"github.com/strixlabs/strix/internal/executor"
	"github.com/strixlabs/strix/internal/shorttermmemory"
	"github.com/strixlabs/strix/provider"
	"github.com/strixlabs/strix/types"
	"github.com/tidwall/gjson"
)

// Local creates an ExecutionContext that runs the workflow in-process. The
// hook receives every lifecycle event and, once the run closes, the typed
// final result.
//
// Example:
//
//	ctx := strix.Local(hook,
//	    strix.WithContextVars(types.ContextVars{"user": "alice"}),
//	    strix.Streaming(true),
//	    strix.WithMaxTurns(5),
//	)
func Local[T any](hook Hook[T], options ...opts.Option[ExecutionContext]) ExecutionContext {
	fut := executor.NewFuture(executor.DefaultUnmarshal[T]())
	dp := &deferredPromise[T]{
		promise: fut,
		hook:    hook,
	}

	execCtx := ExecutionContext{
		executor: executor.NewLocal(),
		hook:     asEventsHook(hook),
		promise:  dp,
		onClose: func(ctx context.Context) {
			dp.Forward(ctx)
			hook.OnClose(ctx)
		},
	}

	if err := opts.Apply(&execCtx, options); err != nil {
		panic(err)
	}

	return execCtx
}

// ExecutionContext holds the configuration and state for executing
// conversation steps: the executor, event hook, result promise, and the
// execution parameters applied to every step.
//
// An ExecutionContext belongs to a single workflow run and should not be
// shared across concurrent conversations.
type ExecutionContext struct {
	executor       executor.Executor
	hook           events.Hook
	promise        executor.Promise
	responseSchema *provider.StructuredOutput
	contextVars    types.ContextVars
	broker         broker.Broker
	onClose        func(context.Context)
	stream         bool
	maxTurns       int
}

// createCommand builds a RunCommand for the given agent using the current
// execution context.
func (e *ExecutionContext) createCommand(agent api.Agent, mem *shorttermmemory.Aggregator) (executor.RunCommand, error) {
	cmd, err := executor.NewRunCommand(agent, mem, e.hook)
	if err != nil {
		return executor.RunCommand{}, err
	}
	if len(e.contextVars) > 0 {
		cmd = cmd.WithContextVariables(e.contextVars)
	}
	if e.responseSchema != nil {
		cmd = cmd.WithResponseSchema(e.responseSchema)
	}
	if e.stream {
		cmd = cmd.WithStream(e.stream)
	}
	if e.maxTurns > 0 {
		cmd = cmd.WithMaxTurns(e.maxTurns)
	}
	return cmd, nil
}

// jsonSchema generates a JSON schema for T unless T is gjson.Result or a
// string, which pass through unvalidated.
func jsonSchema[T any]() *jsonschema.Schema {
	var schema *jsonschema.Schema
	var isGjsonResult bool
	var t T
	_, isGjsonResult = any(t).(gjson.Result)
	isString := reflect.TypeFor[T]().Kind() == reflect.String

	if !isGjsonResult && !isString {
		schema = executor.ToJSONSchema[T]()
	}

	return schema
}

var (
	// WithContextVars sets context variables for the run. Agents use them
	// when rendering templated instructions, and tools may receive and
	// update them.
	WithContextVars = opts.ForName[ExecutionContext, types.ContextVars]("contextVars")

	// Streaming enables incremental chunk events during responses.
	Streaming = opts.ForName[ExecutionContext, bool]("stream")

	// WithMaxTurns limits the number of conversation turns per step.
	WithMaxTurns = opts.ForName[ExecutionContext, int]("maxTurns")

	// WithBroker routes run events through the given broker instead of
	// invoking the hook directly. The hook is subscribed to the run's topic,
	// so with a NATS broker events also fan out across processes.
	WithBroker = opts.ForName[ExecutionContext, broker.Broker]("broker")
)

// StructuredOutput asks the model for responses conforming to the JSON
// schema reflected from T, under the given name and description.
//
// Example:
//
//	type Response struct {
//	    Status  string `json:"status"`
//	    Message string `json:"message"`
//	}
//
//	ctx := strix.Local[Response](hook,
//	    strix.StructuredOutput[Response]("status_response", "Response with status and message"),
//	)
func StructuredOutput[T any](name, description string) opts.Option[ExecutionContext] {
	return opts.Type[ExecutionContext](func(s *ExecutionContext) error {
		schema := jsonSchema[T]()
		if schema != nil {
			s.responseSchema = &provider.StructuredOutput{
				Name:        name,
				Description: description,
				Schema:      schema,
			}
		}
		return nil
	})
}
