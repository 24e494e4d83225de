package executor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"sync"
	"sync/atomic"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/events"
	"github.com/strixlabs/strix/internal/shorttermmemory"
	"github.com/strixlabs/strix/pkg/stdx"
	"github.com/strixlabs/strix/pkg/uuidx"
	"github.com/strixlabs/strix/provider"
	"github.com/strixlabs/strix/types"
	"github.com/tidwall/gjson"
)

// Structured outputs accept a subset of JSON schema, these flags keep the
// reflected schema inside that subset.
var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

// ToJSONSchema reflects a JSON schema for T suitable for structured output.
func ToJSONSchema[T any]() *jsonschema.Schema {
	var v T
	return reflector.Reflect(v)
}

// NewRunCommand validates the required pieces of a run and assembles a
// command with a fresh run ID and no turn limit.
func NewRunCommand(agent api.Agent, thread *shorttermmemory.Aggregator, hook events.Hook) (RunCommand, error) {
	var err error
	if agent == nil {
		err = errors.Join(err, errors.New("agent is required"))
	}
	if thread == nil {
		err = errors.Join(err, errors.New("thread is required"))
	}
	if hook == nil {
		err = errors.Join(err, errors.New("hook is required"))
	}
	if err != nil {
		return RunCommand{}, err
	}

	return RunCommand{
		id:       uuidx.New(),
		Agent:    agent,
		Thread:   thread,
		Hook:     hook,
		MaxTurns: math.MaxInt,
	}, nil
}

// RunCommand describes a single run: the agent to execute, the conversation
// thread it operates on, and the hook receiving lifecycle events.
type RunCommand struct {
	id               uuid.UUID
	Agent            api.Agent
	Thread           *shorttermmemory.Aggregator
	ResponseSchema   *provider.StructuredOutput
	Stream           bool
	MaxTurns         int
	ContextVariables types.ContextVars
	Hook             events.Hook
}

func (r *RunCommand) Validate() error {
	if r.Agent == nil {
		return fmt.Errorf("agent cannot be nil")
	}
	if r.Thread == nil {
		return fmt.Errorf("thread cannot be nil")
	}
	if r.Hook == nil {
		return fmt.Errorf("hook cannot be nil")
	}
	return nil
}

func (r *RunCommand) initializeContextVars() types.ContextVars {
	if r.ContextVariables != nil {
		return maps.Clone(r.ContextVariables)
	}
	return nil
}

// ID returns the unique identifier of this run.
func (r *RunCommand) ID() uuid.UUID {
	return r.id
}

func (r RunCommand) WithStream(stream bool) RunCommand {
	r.Stream = stream
	return r
}

func (r RunCommand) WithMaxTurns(maxTurns int) RunCommand {
	r.MaxTurns = maxTurns
	return r
}

func (r RunCommand) WithContextVariables(contextVariables types.ContextVars) RunCommand {
	r.ContextVariables = contextVariables
	return r
}

func (r RunCommand) WithResponseSchema(output *provider.StructuredOutput) RunCommand {
	r.ResponseSchema = output
	return r
}

// DefaultUnmarshal returns an unmarshaler for T. Strings pass through
// verbatim, gjson.Result parses lazily, everything else goes through JSON.
func DefaultUnmarshal[T any]() func([]byte) (T, error) {
	var t T
	if _, isGjsonResult := any(t).(gjson.Result); isGjsonResult {
		return func(data []byte) (T, error) {
			return any(gjson.ParseBytes(data)).(T), nil
		}
	}

	if reflect.TypeFor[T]().Kind() == reflect.String {
		return func(data []byte) (T, error) {
			return any(string(data)).(T), nil
		}
	}

	return func(data []byte) (T, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return v, err
		}
		return v, nil
	}
}

// CompletableFuture is both sides of an async result: producers complete it,
// consumers block on it.
type CompletableFuture[T any] interface {
	Future[T]
	Promise
}

// Promise is the write side of a future.
type Promise interface {
	Complete(string)
	Error(error)
}

// Future is the read side: Get blocks until a result or error arrives.
type Future[T any] interface {
	Get() (T, error)
}

type futState struct {
	value string
	err   error
}

type futResult[T any] struct {
	result T
	err    error
	done   bool
}

type future[T any] struct {
	unmarshal func([]byte) (T, error)
	ch        chan futState
	result    atomic.Value // holds *futResult[T]
	once      sync.Once
	mu        sync.Mutex
}

// NewFuture creates a future that decodes the completed value with the given
// unmarshal function. Only the first Complete or Error call takes effect.
func NewFuture[T any](unmarshal func([]byte) (T, error)) CompletableFuture[T] {
	f := &future[T]{
		unmarshal: unmarshal,
		ch:        make(chan futState, 1),
	}
	f.result.Store(&futResult[T]{})
	return f
}

func (f *future[T]) Get() (T, error) {
	res := f.result.Load().(*futResult[T])
	if res.done {
		return res.result, res.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	res = f.result.Load().(*futResult[T])
	if res.done {
		return res.result, res.err
	}

	r := <-f.ch
	var newResult futResult[T]
	if r.err != nil {
		newResult = futResult[T]{
			result: stdx.Zero[T](),
			err:    r.err,
			done:   true,
		}
	} else {
		result, err := f.unmarshal([]byte(r.value))
		newResult = futResult[T]{
			result: result,
			err:    err,
			done:   true,
		}
	}
	f.result.Store(&newResult)
	return newResult.result, newResult.err
}

func (f *future[T]) Complete(data string) {
	f.once.Do(func() {
		f.ch <- futState{value: data}
	})
}

func (f *future[T]) Error(err error) {
	f.once.Do(func() {
		f.ch <- futState{err: err}
	})
}

// Executor drives a run command to completion, delivering the result through
// the promise.
type Executor interface {
	Run(context.Context, RunCommand, Promise) error
	handleToolCalls(ctx context.Context, params toolCallParams) (api.Agent, error)
}
