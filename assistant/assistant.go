// Package assistant emulates an assistants-style API on top of the run loop:
// a named assistant owns durable conversation threads, messages are appended
// to a thread, and Run drives the model over the whole history. The same
// surface works against every provider, including ones without a native
// assistants API.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"
	"github.com/strixlabs/strix/agent"
	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/events"
	"github.com/strixlabs/strix/internal/executor"
	"github.com/strixlabs/strix/internal/shorttermmemory"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/pkg/uuidx"
	"github.com/strixlabs/strix/tool"
)

// ErrThreadNotFound is returned for thread ids this assistant does not know.
var ErrThreadNotFound = errors.New("assistant: thread not found")

// ErrNoResponse is returned by GetResponse on a thread the assistant has not
// answered yet.
var ErrNoResponse = errors.New("assistant: no response yet")

// Assistant owns a set of conversation threads and answers them with one
// agent configuration.
type Assistant struct {
	name         string
	instructions string
	model        api.Model
	tools        []tool.Definition
	maxTurns     int

	threads  *haxmap.Map[string, *shorttermmemory.Aggregator]
	executor executor.Executor
}

var (
	// Name sets the assistant's name, used as the message sender.
	Name = opts.ForName[Assistant, string]("name")

	// Instructions sets the system prompt.
	Instructions = opts.ForName[Assistant, string]("instructions")

	// Model sets the model the assistant runs on.
	Model = opts.ForName[Assistant, api.Model]("model")

	// MaxTurns caps the tool-call turns per Run.
	MaxTurns = opts.ForName[Assistant, int]("maxTurns")
)

// Tools gives the assistant functions it may call during a run.
func Tools(tools ...tool.Definition) opts.Option[Assistant] {
	return opts.Type[Assistant](func(a *Assistant) error {
		a.tools = append(a.tools, tools...)
		return nil
	})
}

// New creates an assistant with no threads.
func New(options ...opts.Option[Assistant]) (*Assistant, error) {
	a := &Assistant{
		name:     "assistant",
		threads:  haxmap.New[string, *shorttermmemory.Aggregator](),
		executor: executor.NewLocal(),
	}
	if err := opts.Apply(a, options); err != nil {
		return nil, err
	}
	if a.model == nil {
		return nil, errors.New("assistant: Model is required")
	}
	return a, nil
}

// Name returns the assistant's name.
func (a *Assistant) Name() string { return a.name }

// CreateThread starts an empty conversation and returns its id.
func (a *Assistant) CreateThread() string {
	id := uuidx.NewString()
	a.threads.Set(id, shorttermmemory.New())
	return id
}

// DeleteThread drops a conversation. Unknown ids are ignored.
func (a *Assistant) DeleteThread(threadID string) {
	a.threads.Del(threadID)
}

func (a *Assistant) thread(threadID string) (*shorttermmemory.Aggregator, error) {
	mem, ok := a.threads.Get(threadID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	return mem, nil
}

// AddMessage appends a user message to a thread.
func (a *Assistant) AddMessage(threadID, content string) error {
	mem, err := a.thread(threadID)
	if err != nil {
		return err
	}
	mem.AddUserPrompt(messages.New().WithSender("user").UserPrompt(content))
	return nil
}

// Run answers the thread with everything accumulated so far and returns the
// assistant's reply. The reply is also appended to the thread, so subsequent
// runs see the full conversation.
func (a *Assistant) Run(ctx context.Context, threadID string) (string, error) {
	mem, err := a.thread(threadID)
	if err != nil {
		return "", err
	}

	runAgent := a.agent()
	command, err := executor.NewRunCommand(runAgent, mem, events.NoopHook{})
	if err != nil {
		return "", err
	}
	if a.maxTurns > 0 {
		command = command.WithMaxTurns(a.maxTurns)
	}

	fut := executor.NewFuture(executor.DefaultUnmarshal[string]())
	if err := a.executor.Run(ctx, command, fut); err != nil {
		return "", err
	}
	return fut.Get()
}

func (a *Assistant) agent() api.Agent {
	options := []agent.Option{
		agent.Name(a.name),
		agent.Model(a.model),
	}
	if a.instructions != "" {
		options = append(options, agent.Instructions(a.instructions))
	}
	if len(a.tools) > 0 {
		options = append(options, agent.Tools(a.tools[0], a.tools[1:]...))
	}
	return agent.New(options...)
}

// GetResponse returns the most recent assistant reply on a thread.
func (a *Assistant) GetResponse(threadID string) (string, error) {
	mem, err := a.thread(threadID)
	if err != nil {
		return "", err
	}

	msgs := mem.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if payload, ok := msgs[i].Payload.(messages.AssistantMessage); ok {
			return payload.Content, nil
		}
	}
	return "", ErrNoResponse
}

// Messages returns a copy of a thread's history.
func (a *Assistant) Messages(threadID string) (shorttermmemory.AggregatedMessages, error) {
	mem, err := a.thread(threadID)
	if err != nil {
		return nil, err
	}
	return mem.Messages(), nil
}
