package strix

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fogfish/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strixlabs/strix/agent"
	"github.com/strixlabs/strix/internal/broker"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/provider/mock"
	"github.com/strixlabs/strix/tool"
	"github.com/strixlabs/strix/types"
)

type recordingHook struct {
	NoopHook[string]

	mu         sync.Mutex
	prompts    []messages.Message[messages.UserMessage]
	assistants []messages.Message[messages.AssistantMessage]
	toolCalls  []messages.Message[messages.ToolCallMessage]
	result     string
	hasResult  bool
	errs       []error
	closed     bool
}

func (r *recordingHook) OnUserPrompt(_ context.Context, msg messages.Message[messages.UserMessage]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, msg)
}

func (r *recordingHook) OnAssistantMessage(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assistants = append(r.assistants, msg)
}

func (r *recordingHook) OnToolCallMessage(_ context.Context, msg messages.Message[messages.ToolCallMessage]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolCalls = append(r.toolCalls, msg)
}

func (r *recordingHook) OnResult(_ context.Context, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = result
	r.hasResult = true
}

func (r *recordingHook) OnError(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingHook) OnClose(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func TestWorkflow_Run(t *testing.T) {
	prov := mock.New(mock.Turn{Response: "bonjour"})
	french := agent.New(
		agent.Name("french_agent"),
		agent.Model(mock.Model("wf-run", prov)),
		agent.Instructions("You only speak French."),
	)

	wf := New(
		Agents(french),
		Steps(Step(french.Name(), "Say hello")),
	)

	hook := &recordingHook{}
	require.NoError(t, wf.Run(context.Background(), Local(Hook[string](hook))))

	hook.mu.Lock()
	defer hook.mu.Unlock()
	assert.True(t, hook.closed)
	assert.True(t, hook.hasResult)
	assert.Equal(t, "bonjour", hook.result)
	require.Len(t, hook.prompts, 1)
	assert.Equal(t, "Say hello", hook.prompts[0].Payload.Content.Content)
	assert.Equal(t, "User", hook.prompts[0].Sender)
	require.Len(t, hook.assistants, 1)
}

func TestWorkflow_Run_MultipleSteps(t *testing.T) {
	prov1 := mock.New(mock.Turn{Response: "draft text"})
	prov2 := mock.New(mock.Turn{Response: "polished text"})

	writer := agent.New(agent.Name("writer"), agent.Model(mock.Model("wf-steps-1", prov1)))
	editor := agent.New(agent.Name("editor"), agent.Model(mock.Model("wf-steps-2", prov2)))

	wf := New(
		Name("Author"),
		Agents(writer, editor),
		Steps(
			Step(writer.Name(), "Write a paragraph about owls"),
			Step(editor.Name(), "Polish the draft"),
		),
	)

	hook := &recordingHook{}
	require.NoError(t, wf.Run(context.Background(), Local(Hook[string](hook))))

	hook.mu.Lock()
	defer hook.mu.Unlock()
	// Only the final step resolves the result
	assert.Equal(t, "polished text", hook.result)
	assert.Len(t, hook.prompts, 2)
	assert.Equal(t, "Author", hook.prompts[0].Sender)
	assert.Len(t, hook.assistants, 2)
}

func TestWorkflow_Run_AgentNotFound(t *testing.T) {
	wf := New(Steps(Step("ghost", "boo")))

	hook := &recordingHook{}
	err := wf.Run(context.Background(), Local(Hook[string](hook)))
	require.EqualError(t, err, "agent ghost not found")
}

func TestWorkflow_Run_MessageTask(t *testing.T) {
	prov := mock.New(mock.Turn{Response: "ack"})
	a := agent.New(agent.Name("receiver"), agent.Model(mock.Model("wf-msg", prov)))

	msg := messages.New().WithSender("Custom").UserPrompt("prebuilt prompt")
	wf := New(
		Agents(a),
		Steps(Step(a.Name(), msg)),
	)

	hook := &recordingHook{}
	require.NoError(t, wf.Run(context.Background(), Local(Hook[string](hook))))

	hook.mu.Lock()
	defer hook.mu.Unlock()
	require.Len(t, hook.prompts, 1)
	assert.Equal(t, "Custom", hook.prompts[0].Sender)
	assert.Equal(t, "prebuilt prompt", hook.prompts[0].Payload.Content.Content)
}

func TestWorkflow_Run_ToolCalls(t *testing.T) {
	prov := mock.New(
		mock.Turn{ToolCalls: []messages.ToolCallData{{ID: "call_1", Name: "lookup", Arguments: `{"q":"owls"}`}}},
		mock.Turn{Response: "owls are nocturnal"},
	)
	lookup := tool.Must(func(q string) string { return "facts about " + q },
		tool.Name("lookup"), tool.Parameters("q"))
	a := agent.New(
		agent.Name("researcher"),
		agent.Model(mock.Model("wf-tools", prov)),
		agent.Tools(lookup),
	)

	wf := New(Agents(a), Steps(Step(a.Name(), "Tell me about owls")))

	hook := &recordingHook{}
	require.NoError(t, wf.Run(context.Background(), Local(Hook[string](hook))))

	hook.mu.Lock()
	defer hook.mu.Unlock()
	assert.Equal(t, "owls are nocturnal", hook.result)
	require.Len(t, hook.toolCalls, 1)
	assert.Equal(t, "lookup", hook.toolCalls[0].Payload.ToolCalls[0].Name)
}

func TestWorkflow_Run_WithBroker(t *testing.T) {
	prov := mock.New(mock.Turn{Response: "via broker"})
	a := agent.New(agent.Name("broadcaster"), agent.Model(mock.Model("wf-broker", prov)))

	wf := New(
		Name("broker-run"),
		Agents(a),
		Steps(Step(a.Name(), "Say something")),
	)

	hook := &recordingHook{}
	require.NoError(t, wf.Run(context.Background(), Local(Hook[string](hook), WithBroker(broker.Local()))))

	// Broker delivery is asynchronous
	require.Eventually(t, func() bool {
		hook.mu.Lock()
		defer hook.mu.Unlock()
		return len(hook.prompts) == 1 && len(hook.assistants) == 1
	}, time.Second, 5*time.Millisecond)

	hook.mu.Lock()
	defer hook.mu.Unlock()
	assert.Equal(t, "via broker", hook.result)
	assert.True(t, hook.closed)
}

func TestWorkflow_Run_WithContextVars(t *testing.T) {
	prov := mock.New(mock.Turn{Response: "hi jules"})
	a := agent.New(
		agent.Name("personal"),
		agent.Model(mock.Model("wf-vars", prov)),
		agent.Instructions("You are helping {{.user}}."),
	)

	wf := New(Agents(a), Steps(Step(a.Name(), "hello")))

	hook := &recordingHook{}
	require.NoError(t, wf.Run(context.Background(), Local(
		Hook[string](hook),
		WithContextVars(types.ContextVars{"user": "jules"}),
	)))

	calls := prov.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "You are helping jules.", calls[0].Instructions)
}

func TestLocal_Options(t *testing.T) {
	hook := &recordingHook{}
	rc := Local(Hook[string](hook), Streaming(true), WithMaxTurns(7))

	assert.True(t, rc.stream)
	assert.Equal(t, 7, rc.maxTurns)
	assert.NotNil(t, rc.executor)
	assert.NotNil(t, rc.promise)
	assert.NotNil(t, rc.onClose)
}

func TestStructuredOutput(t *testing.T) {
	type verdict struct {
		Ok     bool   `json:"ok"`
		Reason string `json:"reason"`
	}

	t.Run("struct type produces schema", func(t *testing.T) {
		var rc ExecutionContext
		require.NoError(t, opts.Apply(&rc, []opts.Option[ExecutionContext]{
			StructuredOutput[verdict]("verdict", "a yes/no verdict"),
		}))
		require.NotNil(t, rc.responseSchema)
		assert.Equal(t, "verdict", rc.responseSchema.Name)
		assert.NotNil(t, rc.responseSchema.Schema)
	})

	t.Run("string type skips schema", func(t *testing.T) {
		var rc ExecutionContext
		require.NoError(t, opts.Apply(&rc, []opts.Option[ExecutionContext]{
			StructuredOutput[string]("raw", ""),
		}))
		assert.Nil(t, rc.responseSchema)
	})
}
