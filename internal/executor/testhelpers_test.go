package executor

import (
	"context"
	"sync"

	"github.com/strixlabs/strix/api"
	"github.com/strixlabs/strix/events"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/provider"
	"github.com/strixlabs/strix/tool"
	"github.com/strixlabs/strix/types"
)

// scriptedProvider replays one batch of stream events per ChatCompletion
// call and records the params it received.
type scriptedProvider struct {
	mu      sync.Mutex
	batches [][]provider.StreamEvent
	params  []provider.CompletionParams
	err     error
}

func (p *scriptedProvider) ChatCompletion(_ context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}

	p.params = append(p.params, params)

	var batch []provider.StreamEvent
	if len(p.batches) > 0 {
		batch = p.batches[0]
		p.batches = p.batches[1:]
	}

	ch := make(chan provider.StreamEvent, len(batch))
	for _, event := range batch {
		ch <- event
	}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) calls() []provider.CompletionParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]provider.CompletionParams(nil), p.params...)
}

type testModel struct {
	provider provider.Provider
}

func (m testModel) Name() string                { return "test_model" }
func (m testModel) Provider() provider.Provider { return m.provider }
func (m testModel) String() string              { return "test_model" }

type testAgent struct {
	name  string
	model api.Model
	tools []tool.Definition
}

func (a *testAgent) Name() string             { return a.name }
func (a *testAgent) Model() api.Model         { return a.model }
func (a *testAgent) Instructions() string     { return "You are a test agent." }
func (a *testAgent) Tools() []tool.Definition { return a.tools }
func (a *testAgent) ParallelToolCalls() bool  { return false }

func (a *testAgent) RenderInstructions(types.ContextVars) (string, error) {
	return a.Instructions(), nil
}

func newTestAgent(prov provider.Provider, tools ...tool.Definition) *testAgent {
	return &testAgent{
		name:  "test_agent",
		model: testModel{provider: prov},
		tools: tools,
	}
}

// capturingHook records every callback it receives.
type capturingHook struct {
	events.NoopHook

	mu             sync.Mutex
	assistantMsgs  []messages.Message[messages.AssistantMessage]
	assistantChnks []messages.Message[messages.AssistantMessage]
	toolCallMsgs   []messages.Message[messages.ToolCallMessage]
	toolResponses  []messages.Message[messages.ToolResponse]
	errs           []error
}

func (h *capturingHook) OnAssistantChunk(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.assistantChnks = append(h.assistantChnks, msg)
}

func (h *capturingHook) OnAssistantMessage(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.assistantMsgs = append(h.assistantMsgs, msg)
}

func (h *capturingHook) OnToolCallMessage(_ context.Context, msg messages.Message[messages.ToolCallMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toolCallMsgs = append(h.toolCallMsgs, msg)
}

func (h *capturingHook) OnToolCallResponse(_ context.Context, msg messages.Message[messages.ToolResponse]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toolResponses = append(h.toolResponses, msg)
}

func (h *capturingHook) OnError(_ context.Context, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func assistantResponse(content string) provider.Response[messages.AssistantMessage] {
	return provider.Response[messages.AssistantMessage]{
		Response: messages.AssistantMessage{Content: content},
	}
}

func toolCallResponse(calls ...messages.ToolCallData) provider.Response[messages.ToolCallMessage] {
	return provider.Response[messages.ToolCallMessage]{
		Response: messages.ToolCallMessage{ToolCalls: calls},
	}
}
