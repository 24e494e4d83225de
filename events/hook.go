package events

import (
	"context"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/strixlabs/strix/messages"
)

// Hook receives agent activity as it happens. Implementations must be safe
// for concurrent use; the broker invokes them from forwarding goroutines.
type Hook interface {
	OnUserPrompt(context.Context, messages.Message[messages.UserMessage])
	OnAssistantChunk(context.Context, messages.Message[messages.AssistantMessage])
	OnToolCallChunk(context.Context, messages.Message[messages.ToolCallMessage])
	OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage])
	OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage])
	OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse])
	OnResult(context.Context, any)
	OnError(context.Context, error)
}

// NewCompositeHook fans out every callback to all the given hooks, in order.
func NewCompositeHook(hooks ...Hook) Hook {
	return compositeHook(hooks)
}

type compositeHook []Hook

func (c compositeHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	for _, h := range c {
		h.OnUserPrompt(ctx, msg)
	}
}

func (c compositeHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	for _, h := range c {
		h.OnAssistantChunk(ctx, msg)
	}
}

func (c compositeHook) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	for _, h := range c {
		h.OnToolCallChunk(ctx, msg)
	}
}

func (c compositeHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	for _, h := range c {
		h.OnAssistantMessage(ctx, msg)
	}
}

func (c compositeHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	for _, h := range c {
		h.OnToolCallMessage(ctx, msg)
	}
}

func (c compositeHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	for _, h := range c {
		h.OnToolCallResponse(ctx, msg)
	}
}

func (c compositeHook) OnResult(ctx context.Context, result any) {
	for _, h := range c {
		h.OnResult(ctx, result)
	}
}

func (c compositeHook) OnError(ctx context.Context, err error) {
	for _, h := range c {
		h.OnError(ctx, err)
	}
}

// NoopHook ignores everything. Embed it to implement only the callbacks you
// care about.
type NoopHook struct{}

func (NoopHook) OnUserPrompt(context.Context, messages.Message[messages.UserMessage])           {}
func (NoopHook) OnAssistantChunk(context.Context, messages.Message[messages.AssistantMessage])  {}
func (NoopHook) OnToolCallChunk(context.Context, messages.Message[messages.ToolCallMessage])    {}
func (NoopHook) OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage]) {
}
func (NoopHook) OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage]) {}
func (NoopHook) OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse])   {}
func (NoopHook) OnResult(context.Context, any)                                                 {}
func (NoopHook) OnError(context.Context, error)                                                {}

// LoggingHook writes every callback to slog at debug level.
func LoggingHook() Hook {
	return loggingHook{}
}

type loggingHook struct{}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func (loggingHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	slog.DebugContext(ctx, "user prompt", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	slog.DebugContext(ctx, "assistant chunk", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	slog.DebugContext(ctx, "tool call chunk", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	slog.DebugContext(ctx, "assistant message", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	slog.DebugContext(ctx, "tool call message", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	slog.DebugContext(ctx, "tool call response", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnResult(ctx context.Context, result any) {
	slog.DebugContext(ctx, "result", slog.String("result", mustJSON(result)))
}

func (loggingHook) OnError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "agent error", slog.String("error", err.Error()))
}
