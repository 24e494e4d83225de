package strix

import (
	"context"

	"github.com/strixlabs/strix/events"
	"github.com/strixlabs/strix/internal/executor"
	"github.com/strixlabs/strix/messages"
)

// Hook observes a workflow run. It mirrors events.Hook but delivers the final
// result with its concrete type, and adds a close notification when the run
// finishes. All methods must be implemented, embed a noop implementation to
// opt out of individual callbacks.
type Hook[T any] interface {
	OnUserPrompt(context.Context, messages.Message[messages.UserMessage])

	OnAssistantChunk(context.Context, messages.Message[messages.AssistantMessage])

	OnToolCallChunk(context.Context, messages.Message[messages.ToolCallMessage])

	OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage])

	OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage])

	OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse])

	OnResult(context.Context, T)

	OnError(context.Context, error)

	OnClose(context.Context)
}

// NoopHook is an embeddable Hook[T] implementation with empty callbacks.
type NoopHook[T any] struct{}

func (NoopHook[T]) OnUserPrompt(context.Context, messages.Message[messages.UserMessage]) {}
func (NoopHook[T]) OnAssistantChunk(context.Context, messages.Message[messages.AssistantMessage]) {
}
func (NoopHook[T]) OnToolCallChunk(context.Context, messages.Message[messages.ToolCallMessage]) {}
func (NoopHook[T]) OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage]) {
}
func (NoopHook[T]) OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage]) {}
func (NoopHook[T]) OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse])   {}
func (NoopHook[T]) OnResult(context.Context, T)                                                   {}
func (NoopHook[T]) OnError(context.Context, error)                                                {}
func (NoopHook[T]) OnClose(context.Context)                                                       {}

// eventsHook adapts a typed Hook[T] to the untyped events.Hook consumed by
// the executor and broker. Untyped results are asserted back to T, falling
// back to the default unmarshaler when the result arrives as raw text.
type eventsHook[T any] struct {
	hook Hook[T]
}

var _ events.Hook = (*eventsHook[string])(nil)

func asEventsHook[T any](hook Hook[T]) events.Hook {
	return &eventsHook[T]{hook: hook}
}

func (h *eventsHook[T]) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	h.hook.OnUserPrompt(ctx, msg)
}

func (h *eventsHook[T]) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.hook.OnAssistantChunk(ctx, msg)
}

func (h *eventsHook[T]) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	h.hook.OnToolCallChunk(ctx, msg)
}

func (h *eventsHook[T]) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.hook.OnAssistantMessage(ctx, msg)
}

func (h *eventsHook[T]) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	h.hook.OnToolCallMessage(ctx, msg)
}

func (h *eventsHook[T]) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	h.hook.OnToolCallResponse(ctx, msg)
}

func (h *eventsHook[T]) OnResult(ctx context.Context, result any) {
	if v, ok := result.(T); ok {
		h.hook.OnResult(ctx, v)
		return
	}
	if s, ok := result.(string); ok {
		if v, err := executor.DefaultUnmarshal[T]()([]byte(s)); err == nil {
			h.hook.OnResult(ctx, v)
		}
	}
}

func (h *eventsHook[T]) OnError(ctx context.Context, err error) {
	h.hook.OnError(ctx, err)
}
