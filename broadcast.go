package strix

import (
	"context"

	"github.com/strixlabs/strix/events"
	"github.com/strixlabs/strix/internal/broker"
	"github.com/strixlabs/strix/messages"
)

// broadcastHook republishes hook callbacks as events on a broker topic. It
// stands in for the user's hook when a broker is configured, the user's hook
// receives the events through its topic subscription instead.
type broadcastHook struct {
	topic broker.Topic
}

func (b *broadcastHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	_ = b.topic.Publish(ctx, events.Request[messages.UserMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Message:   msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (b *broadcastHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	_ = b.topic.Publish(ctx, events.Chunk[messages.AssistantMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Chunk:     msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (b *broadcastHook) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	_ = b.topic.Publish(ctx, events.Chunk[messages.ToolCallMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Chunk:     msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (b *broadcastHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	_ = b.topic.Publish(ctx, events.Response[messages.AssistantMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Response:  msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (b *broadcastHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	_ = b.topic.Publish(ctx, events.Response[messages.ToolCallMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Response:  msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (b *broadcastHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	_ = b.topic.Publish(ctx, events.Request[messages.ToolResponse]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Message:   msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (b *broadcastHook) OnResult(ctx context.Context, result any) {
	_ = b.topic.Publish(ctx, events.Result[any]{Result: result})
}

func (b *broadcastHook) OnError(ctx context.Context, err error) {
	if ee, ok := err.(events.Error); ok { //nolint: errorlint
		_ = b.topic.Publish(ctx, ee)
		return
	}
	_ = b.topic.Publish(ctx, events.Error{Err: err})
}
