package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ModelMessage is the union of all message payload types.
type ModelMessage interface {
	modelMessage()
}

// Request marks payloads that flow towards the model (user input and tool
// results).
type Request interface {
	ModelMessage
	request()
}

// Response marks payloads produced by the model (assistant text and tool
// calls).
type Response interface {
	ModelMessage
	response()
}

// Message is the envelope around a concrete payload. RunID identifies the
// overall run, TurnID the conversation turn that produced the payload.
type Message[T ModelMessage] struct {
	RunID     uuid.UUID       `json:"run_id,omitempty"`
	TurnID    uuid.UUID       `json:"turn_id,omitempty"`
	Payload   T               `json:"payload"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

// UserMessage is a prompt from the user, either plain text or multi-part.
type UserMessage struct {
	Content ContentOrParts `json:"content"`
}

func (UserMessage) modelMessage() {}
func (UserMessage) request()      {}

// AssistantMessage is a text response from the model. Refusal is set when the
// model declines to answer.
type AssistantMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}

func (AssistantMessage) modelMessage() {}
func (AssistantMessage) response()     {}

// ToolCallData describes a single function invocation requested by the model.
// Arguments is the raw JSON argument payload as produced by the provider.
type ToolCallData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCallMessage is a model response requesting one or more tool
// invocations.
type ToolCallMessage struct {
	ToolCalls []ToolCallData `json:"tool_calls"`
}

func (ToolCallMessage) modelMessage() {}
func (ToolCallMessage) response()     {}

// ToolResponse carries the result of executing a tool back to the model.
type ToolResponse struct {
	ToolName   string `json:"tool_name"`
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

func (ToolResponse) modelMessage() {}
func (ToolResponse) request()      {}

// TextContent extracts the displayable text of a payload. Tool calls and tool
// responses yield their raw content; unknown payloads yield an empty string.
func TextContent(m ModelMessage) string {
	switch msg := m.(type) {
	case AssistantMessage:
		if msg.Refusal != "" {
			return msg.Refusal
		}
		return msg.Content
	case UserMessage:
		return msg.Content.Text()
	case ToolResponse:
		return msg.Content
	default:
		return ""
	}
}

// HasToolUse reports whether the payload requests tool execution.
func HasToolUse(m ModelMessage) bool {
	tc, ok := m.(ToolCallMessage)
	return ok && len(tc.ToolCalls) > 0
}

// Builder constructs message envelopes with consistent timestamps.
type Builder struct {
	sender string
}

// New returns a message builder.
func New() Builder {
	return Builder{}
}

// WithSender returns a builder that stamps messages with the given sender.
func (b Builder) WithSender(sender string) Builder {
	b.sender = sender
	return b
}

func (b Builder) now() strfmt.DateTime {
	return strfmt.DateTime(time.Now())
}

// UserPrompt builds a plain-text user message.
func (b Builder) UserPrompt(content string) Message[UserMessage] {
	return Message[UserMessage]{
		Payload:   UserMessage{Content: ContentOrParts{Content: content}},
		Sender:    b.sender,
		Timestamp: b.now(),
	}
}

// UserPromptParts builds a multi-part user message.
func (b Builder) UserPromptParts(parts ...ContentPart) Message[UserMessage] {
	return Message[UserMessage]{
		Payload:   UserMessage{Content: ContentOrParts{Parts: parts}},
		Sender:    b.sender,
		Timestamp: b.now(),
	}
}

// AssistantMessage builds a plain-text assistant message.
func (b Builder) AssistantMessage(content string) Message[AssistantMessage] {
	return Message[AssistantMessage]{
		Payload:   AssistantMessage{Content: content},
		Sender:    b.sender,
		Timestamp: b.now(),
	}
}

// ToolCall builds a tool-call message.
func (b Builder) ToolCall(calls ...ToolCallData) Message[ToolCallMessage] {
	return Message[ToolCallMessage]{
		Payload:   ToolCallMessage{ToolCalls: calls},
		Sender:    b.sender,
		Timestamp: b.now(),
	}
}

// ToolResponse builds a tool-response message for the given call.
func (b Builder) ToolResponse(callID, toolName, content string) Message[ToolResponse] {
	return Message[ToolResponse]{
		Payload: ToolResponse{
			ToolCallID: callID,
			ToolName:   toolName,
			Content:    content,
		},
		Sender:    b.sender,
		Timestamp: b.now(),
	}
}
