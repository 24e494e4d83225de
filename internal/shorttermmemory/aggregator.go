// Package shorttermmemory manages the runtime state of a conversation:
// message aggregation, forking and joining of turns, checkpointing, and
// token-usage tracking.
package shorttermmemory

import (
	"iter"
	"slices"

	"github.com/google/uuid"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/pkg/uuidx"
)

// AggregatedMessages is an ordered collection of type-erased messages.
type AggregatedMessages []messages.Message[messages.ModelMessage]

// Len returns the number of messages in the collection.
func (a AggregatedMessages) Len() int {
	return len(a)
}

// New creates an empty aggregator with a fresh identity.
func New() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: make(AggregatedMessages, 0),
	}
}

// Aggregator holds the messages of a conversation thread together with usage
// statistics. It supports fork/join so a turn can be processed on a copy and
// merged back once it completes.
type Aggregator struct {
	id       uuid.UUID
	messages AggregatedMessages
	initLen  int // length at fork time, used for joining
	usage    Usage
}

// ID returns the unique identifier of this aggregator.
func (a *Aggregator) ID() uuid.UUID {
	return a.id
}

// Len returns the total number of messages held by the aggregator.
func (a *Aggregator) Len() int {
	return a.messages.Len()
}

// TurnLen returns the number of messages added since the aggregator was
// forked.
func (a *Aggregator) TurnLen() int {
	return len(a.messages) - a.initLen
}

// Messages returns a copy of all messages.
func (a *Aggregator) Messages() AggregatedMessages {
	return slices.Clone(a.messages)
}

// MessagesIter returns an iterator over all messages without copying.
func (a *Aggregator) MessagesIter() iter.Seq[messages.Message[messages.ModelMessage]] {
	return slices.Values(a.messages)
}

func eraseType[T messages.ModelMessage](m messages.Message[T]) messages.Message[messages.ModelMessage] {
	return messages.Message[messages.ModelMessage]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   m.Payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Meta:      m.Meta,
	}
}

// AddMessage adds any message type that implements ModelMessage.
func AddMessage[T messages.ModelMessage](a *Aggregator, m messages.Message[T]) {
	a.add(eraseType(m))
}

// AddUserPrompt adds a user message.
func (a *Aggregator) AddUserPrompt(m messages.Message[messages.UserMessage]) {
	a.add(eraseType(m))
}

// AddAssistantMessage adds an assistant response.
func (a *Aggregator) AddAssistantMessage(m messages.Message[messages.AssistantMessage]) {
	a.add(eraseType(m))
}

// AddToolCall adds a tool-call message.
func (a *Aggregator) AddToolCall(m messages.Message[messages.ToolCallMessage]) {
	a.add(eraseType(m))
}

// AddToolResponse adds a tool-response message.
func (a *Aggregator) AddToolResponse(m messages.Message[messages.ToolResponse]) {
	a.add(eraseType(m))
}

func (a *Aggregator) add(m messages.Message[messages.ModelMessage]) {
	a.messages = append(a.messages, m)
}

// Usage returns the accumulated usage statistics.
func (a *Aggregator) Usage() Usage {
	return a.usage
}

// AddUsage merges usage statistics into the aggregator.
func (a *Aggregator) AddUsage(u *Usage) {
	a.usage.Add(u)
}

// Fork creates a new aggregator seeded with a copy of the current messages.
// The fork records the current length so Join can append only messages added
// after the fork.
func (a *Aggregator) Fork() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: slices.Clone(a.messages),
		initLen:  a.Len(),
	}
}

// Join appends the messages b accumulated after it was forked and merges its
// usage statistics.
func (a *Aggregator) Join(b *Aggregator) {
	a.messages = append(a.messages, b.messages[b.initLen:]...)
	a.usage.Add(&b.usage)
}

// Checkpoint captures a snapshot of the aggregator state that can later be
// merged into another aggregator.
func (a *Aggregator) Checkpoint() Checkpoint {
	return Checkpoint{
		ID:       a.id,
		Messages: slices.Clone(a.messages),
		Usage:    a.usage,
		initLen:  a.initLen,
	}
}

// Checkpoint is a point-in-time snapshot of an aggregator.
type Checkpoint struct {
	ID       uuid.UUID          `json:"id"`
	Messages AggregatedMessages `json:"messages"`
	Usage    Usage              `json:"usage"`
	initLen  int
}

// MergeInto applies the checkpoint's post-fork messages and usage to the
// target aggregator. A checkpoint taken from the target's own fork merges
// cleanly; unrelated checkpoints append all their messages.
func (c Checkpoint) MergeInto(target *Aggregator) {
	if c.ID == target.ID() {
		return
	}
	start := c.initLen
	if start > len(c.Messages) {
		start = len(c.Messages)
	}
	target.messages = append(target.messages, c.Messages[start:]...)
	target.usage.Add(&c.Usage)
}
