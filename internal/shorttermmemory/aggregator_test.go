package shorttermmemory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strixlabs/strix/messages"
)

func TestAggregatorAdd(t *testing.T) {
	agg := New()
	require.NotEqual(t, agg.ID().String(), "")

	agg.AddUserPrompt(messages.New().UserPrompt("hello"))
	agg.AddAssistantMessage(messages.New().AssistantMessage("hi there"))

	assert.Equal(t, 2, agg.Len())

	msgs := agg.Messages()
	require.Len(t, msgs, 2)
	assert.IsType(t, messages.UserMessage{}, msgs[0].Payload)
	assert.IsType(t, messages.AssistantMessage{}, msgs[1].Payload)
}

func TestForkJoin(t *testing.T) {
	original := New()
	original.AddUserPrompt(messages.New().UserPrompt("one"))
	original.AddUserPrompt(messages.New().UserPrompt("two"))

	forked := original.Fork()
	assert.Equal(t, 2, forked.Len())
	assert.Equal(t, 0, forked.TurnLen())
	assert.NotEqual(t, original.ID(), forked.ID())

	original.AddUserPrompt(messages.New().UserPrompt("three"))
	forked.AddAssistantMessage(messages.New().AssistantMessage("four"))
	assert.Equal(t, 1, forked.TurnLen())

	original.Join(forked)
	require.Equal(t, 4, original.Len())
	last := original.Messages()[3]
	assert.Equal(t, "four", messages.TextContent(last.Payload))
}

func TestJoinMergesUsage(t *testing.T) {
	original := New()
	forked := original.Fork()
	forked.AddUsage(&Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})

	original.Join(forked)
	assert.Equal(t, int64(10), original.Usage().PromptTokens)
	assert.Equal(t, int64(15), original.Usage().TotalTokens)
}

func TestCheckpointMergeInto(t *testing.T) {
	original := New()
	original.AddUserPrompt(messages.New().UserPrompt("q"))

	forked := original.Fork()
	forked.AddAssistantMessage(messages.New().AssistantMessage("a"))
	forked.AddUsage(&Usage{TotalTokens: 7})

	cp := forked.Checkpoint()
	cp.MergeInto(original)

	require.Equal(t, 2, original.Len())
	assert.Equal(t, int64(7), original.Usage().TotalTokens)

	// merging a checkpoint into its own source is a no-op
	selfCp := forked.Checkpoint()
	before := forked.Len()
	selfCp.MergeInto(forked)
	assert.Equal(t, before, forked.Len())
}

func TestUsageAdd(t *testing.T) {
	u := Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	u.Add(&Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30, CachedPromptTokens: 4, ReasoningTokens: 5})

	assert.Equal(t, Usage{
		PromptTokens:       11,
		CompletionTokens:   22,
		TotalTokens:        33,
		CachedPromptTokens: 4,
		ReasoningTokens:    5,
	}, u)

	u.Add(nil)
	assert.Equal(t, int64(11), u.PromptTokens)
	assert.False(t, u.IsZero())
	assert.True(t, Usage{}.IsZero())
}
