package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strixlabs/strix/events"
	"github.com/strixlabs/strix/messages"
)

type recordingHook struct {
	events.NoopHook

	mu         sync.Mutex
	prompts    []messages.Message[messages.UserMessage]
	assistants []messages.Message[messages.AssistantMessage]
	results    []any
	errs       []error
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

func (r *recordingHook) OnResult(_ context.Context, result any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recordingHook) OnError(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingHook) snapshot() (int, int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prompts), len(r.assistants), len(r.results), len(r.errs)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestLocalBroker_PublishSubscribe(t *testing.T) {
	ctx := context.Background()
	b := Local()
	top := b.Topic(ctx, "run-1")

	hook := &recordingHook{}
	sub, err := top.Subscribe(ctx, hook)
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID())
	defer sub.Unsubscribe()

	runID := uuid.New()
	turnID := uuid.New()

	require.NoError(t, top.Publish(ctx, events.Request[messages.UserMessage]{
		RunID:   runID,
		TurnID:  turnID,
		Message: messages.UserMessage{Content: messages.ContentOrParts{Content: "hello"}},
		Sender:  "user",
	}))
	require.NoError(t, top.Publish(ctx, events.Response[messages.AssistantMessage]{
		RunID:    runID,
		TurnID:   turnID,
		Response: messages.AssistantMessage{Content: "hi"},
		Sender:   "agent",
	}))
	require.NoError(t, top.Publish(ctx, events.Result[any]{
		RunID:  runID,
		TurnID: turnID,
		Result: "done",
	}))
	require.NoError(t, top.Publish(ctx, events.Error{
		RunID:  runID,
		TurnID: turnID,
		Err:    errors.New("boom"),
	}))

	waitFor(t, func() bool {
		p, a, r, e := hook.snapshot()
		return p == 1 && a == 1 && r == 1 && e == 1
	})

	hook.mu.Lock()
	defer hook.mu.Unlock()
	assert.Equal(t, "hello", hook.prompts[0].Payload.Content.Content)
	assert.Equal(t, "user", hook.prompts[0].Sender)
	assert.Equal(t, "hi", hook.assistants[0].Payload.Content)
	assert.Equal(t, "done", hook.results[0])
	assert.EqualError(t, hook.errs[0], "boom")
}

func TestLocalBroker_DelimNotForwarded(t *testing.T) {
	ctx := context.Background()
	top := Local().Topic(ctx, "run-2")

	hook := &recordingHook{}
	sub, err := top.Subscribe(ctx, hook)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, top.Publish(ctx, events.Delim{Delim: "start"}))
	require.NoError(t, top.Publish(ctx, events.Result[any]{Result: "sentinel"}))

	waitFor(t, func() bool {
		_, _, r, _ := hook.snapshot()
		return r == 1
	})
	p, a, _, e := hook.snapshot()
	assert.Zero(t, p)
	assert.Zero(t, a)
	assert.Zero(t, e)
}

func TestLocalBroker_MultipleSubscribers(t *testing.T) {
	ctx := context.Background()
	top := Local().Topic(ctx, "run-3")

	hook1 := &recordingHook{}
	hook2 := &recordingHook{}
	sub1, err := top.Subscribe(ctx, hook1)
	require.NoError(t, err)
	defer sub1.Unsubscribe()
	sub2, err := top.Subscribe(ctx, hook2)
	require.NoError(t, err)
	defer sub2.Unsubscribe()

	require.NoError(t, top.Publish(ctx, events.Result[any]{Result: 42}))

	waitFor(t, func() bool {
		_, _, r1, _ := hook1.snapshot()
		_, _, r2, _ := hook2.snapshot()
		return r1 == 1 && r2 == 1
	})
}

func TestLocalBroker_SubscribeRequiresHook(t *testing.T) {
	top := Local().Topic(context.Background(), "run-4")
	_, err := top.Subscribe(context.Background(), nil)
	require.Error(t, err)
}

func TestLocalBroker_UnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	top := Local().Topic(ctx, "run-5")

	hook := &recordingHook{}
	sub, err := top.Subscribe(ctx, hook)
	require.NoError(t, err)

	require.NoError(t, top.Publish(ctx, events.Result[any]{Result: "before"}))
	waitFor(t, func() bool {
		_, _, r, _ := hook.snapshot()
		return r == 1
	})

	sub.Unsubscribe()
	require.NoError(t, top.Publish(ctx, events.Result[any]{Result: "after"}))

	time.Sleep(50 * time.Millisecond)
	_, _, r, _ := hook.snapshot()
	assert.Equal(t, 1, r)
}

func TestLocalBroker_TopicIdentity(t *testing.T) {
	ctx := context.Background()
	b := Local()
	assert.Same(t, b.Topic(ctx, "same"), b.Topic(ctx, "same"))
	assert.NotSame(t, b.Topic(ctx, "same"), b.Topic(ctx, "other"))
}
