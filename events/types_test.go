package events

import (
	"errors"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/provider"
)

func TestDelimJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	delim := Delim{
		RunID:  runID,
		TurnID: turnID,
		Delim:  "test",
	}

	t.Run("marshal", func(t *testing.T) {
		data, err := delim.MarshalJSON()
		require.NoError(t, err)

		result := gjson.ParseBytes(data)
		assert.Equal(t, "delim", result.Get("type").String())
		assert.Equal(t, runID.String(), result.Get("run_id").String())
		assert.Equal(t, turnID.String(), result.Get("turn_id").String())
		assert.Equal(t, "test", result.Get("delim").String())
	})

	t.Run("unmarshal", func(t *testing.T) {
		input := []byte(`{
			"type": "delim",
			"run_id": "` + runID.String() + `",
			"turn_id": "` + turnID.String() + `",
			"delim": "test"
		}`)

		var d Delim
		err := d.UnmarshalJSON(input)
		require.NoError(t, err)
		assert.Equal(t, delim, d)
	})

	t.Run("unmarshal errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{name: "invalid json", input: "invalid"},
			{name: "missing type", input: `{"run_id": "` + runID.String() + `"}`},
			{name: "wrong type", input: `{"type": "wrong", "run_id": "` + runID.String() + `"}`},
			{name: "missing run_id", input: `{"type": "delim"}`},
			{name: "invalid run_id", input: `{"type": "delim", "run_id": "invalid"}`},
			{name: "missing turn_id", input: `{"type": "delim", "run_id": "` + runID.String() + `"}`},
			{name: "missing delim", input: `{"type": "delim", "run_id": "` + runID.String() + `", "turn_id": "` + turnID.String() + `"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var d Delim
				assert.Error(t, d.UnmarshalJSON([]byte(tt.input)))
			})
		}
	})
}

func TestChunkJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))
	meta := gjson.Parse(`{"key":"value"}`)

	msg := messages.New().AssistantMessage("test")
	chunk := Chunk[messages.AssistantMessage]{
		RunID:     runID,
		TurnID:    turnID,
		Chunk:     msg.Payload,
		Sender:    "test",
		Timestamp: timestamp,
		Meta:      meta,
	}

	t.Run("marshal", func(t *testing.T) {
		data, err := chunk.MarshalJSON()
		require.NoError(t, err)

		result := gjson.ParseBytes(data)
		assert.Equal(t, "chunk", result.Get("type").String())
		assert.Equal(t, runID.String(), result.Get("run_id").String())
		assert.Equal(t, turnID.String(), result.Get("turn_id").String())
		assert.True(t, result.Get("chunk").Exists())
		assert.Equal(t, "test", result.Get("sender").String())
		assert.Equal(t, timestamp.String(), result.Get("timestamp").String())
		assert.Equal(t, "value", result.Get("meta.key").String())
	})

	t.Run("unmarshal", func(t *testing.T) {
		input := []byte(`{
			"type": "chunk",
			"run_id": "` + runID.String() + `",
			"turn_id": "` + turnID.String() + `",
			"chunk": {"content": "test"},
			"sender": "test",
			"timestamp": "` + timestamp.String() + `",
			"meta": {"key":"value"}
		}`)

		var c Chunk[messages.AssistantMessage]
		err := c.UnmarshalJSON(input)
		require.NoError(t, err)
		assert.Equal(t, chunk.RunID, c.RunID)
		assert.Equal(t, chunk.TurnID, c.TurnID)
		assert.Equal(t, chunk.Chunk.Content, c.Chunk.Content)
		assert.Equal(t, chunk.Sender, c.Sender)
		assert.Equal(t, chunk.Timestamp, c.Timestamp)
		assert.Equal(t, chunk.Meta.Raw, c.Meta.Raw)
	})

	t.Run("unmarshal errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{name: "invalid json", input: "invalid"},
			{name: "wrong type", input: `{"type": "wrong", "run_id": "` + runID.String() + `"}`},
			{name: "missing run_id", input: `{"type": "chunk"}`},
			{name: "missing chunk", input: `{"type": "chunk", "run_id": "` + runID.String() + `", "turn_id": "` + turnID.String() + `"}`},
			{name: "invalid timestamp", input: `{"type": "chunk", "run_id": "` + runID.String() + `", "turn_id": "` + turnID.String() + `", "chunk": {}, "timestamp": "invalid"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var c Chunk[messages.AssistantMessage]
				assert.Error(t, c.UnmarshalJSON([]byte(tt.input)))
			})
		}
	})
}

func TestRequestJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))

	msg := messages.New().UserPrompt("test")
	request := Request[messages.UserMessage]{
		RunID:     runID,
		TurnID:    turnID,
		Message:   msg.Payload,
		Sender:    "test",
		Timestamp: timestamp,
	}

	data, err := request.MarshalJSON()
	require.NoError(t, err)

	result := gjson.ParseBytes(data)
	assert.Equal(t, "request", result.Get("type").String())
	assert.True(t, result.Get("message").Exists())

	var decoded Request[messages.UserMessage]
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, request.RunID, decoded.RunID)
	assert.Equal(t, "test", decoded.Message.Content.Content)
	assert.Equal(t, request.Sender, decoded.Sender)
}

func TestResponseJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()

	response := Response[messages.ToolCallMessage]{
		RunID:    runID,
		TurnID:   turnID,
		Response: messages.New().ToolCall(messages.ToolCallData{ID: "c1", Name: "test", Arguments: "{}"}).Payload,
		Sender:   "agent",
	}

	data, err := response.MarshalJSON()
	require.NoError(t, err)

	var decoded Response[messages.ToolCallMessage]
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, response.RunID, decoded.RunID)
	require.Len(t, decoded.Response.ToolCalls, 1)
	assert.Equal(t, "test", decoded.Response.ToolCalls[0].Name)
}

func TestResultJSON(t *testing.T) {
	result := Result[any]{
		RunID:  uuid.New(),
		TurnID: uuid.New(),
		Result: "final answer",
		Sender: "agent",
	}

	data, err := result.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "result", gjson.GetBytes(data, "type").String())

	var decoded Result[any]
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, "final answer", decoded.Result)
}

func TestErrorJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	testErr := errors.New("test error")

	errEvent := Error{
		RunID:  runID,
		TurnID: turnID,
		Err:    testErr,
		Sender: "test",
	}

	t.Run("marshal and unmarshal", func(t *testing.T) {
		data, err := errEvent.MarshalJSON()
		require.NoError(t, err)

		result := gjson.ParseBytes(data)
		assert.Equal(t, "error", result.Get("type").String())
		assert.Equal(t, testErr.Error(), result.Get("error").String())

		var e Error
		require.NoError(t, e.UnmarshalJSON(data))
		assert.Equal(t, errEvent.RunID, e.RunID)
		assert.EqualError(t, e.Err, "test error")
		assert.Equal(t, "test", e.Sender)
	})

	t.Run("Error() method", func(t *testing.T) {
		errStr := errEvent.Error()
		assert.Contains(t, errStr, testErr.Error())
		assert.Contains(t, errStr, runID.String())
		assert.Contains(t, errStr, turnID.String())
	})

	t.Run("missing error field", func(t *testing.T) {
		var e Error
		input := `{"type": "error", "run_id": "` + runID.String() + `", "turn_id": "` + turnID.String() + `"}`
		assert.Error(t, e.UnmarshalJSON([]byte(input)))
	})
}

func TestEventSerialization_RoundTrip(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))

	tests := []struct {
		name  string
		event Event
	}{
		{
			name:  "Delim",
			event: Delim{RunID: runID, TurnID: turnID, Delim: "test"},
		},
		{
			name: "Chunk AssistantMessage",
			event: Chunk[messages.AssistantMessage]{
				RunID: runID, TurnID: turnID,
				Chunk:     messages.New().AssistantMessage("test").Payload,
				Sender:    "test",
				Timestamp: timestamp,
			},
		},
		{
			name: "Chunk ToolCallMessage",
			event: Chunk[messages.ToolCallMessage]{
				RunID: runID, TurnID: turnID,
				Chunk:  messages.New().ToolCall(messages.ToolCallData{Name: "test", Arguments: "{}"}).Payload,
				Sender: "test",
			},
		},
		{
			name: "Request UserMessage",
			event: Request[messages.UserMessage]{
				RunID: runID, TurnID: turnID,
				Message: messages.New().UserPrompt("test").Payload,
				Sender:  "test",
			},
		},
		{
			name: "Request ToolResponse",
			event: Request[messages.ToolResponse]{
				RunID: runID, TurnID: turnID,
				Message: messages.New().ToolResponse("test12", "test", "{}").Payload,
				Sender:  "test",
			},
		},
		{
			name: "Response AssistantMessage",
			event: Response[messages.AssistantMessage]{
				RunID: runID, TurnID: turnID,
				Response: messages.New().AssistantMessage("test").Payload,
				Sender:   "test",
			},
		},
		{
			name: "Response ToolCallMessage",
			event: Response[messages.ToolCallMessage]{
				RunID: runID, TurnID: turnID,
				Response: messages.New().ToolCall(messages.ToolCallData{Name: "test", Arguments: "{}"}).Payload,
				Sender:   "test",
			},
		},
		{
			name:  "Result",
			event: Result[any]{RunID: runID, TurnID: turnID, Result: "done", Sender: "test"},
		},
		{
			name:  "Error",
			event: Error{RunID: runID, TurnID: turnID, Err: errors.New("test error"), Sender: "test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ToJSON(tt.event)
			require.NoError(t, err)
			assert.NotNil(t, data)

			event, err := FromJSON(data)
			require.NoError(t, err)
			assert.IsType(t, tt.event, event)
		})
	}
}

func TestFromJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "invalid json", input: "invalid"},
		{name: "missing type", input: `{"run_id": "` + uuid.NewString() + `"}`},
		{name: "unknown type", input: `{"type": "unknown"}`},
		{name: "chunk without ids", input: `{"type": "chunk", "chunk": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestFromStreamEvent(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()

	t.Run("delim", func(t *testing.T) {
		event := FromStreamEvent(provider.Delim{RunID: runID, TurnID: turnID, Delim: "start"}, "agent")
		d, ok := event.(Delim)
		require.True(t, ok)
		assert.Equal(t, "start", d.Delim)
	})

	t.Run("assistant chunk", func(t *testing.T) {
		event := FromStreamEvent(provider.Chunk[messages.AssistantMessage]{
			RunID:  runID,
			TurnID: turnID,
			Chunk:  messages.AssistantMessage{Content: "hi"},
		}, "agent")
		c, ok := event.(Chunk[messages.AssistantMessage])
		require.True(t, ok)
		assert.Equal(t, "agent", c.Sender)
		assert.Equal(t, "hi", c.Chunk.Content)
	})

	t.Run("tool call response", func(t *testing.T) {
		event := FromStreamEvent(provider.Response[messages.ToolCallMessage]{
			RunID:    runID,
			TurnID:   turnID,
			Response: messages.ToolCallMessage{ToolCalls: []messages.ToolCallData{{Name: "fn"}}},
		}, "agent")
		r, ok := event.(Response[messages.ToolCallMessage])
		require.True(t, ok)
		assert.Equal(t, "agent", r.Sender)
		require.Len(t, r.Response.ToolCalls, 1)
	})

	t.Run("error", func(t *testing.T) {
		event := FromStreamEvent(provider.Error{
			RunID:  runID,
			TurnID: turnID,
			Err:    errors.New("boom"),
		}, "agent")
		e, ok := event.(Error)
		require.True(t, ok)
		assert.EqualError(t, e.Err, "boom")
	})
}
