package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/strixlabs/strix/messages"
)

func TestDelim_JSON(t *testing.T) {
	orig := Delim{
		RunID:  uuid.New(),
		TurnID: uuid.New(),
		Delim:  "start",
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.Equal(t, "delim", gjson.GetBytes(data, "type").String())

	var decoded Delim
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
}

func TestDelim_Unmarshal_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"wrong type", `{"type":"chunk","run_id":"x","turn_id":"y","delim":"start"}`},
		{"missing run_id", `{"type":"delim","turn_id":"y","delim":"start"}`},
		{"missing delim", `{"type":"delim","run_id":"` + uuid.NewString() + `","turn_id":"` + uuid.NewString() + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Delim
			assert.Error(t, json.Unmarshal([]byte(tt.data), &d))
		})
	}
}

func TestChunk_JSON(t *testing.T) {
	orig := Chunk[messages.AssistantMessage]{
		RunID:     uuid.New(),
		TurnID:    uuid.New(),
		Chunk:     messages.AssistantMessage{Content: "partial"},
		Timestamp: strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.Equal(t, "chunk", gjson.GetBytes(data, "type").String())

	var decoded Chunk[messages.AssistantMessage]
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig.RunID, decoded.RunID)
	assert.Equal(t, orig.TurnID, decoded.TurnID)
	assert.Equal(t, orig.Chunk.Content, decoded.Chunk.Content)
	assert.Equal(t, orig.Timestamp.String(), decoded.Timestamp.String())
}

func TestChunk_ToolCalls_JSON(t *testing.T) {
	orig := Chunk[messages.ToolCallMessage]{
		RunID:  uuid.New(),
		TurnID: uuid.New(),
		Chunk: messages.ToolCallMessage{
			ToolCalls: []messages.ToolCallData{
				{ID: "tool1", Name: "lookup", Arguments: `{"q":"go"}`},
			},
		},
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded Chunk[messages.ToolCallMessage]
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Chunk.ToolCalls, 1)
	assert.Equal(t, "lookup", decoded.Chunk.ToolCalls[0].Name)
}

func TestResponse_JSON(t *testing.T) {
	orig := Response[messages.AssistantMessage]{
		RunID:     uuid.New(),
		TurnID:    uuid.New(),
		Response:  messages.AssistantMessage{Content: "done"},
		Timestamp: strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.Equal(t, "response", gjson.GetBytes(data, "type").String())
	assert.True(t, gjson.GetBytes(data, "checkpoint").Exists())

	var decoded Response[messages.AssistantMessage]
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig.RunID, decoded.RunID)
	assert.Equal(t, orig.Response.Content, decoded.Response.Content)
}

func TestResponse_Unmarshal_MissingFields(t *testing.T) {
	var r Response[messages.AssistantMessage]
	data := `{"type":"response","run_id":"` + uuid.NewString() + `","turn_id":"` + uuid.NewString() + `"}`
	err := json.Unmarshal([]byte(data), &r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint")
}

func TestError_JSON(t *testing.T) {
	orig := Error{
		RunID:     uuid.New(),
		TurnID:    uuid.New(),
		Err:       errors.New("rate limited"),
		Timestamp: strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.Equal(t, "error", gjson.GetBytes(data, "type").String())
	assert.Equal(t, "rate limited", gjson.GetBytes(data, "error").String())

	var decoded Error
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig.RunID, decoded.RunID)
	assert.EqualError(t, decoded.Err, "rate limited")
}

func TestError_Error(t *testing.T) {
	e := Error{
		RunID:  uuid.New(),
		TurnID: uuid.New(),
		Err:    errors.New("boom"),
	}
	assert.Contains(t, e.Error(), "boom")
	assert.Contains(t, e.Error(), e.RunID.String())
}

func TestChunkToMessage(t *testing.T) {
	src := Chunk[messages.AssistantMessage]{
		RunID:     uuid.New(),
		TurnID:    uuid.New(),
		Chunk:     messages.AssistantMessage{Content: "hi"},
		Timestamp: strfmt.DateTime(time.Now()),
	}

	var dst messages.Message[messages.AssistantMessage]
	ChunkToMessage(&dst, src)

	assert.Equal(t, src.RunID, dst.RunID)
	assert.Equal(t, src.TurnID, dst.TurnID)
	assert.Equal(t, "hi", dst.Payload.Content)
}

func TestResponseToMessage(t *testing.T) {
	src := Response[messages.ToolCallMessage]{
		RunID:  uuid.New(),
		TurnID: uuid.New(),
		Response: messages.ToolCallMessage{
			ToolCalls: []messages.ToolCallData{{ID: "t1", Name: "fn", Arguments: "{}"}},
		},
	}

	var dst messages.Message[messages.ToolCallMessage]
	ResponseToMessage(&dst, src)

	assert.Equal(t, src.RunID, dst.RunID)
	require.Len(t, dst.Payload.ToolCalls, 1)
	assert.Equal(t, "fn", dst.Payload.ToolCalls[0].Name)
}

func TestChunkToMessage_TypeMismatch_Panics(t *testing.T) {
	src := Chunk[messages.AssistantMessage]{
		RunID:  uuid.New(),
		TurnID: uuid.New(),
		Chunk:  messages.AssistantMessage{Content: "hi"},
	}

	var dst messages.Message[messages.ToolCallMessage]
	assert.Panics(t, func() {
		ChunkToMessage(&dst, src)
	})
}
