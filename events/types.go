package events

import (
	"errors"
	"fmt"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/provider"
)

var (
	delimJSON    = []byte(`{"type":"delim"}`)
	chunkJSON    = []byte(`{"type":"chunk"}`)
	requestJSON  = []byte(`{"type":"request"}`)
	responseJSON = []byte(`{"type":"response"}`)
	resultJSON   = []byte(`{"type":"result"}`)
	errorJSON    = []byte(`{"type":"error"}`)
)

// Event is the union of pub/sub event types.
type Event interface {
	event()
}

// Delim marks stream boundaries.
type Delim struct {
	RunID  uuid.UUID `json:"run_id"`
	TurnID uuid.UUID `json:"turn_id"`
	Delim  string    `json:"delim"`
}

func (Delim) event() {}

// Chunk is an incremental fragment of a streamed response.
type Chunk[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Chunk     T               `json:"chunk"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Chunk[T]) event() {}

// Request is input flowing towards a model: a user prompt or a tool result.
type Request[T messages.Request] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Message   T               `json:"message"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Request[T]) event() {}

// Response is a complete model response.
type Response[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Response  T               `json:"response"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Response[T]) event() {}

// Result is the final outcome of a run.
type Result[T any] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Result    T               `json:"result"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Result[T]) event() {}

// Error is a failure with its execution context preserved.
type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Err       error           `json:"error"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Error) event() {}

func (e Error) Error() string {
	return fmt.Sprintf("run_id: %s, turn_id: %s, sender: %s, error: %v", e.RunID, e.TurnID, e.Sender, e.Err)
}

// FromStreamEvent lifts a provider stream event into a pub/sub event,
// attaching the sender.
func FromStreamEvent(event provider.StreamEvent, sender string) Event {
	switch event := event.(type) {
	case provider.Delim:
		return Delim{RunID: event.RunID, TurnID: event.TurnID, Delim: event.Delim}
	case provider.Chunk[messages.AssistantMessage]:
		return Chunk[messages.AssistantMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Chunk:     event.Chunk,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	case provider.Chunk[messages.ToolCallMessage]:
		return Chunk[messages.ToolCallMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Chunk:     event.Chunk,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	case provider.Response[messages.AssistantMessage]:
		return Response[messages.AssistantMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Response:  event.Response,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	case provider.Response[messages.ToolCallMessage]:
		return Response[messages.ToolCallMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Response:  event.Response,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	case provider.Error:
		return Error{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Err:       event.Err,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	default:
		panic(fmt.Sprintf("unknown stream event type: %T", event))
	}
}

// ToJSON serializes any event for transport.
func ToJSON(event Event) ([]byte, error) {
	return json.Marshal(event)
}

// FromJSON deserializes an event produced by ToJSON. The payload variant is
// recovered from its shape: tool calls carry a tool_calls array, tool
// responses a tool_call_id.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch gjson.GetBytes(data, "type").String() {
	case "delim":
		var d Delim
		if err := d.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return d, nil

	case "chunk":
		if gjson.GetBytes(data, "chunk.tool_calls").Exists() {
			var c Chunk[messages.ToolCallMessage]
			if err := c.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return c, nil
		}
		var c Chunk[messages.AssistantMessage]
		if err := c.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return c, nil

	case "request":
		if gjson.GetBytes(data, "message.tool_call_id").Exists() {
			var r Request[messages.ToolResponse]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		}
		var r Request[messages.UserMessage]
		if err := r.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return r, nil

	case "response":
		if gjson.GetBytes(data, "response.tool_calls").Exists() {
			var r Response[messages.ToolCallMessage]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		}
		var r Response[messages.AssistantMessage]
		if err := r.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return r, nil

	case "result":
		var r Result[any]
		if err := r.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return r, nil

	case "error":
		var e Error
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil

	default:
		return nil, fmt.Errorf("missing or unknown event type")
	}
}

// MarshalJSON implements custom JSON marshaling for Delim
func (d Delim) MarshalJSON() ([]byte, error) {
	result := delimJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", d.RunID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "turn_id", d.TurnID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "delim", d.Delim)
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Delim
func (d *Delim) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	if err := requireType(data, "delim"); err != nil {
		return err
	}
	if err := readUUID(data, "run_id", &d.RunID); err != nil {
		return err
	}
	if err := readUUID(data, "turn_id", &d.TurnID); err != nil {
		return err
	}

	delim := gjson.GetBytes(data, "delim")
	if !delim.Exists() {
		return fmt.Errorf("missing required field 'delim'")
	}
	d.Delim = delim.String()
	return nil
}

// MarshalJSON implements custom JSON marshaling for Chunk[T]
func (c Chunk[T]) MarshalJSON() ([]byte, error) {
	result, err := writeEnvelope(chunkJSON, c.RunID, c.TurnID)
	if err != nil {
		return nil, err
	}
	result, err = writePayload(result, "chunk", c.Chunk)
	if err != nil {
		return nil, err
	}
	return appendSenderTimestampMeta(result, c.Sender, c.Timestamp, c.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Chunk[T]
func (c *Chunk[T]) UnmarshalJSON(data []byte) error {
	if err := readEnvelope(data, "chunk", &c.RunID, &c.TurnID); err != nil {
		return err
	}
	if err := readPayload(data, "chunk", &c.Chunk); err != nil {
		return err
	}
	return readSenderTimestampMeta(data, &c.Sender, &c.Timestamp, &c.Meta)
}

// MarshalJSON implements custom JSON marshaling for Request[T]
func (r Request[T]) MarshalJSON() ([]byte, error) {
	result, err := writeEnvelope(requestJSON, r.RunID, r.TurnID)
	if err != nil {
		return nil, err
	}
	result, err = writePayload(result, "message", r.Message)
	if err != nil {
		return nil, err
	}
	return appendSenderTimestampMeta(result, r.Sender, r.Timestamp, r.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Request[T]
func (r *Request[T]) UnmarshalJSON(data []byte) error {
	if err := readEnvelope(data, "request", &r.RunID, &r.TurnID); err != nil {
		return err
	}
	if err := readPayload(data, "message", &r.Message); err != nil {
		return err
	}
	return readSenderTimestampMeta(data, &r.Sender, &r.Timestamp, &r.Meta)
}

// MarshalJSON implements custom JSON marshaling for Response[T]
func (r Response[T]) MarshalJSON() ([]byte, error) {
	result, err := writeEnvelope(responseJSON, r.RunID, r.TurnID)
	if err != nil {
		return nil, err
	}
	result, err = writePayload(result, "response", r.Response)
	if err != nil {
		return nil, err
	}
	return appendSenderTimestampMeta(result, r.Sender, r.Timestamp, r.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Response[T]
func (r *Response[T]) UnmarshalJSON(data []byte) error {
	if err := readEnvelope(data, "response", &r.RunID, &r.TurnID); err != nil {
		return err
	}
	if err := readPayload(data, "response", &r.Response); err != nil {
		return err
	}
	return readSenderTimestampMeta(data, &r.Sender, &r.Timestamp, &r.Meta)
}

// MarshalJSON implements custom JSON marshaling for Result[T]
func (r Result[T]) MarshalJSON() ([]byte, error) {
	result, err := writeEnvelope(resultJSON, r.RunID, r.TurnID)
	if err != nil {
		return nil, err
	}
	result, err = writePayload(result, "result", r.Result)
	if err != nil {
		return nil, err
	}
	return appendSenderTimestampMeta(result, r.Sender, r.Timestamp, r.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Result[T]
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	if err := readEnvelope(data, "result", &r.RunID, &r.TurnID); err != nil {
		return err
	}
	if err := readPayload(data, "result", &r.Result); err != nil {
		return err
	}
	return readSenderTimestampMeta(data, &r.Sender, &r.Timestamp, &r.Meta)
}

// MarshalJSON implements custom JSON marshaling for Error
func (e Error) MarshalJSON() ([]byte, error) {
	result, err := writeEnvelope(errorJSON, e.RunID, e.TurnID)
	if err != nil {
		return nil, err
	}
	if e.Err != nil {
		result, err = sjson.SetBytes(result, "error", e.Err.Error())
		if err != nil {
			return nil, err
		}
	}
	return appendSenderTimestampMeta(result, e.Sender, e.Timestamp, e.Meta)
}

// UnmarshalJSON implements custom JSON unmarshaling for Error
func (e *Error) UnmarshalJSON(data []byte) error {
	if err := readEnvelope(data, "error", &e.RunID, &e.TurnID); err != nil {
		return err
	}

	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Err = errors.New(errMsg.String())

	return readSenderTimestampMeta(data, &e.Sender, &e.Timestamp, &e.Meta)
}

func requireType(data []byte, want string) error {
	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != want {
		return fmt.Errorf("missing or invalid type, expected '%s'", want)
	}
	return nil
}

func readUUID(data []byte, field string, dst *uuid.UUID) error {
	v := gjson.GetBytes(data, field)
	if !v.Exists() {
		return fmt.Errorf("missing required field '%s'", field)
	}
	if err := dst.UnmarshalText([]byte(v.String())); err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	return nil
}

func writeEnvelope(base []byte, runID, turnID uuid.UUID) ([]byte, error) {
	result, err := sjson.SetBytes(base, "run_id", runID.String())
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "turn_id", turnID.String())
}

func readEnvelope(data []byte, eventType string, runID, turnID *uuid.UUID) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	if err := requireType(data, eventType); err != nil {
		return err
	}
	if err := readUUID(data, "run_id", runID); err != nil {
		return err
	}
	return readUUID(data, "turn_id", turnID)
}

func writePayload(result []byte, field string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", field, err)
	}
	return sjson.SetRawBytes(result, field, payloadBytes)
}

func readPayload(data []byte, field string, dst any) error {
	payload := gjson.GetBytes(data, field)
	if !payload.Exists() {
		return fmt.Errorf("missing required field '%s'", field)
	}
	if err := json.Unmarshal([]byte(payload.Raw), dst); err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	return nil
}

func appendSenderTimestampMeta(result []byte, sender string, ts strfmt.DateTime, meta gjson.Result) ([]byte, error) {
	var err error
	if sender != "" {
		result, err = sjson.SetBytes(result, "sender", sender)
		if err != nil {
			return nil, err
		}
	}
	if !ts.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", ts.String())
		if err != nil {
			return nil, err
		}
	}
	if meta.Exists() {
		result, err = sjson.SetRawBytes(result, "meta", []byte(meta.Raw))
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func readSenderTimestampMeta(data []byte, sender *string, ts *strfmt.DateTime, meta *gjson.Result) error {
	if v := gjson.GetBytes(data, "sender"); v.Exists() {
		*sender = v.String()
	}
	if v := gjson.GetBytes(data, "timestamp"); v.Exists() {
		if err := ts.UnmarshalText([]byte(v.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}
	if v := gjson.GetBytes(data, "meta"); v.Exists() {
		*meta = v
	}
	return nil
}
