// Package anthropic implements the provider contract against Anthropic's
// Messages API. The API differs from OpenAI's in a few load-bearing ways:
// authentication uses an x-api-key header, max_tokens is mandatory, and
// consecutive tool results must be merged into a single user turn.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/strixlabs/strix/internal/shorttermmemory"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/pkg/jsonx"
	"github.com/strixlabs/strix/provider"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	messagesEndpoint = "/messages"

	// Pins the wire format independently of the URL.
	apiVersion = "2023-06-01"

	defaultMaxTokens = 4096
)

// Provider talks to the Anthropic Messages API over plain HTTP.
type Provider struct {
	APIKey    string
	BaseURL   string
	MaxTokens int64
	Client    *http.Client
}

var (
	// APIKey overrides the key read from ANTHROPIC_API_KEY.
	APIKey = opts.ForName[Provider, string]("APIKey")
	// BaseURL points the client at a proxy or test server.
	BaseURL = opts.ForName[Provider, string]("BaseURL")
	// MaxTokens caps the response length. Defaults to 4096.
	MaxTokens = opts.ForName[Provider, int64]("MaxTokens")
	// HTTPClient replaces the default http client.
	HTTPClient = opts.ForName[Provider, *http.Client]("Client")
)

// New creates a provider. The API key defaults to ANTHROPIC_API_KEY and the
// endpoint to the public API.
func New(options ...opts.Option[Provider]) (*Provider, error) {
	p := &Provider{
		APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		BaseURL:   defaultBaseURL,
		MaxTokens: defaultMaxTokens,
		Client:    &http.Client{},
	}
	if err := opts.Apply(p, options); err != nil {
		return nil, err
	}
	return p, nil
}

// Must wraps New and panics on error.
func Must(options ...opts.Option[Provider]) *Provider {
	p, err := New(options...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Provider) buildRequest(params *provider.CompletionParams) (messagesRequest, error) {
	msgs, user := messagesToAnthropic(params.Thread.MessagesIter())

	req := messagesRequest{
		Model:     params.Model.Name(),
		Messages:  msgs,
		System:    params.Instructions,
		MaxTokens: p.MaxTokens,
	}
	if user != "" {
		req.Metadata = &metadata{UserID: user}
	}

	for _, def := range params.Tools {
		if def.Function == nil {
			return messagesRequest{}, fmt.Errorf("tool %s has nil function", def.Name)
		}
		name, schema := def.ToNameAndSchema()
		jv, err := jsonx.ToDynamicJSON(schema)
		if err != nil {
			return messagesRequest{}, fmt.Errorf("failed to convert tool to name and schema: %w", err)
		}
		schemaBytes, err := json.Marshal(jv)
		if err != nil {
			return messagesRequest{}, fmt.Errorf("failed to marshal tool schema: %w", err)
		}
		req.Tools = append(req.Tools, wireTool{
			Name:        name,
			Description: def.Description,
			InputSchema: schemaBytes,
		})
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = &toolChoice{Type: "auto"}
	}

	return req, nil
}

// messagesToAnthropic converts the thread into alternating user/assistant
// turns. Consecutive tool results are merged into one user message because
// the API rejects back to back user turns.
func messagesToAnthropic(iter iter.Seq[messages.Message[messages.ModelMessage]]) ([]wireMessage, string) {
	var result []wireMessage
	var user string

	for message := range iter {
		switch msg := message.Payload.(type) {
		case messages.UserMessage:
			if message.Sender != "" {
				user = message.Sender
			}
			wm := wireMessage{Role: "user"}
			if msg.Content.Content != "" {
				wm.Content = append(wm.Content, contentBlock{Type: "text", Text: msg.Content.Content})
			}
			for _, part := range msg.Content.Parts {
				switch part := part.(type) {
				case messages.TextContentPart:
					wm.Content = append(wm.Content, contentBlock{Type: "text", Text: part.Text})
				case messages.ImageContentPart:
					wm.Content = append(wm.Content, contentBlock{
						Type:   "image",
						Source: &imageSource{Type: "url", URL: part.URL},
					})
				}
			}
			if len(wm.Content) > 0 {
				result = append(result, wm)
			}

		case messages.AssistantMessage:
			if msg.Content == "" {
				continue
			}
			result = append(result, wireMessage{
				Role:    "assistant",
				Content: []contentBlock{{Type: "text", Text: msg.Content}},
			})

		case messages.ToolCallMessage:
			wm := wireMessage{Role: "assistant"}
			for _, tc := range msg.ToolCalls {
				input := json.RawMessage(tc.Arguments)
				if len(input) == 0 {
					input = json.RawMessage(`{}`)
				}
				wm.Content = append(wm.Content, contentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			result = append(result, wm)

		case messages.ToolResponse:
			content, err := json.Marshal(msg.Content)
			if err != nil {
				content = []byte(`""`)
			}
			block := contentBlock{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   content,
			}
			if n := len(result); n > 0 && isToolResultTurn(result[n-1]) {
				result[n-1].Content = append(result[n-1].Content, block)
			} else {
				result = append(result, wireMessage{
					Role:    "user",
					Content: []contentBlock{block},
				})
			}
		}
	}

	return result, user
}

func isToolResultTurn(msg wireMessage) bool {
	if msg.Role != "user" || len(msg.Content) == 0 {
		return false
	}
	for _, block := range msg.Content {
		if block.Type != "tool_result" {
			return false
		}
	}
	return true
}

// ChatCompletion implements provider.Provider.
func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	req, err := p.buildRequest(&params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Stream = params.Stream

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		if params.Stream {
			p.runStream(ctx, req, &params, events)
		} else {
			p.runOnce(ctx, req, &params, events)
		}
	}()
	return events, nil
}

func (p *Provider) post(ctx context.Context, req messagesRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+messagesEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		var apiErr errorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("anthropic: %s: %s", apiErr.Error.Type, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("anthropic: unexpected status %s", resp.Status)
	}
	return resp, nil
}

func (p *Provider) runOnce(ctx context.Context, req messagesRequest, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	resp, err := p.post(ctx, req)
	if err != nil {
		events <- provider.Error{
			Err:       err,
			RunID:     command.RunID,
			TurnID:    command.Thread.ID(),
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}
	defer resp.Body.Close()

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		events <- provider.Error{
			Err:       fmt.Errorf("failed to decode response: %w", err),
			RunID:     command.RunID,
			TurnID:    command.Thread.ID(),
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}

	recordUsage(decoded.Usage, command)
	events <- responseToStreamEvent(&decoded, command)
}

func (p *Provider) runStream(ctx context.Context, req messagesRequest, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	resp, err := p.post(ctx, req)
	if err != nil {
		events <- provider.Error{
			Err:       err,
			RunID:     command.RunID,
			TurnID:    command.Thread.ID(),
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}
	defer func() {
		resp.Body.Close()
		if err := ctx.Err(); err != nil {
			events <- provider.Error{
				Err:       err,
				RunID:     command.RunID,
				TurnID:    command.Thread.ID(),
				Timestamp: strfmt.DateTime(time.Now()),
			}
		}
	}()

	var (
		notFirst bool
		acc      streamAccumulator
	)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			events <- provider.Error{
				Err:       fmt.Errorf("failed to decode stream event: %w", err),
				RunID:     command.RunID,
				TurnID:    command.Thread.ID(),
				Timestamp: strfmt.DateTime(time.Now()),
			}
			return
		}

		if !notFirst {
			notFirst = true
			events <- provider.Delim{Delim: "start"}
		}

		if chunk, ok := acc.apply(&event, command); ok {
			events <- chunk
		}
		if event.Type == "error" && event.Error != nil {
			events <- provider.Error{
				Err:       fmt.Errorf("anthropic: %s: %s", event.Error.Type, event.Error.Message),
				RunID:     command.RunID,
				TurnID:    command.Thread.ID(),
				Timestamp: strfmt.DateTime(time.Now()),
			}
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		events <- provider.Error{
			Err:       err,
			RunID:     command.RunID,
			TurnID:    command.Thread.ID(),
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}

	if notFirst && ctx.Err() == nil {
		events <- provider.Delim{Delim: "end"}
		recordUsage(acc.usage, command)
		events <- acc.finalEvent(command)
	}
}

// streamAccumulator folds the SSE event lifecycle into a final response.
// Tool input arrives as partial JSON fragments keyed by content block index.
type streamAccumulator struct {
	text      strings.Builder
	toolCalls []messages.ToolCallData
	toolIdx   map[int]int
	usage     wireUsage
}

func (a *streamAccumulator) apply(event *streamEvent, command *provider.CompletionParams) (provider.StreamEvent, bool) {
	switch event.Type {
	case "message_start":
		if event.Message != nil {
			a.usage.InputTokens = event.Message.Usage.InputTokens
			a.usage.CacheCreationInputTokens = event.Message.Usage.CacheCreationInputTokens
			a.usage.CacheReadInputTokens = event.Message.Usage.CacheReadInputTokens
		}

	case "content_block_start":
		if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
			if a.toolIdx == nil {
				a.toolIdx = make(map[int]int)
			}
			a.toolIdx[event.Index] = len(a.toolCalls)
			a.toolCalls = append(a.toolCalls, messages.ToolCallData{
				ID:   event.ContentBlock.ID,
				Name: event.ContentBlock.Name,
			})
		}

	case "content_block_delta":
		if event.Delta == nil {
			break
		}
		switch event.Delta.Type {
		case "text_delta":
			a.text.WriteString(event.Delta.Text)
			return provider.Chunk[messages.AssistantMessage]{
				RunID:     command.RunID,
				TurnID:    command.Thread.ID(),
				Chunk:     messages.AssistantMessage{Content: event.Delta.Text},
				Timestamp: strfmt.DateTime(time.Now()),
			}, true
		case "input_json_delta":
			if i, ok := a.toolIdx[event.Index]; ok {
				a.toolCalls[i].Arguments += event.Delta.PartialJSON
				return provider.Chunk[messages.ToolCallMessage]{
					RunID:  command.RunID,
					TurnID: command.Thread.ID(),
					Chunk: messages.ToolCallMessage{
						ToolCalls: []messages.ToolCallData{{
							ID:        a.toolCalls[i].ID,
							Name:      a.toolCalls[i].Name,
							Arguments: event.Delta.PartialJSON,
						}},
					},
					Timestamp: strfmt.DateTime(time.Now()),
				}, true
			}
		}

	case "message_delta":
		if event.Usage != nil {
			a.usage.OutputTokens = event.Usage.OutputTokens
		}
	}

	return nil, false
}

func (a *streamAccumulator) finalEvent(command *provider.CompletionParams) provider.StreamEvent {
	if len(a.toolCalls) > 0 {
		for i := range a.toolCalls {
			if a.toolCalls[i].Arguments == "" {
				a.toolCalls[i].Arguments = "{}"
			}
		}
		return provider.Response[messages.ToolCallMessage]{
			RunID:      command.RunID,
			TurnID:     command.Thread.ID(),
			Checkpoint: command.Thread.Checkpoint(),
			Response:   messages.ToolCallMessage{ToolCalls: a.toolCalls},
			Timestamp:  strfmt.DateTime(time.Now()),
		}
	}

	return provider.Response[messages.AssistantMessage]{
		RunID:      command.RunID,
		TurnID:     command.Thread.ID(),
		Checkpoint: command.Thread.Checkpoint(),
		Response:   messages.AssistantMessage{Content: a.text.String()},
		Timestamp:  strfmt.DateTime(time.Now()),
	}
}

func recordUsage(u wireUsage, command *provider.CompletionParams) {
	usage := shorttermmemory.Usage{
		PromptTokens:       u.InputTokens,
		CompletionTokens:   u.OutputTokens,
		TotalTokens:        u.InputTokens + u.OutputTokens,
		CachedPromptTokens: u.CacheCreationInputTokens + u.CacheReadInputTokens,
	}
	if !usage.IsZero() {
		command.Thread.AddUsage(&usage)
	}
}

func responseToStreamEvent(resp *messagesResponse, command *provider.CompletionParams) provider.StreamEvent {
	var textParts []string
	var toolCalls []messages.ToolCallData

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "tool_use":
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			toolCalls = append(toolCalls, messages.ToolCallData{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	if len(toolCalls) > 0 {
		return provider.Response[messages.ToolCallMessage]{
			RunID:      command.RunID,
			TurnID:     command.Thread.ID(),
			Checkpoint: command.Thread.Checkpoint(),
			Response:   messages.ToolCallMessage{ToolCalls: toolCalls},
			Timestamp:  strfmt.DateTime(time.Now()),
		}
	}

	return provider.Response[messages.AssistantMessage]{
		RunID:      command.RunID,
		TurnID:     command.Thread.ID(),
		Checkpoint: command.Thread.Checkpoint(),
		Response:   messages.AssistantMessage{Content: strings.Join(textParts, "\n")},
		Timestamp:  strfmt.DateTime(time.Now()),
	}
}
