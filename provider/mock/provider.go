// Package mock provides a scripted provider for tests and offline demos.
// Responses are queued ahead of time and replayed turn by turn; every call
// records the params it received so assertions can inspect them.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/provider"
)

// Turn is a single scripted completion outcome.
type Turn struct {
	// Response is the assistant text to return. Ignored when ToolCalls or
	// Err is set.
	Response string
	// ToolCalls makes the turn return a tool call response.
	ToolCalls []messages.ToolCallData
	// Err makes the turn fail with an error event.
	Err error
	// Chunks are emitted before the final response when streaming. When
	// empty and streaming is requested, the response is split into
	// whitespace-preserving single chunks per rune group of 4.
	Chunks []string
}

// Provider replays scripted turns. Once the script is exhausted, every call
// returns an error event. The zero value is usable.
type Provider struct {
	mu    sync.Mutex
	turns []Turn
	calls []provider.CompletionParams

	embeddings    [][]float64
	embedderCalls []provider.EmbeddingsParams
}

// New creates a mock provider with the given scripted turns.
func New(turns ...Turn) *Provider {
	return &Provider{turns: turns}
}

// Enqueue appends turns to the script.
func (p *Provider) Enqueue(turns ...Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turns = append(p.turns, turns...)
}

// WithEmbeddings sets the vectors returned by Embeddings, cycled over the
// inputs.
func (p *Provider) WithEmbeddings(vectors ...[]float64) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embeddings = vectors
	return p
}

// Calls returns the completion params received so far.
func (p *Provider) Calls() []provider.CompletionParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]provider.CompletionParams(nil), p.calls...)
}

// EmbedderCalls returns the embeddings params received so far.
func (p *Provider) EmbedderCalls() []provider.EmbeddingsParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]provider.EmbeddingsParams(nil), p.embedderCalls...)
}

func (p *Provider) nextTurn(params provider.CompletionParams) (Turn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, params)
	if len(p.turns) == 0 {
		return Turn{}, fmt.Errorf("mock provider: script exhausted after %d calls", len(p.calls)-1)
	}
	turn := p.turns[0]
	p.turns = p.turns[1:]
	return turn, nil
}

// ChatCompletion implements provider.Provider.
func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	turn, err := p.nextTurn(params)

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)

		if err != nil {
			events <- provider.Error{
				Err:       err,
				RunID:     params.RunID,
				TurnID:    params.Thread.ID(),
				Timestamp: strfmt.DateTime(time.Now()),
			}
			return
		}
		if turn.Err != nil {
			events <- provider.Error{
				Err:       turn.Err,
				RunID:     params.RunID,
				TurnID:    params.Thread.ID(),
				Timestamp: strfmt.DateTime(time.Now()),
			}
			return
		}

		if params.Stream {
			events <- provider.Delim{Delim: "start"}
			for _, chunk := range turn.chunks() {
				if ctx.Err() != nil {
					events <- provider.Error{
						Err:       ctx.Err(),
						RunID:     params.RunID,
						TurnID:    params.Thread.ID(),
						Timestamp: strfmt.DateTime(time.Now()),
					}
					return
				}
				events <- provider.Chunk[messages.AssistantMessage]{
					RunID:     params.RunID,
					TurnID:    params.Thread.ID(),
					Chunk:     messages.AssistantMessage{Content: chunk},
					Timestamp: strfmt.DateTime(time.Now()),
				}
			}
			events <- provider.Delim{Delim: "end"}
		}

		if len(turn.ToolCalls) > 0 {
			events <- provider.Response[messages.ToolCallMessage]{
				RunID:      params.RunID,
				TurnID:     params.Thread.ID(),
				Checkpoint: params.Thread.Checkpoint(),
				Response:   messages.ToolCallMessage{ToolCalls: turn.ToolCalls},
				Timestamp:  strfmt.DateTime(time.Now()),
			}
			return
		}

		events <- provider.Response[messages.AssistantMessage]{
			RunID:      params.RunID,
			TurnID:     params.Thread.ID(),
			Checkpoint: params.Thread.Checkpoint(),
			Response:   messages.AssistantMessage{Content: turn.Response},
			Timestamp:  strfmt.DateTime(time.Now()),
		}
	}()

	return events, nil
}

func (t Turn) chunks() []string {
	if len(t.Chunks) > 0 {
		return t.Chunks
	}
	if t.Response == "" {
		return nil
	}

	var chunks []string
	runes := []rune(t.Response)
	for i := 0; i < len(runes); i += 4 {
		end := min(i+4, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// Embeddings implements provider.Embedder. Vectors configured with
// WithEmbeddings are cycled over the inputs; without configuration a
// deterministic vector derived from the input length is returned.
func (p *Provider) Embeddings(_ context.Context, params provider.EmbeddingsParams) (*provider.EmbeddingsResult, error) {
	if len(params.Inputs) == 0 {
		return nil, fmt.Errorf("mock provider: embeddings require at least one input")
	}

	p.mu.Lock()
	p.embedderCalls = append(p.embedderCalls, params)
	vectors := p.embeddings
	p.mu.Unlock()

	result := &provider.EmbeddingsResult{
		Embeddings: make([][]float64, len(params.Inputs)),
		Model:      params.Model,
	}
	for i, input := range params.Inputs {
		if len(vectors) > 0 {
			result.Embeddings[i] = vectors[i%len(vectors)]
		} else {
			result.Embeddings[i] = []float64{float64(len(input)), float64(i), 1}
		}
		result.PromptTokens += int64(len(input) / 4)
	}
	return result, nil
}
