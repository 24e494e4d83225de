package provider

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/strixlabs/strix/internal/shorttermmemory"
	"github.com/strixlabs/strix/tool"
)

// Provider is implemented by AI model vendors (OpenAI, Azure OpenAI,
// Anthropic, ...). Implementations handle the specifics of each service
// while exposing one consistent streaming surface.
type Provider interface {
	ChatCompletion(context.Context, CompletionParams) (<-chan StreamEvent, error)
}

// Embedder is implemented by providers that can produce vector embeddings.
type Embedder interface {
	Embeddings(context.Context, EmbeddingsParams) (*EmbeddingsResult, error)
}

// ErrNoEmbedder is returned when embeddings are requested from a provider
// that cannot produce them.
var ErrNoEmbedder = errors.New("provider does not support embeddings")

// CompletionParams encapsulates all parameters for a chat completion request.
type CompletionParams struct {
	// RunID uniquely identifies this completion request for tracking.
	RunID uuid.UUID

	// Instructions provide the system prompt for the model.
	Instructions string

	// Thread contains the conversation history.
	Thread *shorttermmemory.Aggregator

	// Stream requests incremental chunk events. When false the provider
	// emits a single Response event.
	Stream bool

	// ResponseSchema, when set, asks the model for structured output
	// conforming to the schema.
	ResponseSchema *StructuredOutput

	// Model names the model to use and knows which provider serves it.
	Model interface {
		Name() string
		Provider() Provider
	}

	// Tools defines the functions the model may call.
	Tools []tool.Definition

	_ struct{} // prevent unkeyed literals
}

// StructuredOutput defines a schema for formatted model responses.
type StructuredOutput struct {
	// Name identifies this output format.
	Name string

	// Description explains the purpose of this format to the model.
	Description string

	// Schema is the JSON structure responses should follow.
	Schema *jsonschema.Schema
}

// EmbeddingsParams is a request for vector embeddings.
type EmbeddingsParams struct {
	// Model names the embedding model.
	Model string

	// Inputs are the texts to embed, one vector per input.
	Inputs []string
}

// EmbeddingsResult carries the embedding vectors in input order.
type EmbeddingsResult struct {
	Embeddings   [][]float64
	Model        string
	PromptTokens int64
}
