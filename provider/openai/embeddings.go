package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/strixlabs/strix/provider"
)

// Embeddings implements provider.Embedder via the OpenAI embeddings API.
func (p *Provider) Embeddings(ctx context.Context, params provider.EmbeddingsParams) (*provider.EmbeddingsResult, error) {
	if len(params.Inputs) == 0 {
		return nil, fmt.Errorf("embeddings require at least one input")
	}

	model := params.Model
	if model == "" {
		model = TextSmall3
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.F[openai.EmbeddingNewParamsInputUnion](openai.EmbeddingNewParamsInputArrayOfStrings(params.Inputs)),
		Model:          openai.F(model),
		EncodingFormat: openai.F(openai.EmbeddingNewParamsEncodingFormatFloat),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	result := &provider.EmbeddingsResult{
		Embeddings:   make([][]float64, len(resp.Data)),
		Model:        resp.Model,
		PromptTokens: resp.Usage.PromptTokens,
	}
	for _, item := range resp.Data {
		if int(item.Index) >= len(result.Embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		result.Embeddings[item.Index] = item.Embedding
	}
	return result, nil
}
