// Package logged decorates a provider with structured request/response
// logging. Events pass through untouched; the decorator observes them on the
// way by.
package logged

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/strixlabs/strix/provider"
)

// Provider wraps another provider and logs every completion.
type Provider struct {
	delegate provider.Provider
	embedder provider.Embedder
	log      zerolog.Logger
}

// New wraps delegate with logging. When delegate also implements
// provider.Embedder, embeddings calls are logged too.
func New(delegate provider.Provider, log zerolog.Logger) *Provider {
	p := &Provider{delegate: delegate, log: log}
	if embedder, ok := delegate.(provider.Embedder); ok {
		p.embedder = embedder
	}
	return p
}

// ChatCompletion implements provider.Provider.
func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	log := p.log.With().
		Str("run_id", params.RunID.String()).
		Str("turn_id", params.Thread.ID().String()).
		Bool("stream", params.Stream).
		Int("tools", len(params.Tools)).
		Logger()
	if params.Model != nil {
		log = log.With().Str("model", params.Model.Name()).Logger()
	}

	start := time.Now()
	log.Debug().Int("thread_len", params.Thread.Len()).Msg("starting chat completion")

	inner, err := p.delegate.ChatCompletion(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("chat completion failed to start")
		return nil, err
	}

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)

		var chunks int
		for event := range inner {
			switch event := event.(type) {
			case provider.Error:
				log.Error().Err(event.Err).Msg("chat completion error")
			case provider.Delim:
				log.Trace().Str("delim", event.Delim).Msg("stream delimiter")
			default:
				chunks++
			}
			events <- event
		}

		log.Debug().
			Dur("took", time.Since(start)).
			Int("events", chunks).
			Msg("chat completion finished")
	}()

	return events, nil
}

// Embeddings implements provider.Embedder when the delegate does.
func (p *Provider) Embeddings(ctx context.Context, params provider.EmbeddingsParams) (*provider.EmbeddingsResult, error) {
	if p.embedder == nil {
		return nil, provider.ErrNoEmbedder
	}

	start := time.Now()
	result, err := p.embedder.Embeddings(ctx, params)
	if err != nil {
		p.log.Error().Err(err).Str("model", params.Model).Msg("embeddings failed")
		return nil, err
	}

	p.log.Debug().
		Str("model", result.Model).
		Int("inputs", len(params.Inputs)).
		Int64("prompt_tokens", result.PromptTokens).
		Dur("took", time.Since(start)).
		Msg("embeddings finished")
	return result, nil
}
