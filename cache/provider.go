package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/strixlabs/strix/messages"
	"github.com/strixlabs/strix/pkg/slogx"
	"github.com/strixlabs/strix/provider"
)

// Provider wraps delegate with read-through response caching. Streaming
// requests and requests carrying tools bypass the cache: their outcomes
// depend on more than the prompt.
func Provider(delegate provider.Provider, store Store) provider.Provider {
	return &cachedProvider{delegate: delegate, store: store}
}

type cachedProvider struct {
	delegate provider.Provider
	store    Store
}

func (c *cachedProvider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	if params.Stream || len(params.Tools) > 0 {
		return c.delegate.ChatCompletion(ctx, params)
	}

	model := ""
	if params.Model != nil {
		model = params.Model.Name()
	}
	key := Key(model, params.Instructions, params.Thread)

	if entry, err := c.store.Get(ctx, key); err == nil {
		events := make(chan provider.StreamEvent, 1)
		events <- provider.Response[messages.AssistantMessage]{
			RunID:      params.RunID,
			TurnID:     params.Thread.ID(),
			Checkpoint: params.Thread.Checkpoint(),
			Response:   messages.AssistantMessage{Content: entry.Content},
			Timestamp:  strfmt.DateTime(time.Now()),
		}
		close(events)
		return events, nil
	} else if !errors.Is(err, ErrMiss) {
		slog.WarnContext(ctx, "cache lookup failed", slogx.Error(err))
	}

	stream, err := c.delegate.ChatCompletion(ctx, params)
	if err != nil {
		return nil, err
	}

	events := make(chan provider.StreamEvent)
	go func() {
		defer close(events)
		for event := range stream {
			if resp, ok := event.(provider.Response[messages.AssistantMessage]); ok {
				if serr := c.store.Set(ctx, key, Entry{
					Content:   resp.Response.Content,
					Model:     model,
					CreatedAt: time.Now(),
				}); serr != nil {
					slog.WarnContext(ctx, "cache store failed", slogx.Error(serr))
				}
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// Embeddings passes through to the delegate when it supports them.
func (c *cachedProvider) Embeddings(ctx context.Context, params provider.EmbeddingsParams) (*provider.EmbeddingsResult, error) {
	if embedder, ok := c.delegate.(provider.Embedder); ok {
		return embedder.Embeddings(ctx, params)
	}
	return nil, provider.ErrNoEmbedder
}
