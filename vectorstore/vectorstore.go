// Package vectorstore is an in-memory similarity index over provider
// embeddings. Documents are embedded on Add and ranked by cosine similarity
// on Query. It backs the retrieval step of RAG flows; it is not a database.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/fogfish/opts"
	"github.com/strixlabs/strix/pkg/uuidx"
	"github.com/strixlabs/strix/provider"
)

// ErrEmpty is returned when Query runs against a store with no documents.
var ErrEmpty = errors.New("vectorstore: no documents")

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// Document is a piece of text with optional metadata.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Match is a document with its similarity to the query, in [-1, 1].
type Match struct {
	Document
	Score float64 `json:"score"`
}

// Config holds the store tunables.
type Config struct {
	Model string
}

// Option configures a Store.
type Option = opts.Option[Config]

// Model sets the embedding model name.
var Model = opts.ForName[Config, string]("Model")

type entry struct {
	doc    Document
	vector []float64
}

// Store indexes documents by their embedding. Safe for concurrent use.
type Store struct {
	embedder provider.Embedder
	model    string

	mu      sync.RWMutex
	entries []entry
}

// New creates a store that embeds through embedder.
func New(embedder provider.Embedder, options ...Option) (*Store, error) {
	if embedder == nil {
		return nil, errors.New("vectorstore: embedder is required")
	}
	cfg := Config{Model: DefaultModel}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}
	return &Store{embedder: embedder, model: cfg.Model}, nil
}

// Add embeds and indexes documents. Documents without an ID get one assigned.
func (s *Store) Add(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}

	inputs := make([]string, len(docs))
	for i, doc := range docs {
		inputs[i] = doc.Content
	}
	result, err := s.embedder.Embeddings(ctx, provider.EmbeddingsParams{
		Model:  s.model,
		Inputs: inputs,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: embedding %d documents: %w", len(docs), err)
	}
	if len(result.Embeddings) != len(docs) {
		return fmt.Errorf("vectorstore: got %d embeddings for %d documents", len(result.Embeddings), len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuidx.NewString()
		}
		s.entries = append(s.entries, entry{doc: doc, vector: result.Embeddings[i]})
	}
	return nil
}

// Query embeds the query text and returns the topK most similar documents,
// best first.
func (s *Store) Query(ctx context.Context, query string, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, errors.New("vectorstore: topK must be positive")
	}

	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()
	if n == 0 {
		return nil, ErrEmpty
	}

	result, err := s.embedder.Embeddings(ctx, provider.EmbeddingsParams{
		Model:  s.model,
		Inputs: []string{query},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: embedding query: %w", err)
	}
	if len(result.Embeddings) != 1 {
		return nil, fmt.Errorf("vectorstore: got %d embeddings for the query", len(result.Embeddings))
	}
	qv := result.Embeddings[0]

	s.mu.RLock()
	matches := make([]Match, 0, len(s.entries))
	for _, e := range s.entries {
		matches = append(matches, Match{Document: e.doc, Score: cosine(qv, e.vector)})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len returns the number of indexed documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
