package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/strixlabs/strix/internal/shorttermmemory"
)

// ErrMiss is returned when a key is absent or its entry has expired.
var ErrMiss = errors.New("cache: miss")

// DefaultTTL applies when no TTL option is given.
const DefaultTTL = 15 * time.Minute

// Entry is a cached completion.
type Entry struct {
	Content   string    `json:"content" msgpack:"content"`
	Model     string    `json:"model" msgpack:"model"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
}

// Store persists cache entries under string keys.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key derives the cache key for a completion request: a SHA-256 digest over
// the model name, the instructions, and every message in the thread.
func Key(model, instructions string, thread *shorttermmemory.Aggregator) string {
	h := sha256.New()
	_, _ = io.WriteString(h, model)
	h.Write([]byte{0})
	_, _ = io.WriteString(h, instructions)
	if thread != nil {
		for msg := range thread.MessagesIter() {
			h.Write([]byte{0})
			payload, err := json.Marshal(msg.Payload)
			if err != nil {
				continue
			}
			h.Write(payload)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Config holds the tunables shared by the store implementations.
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Dir           string
	InMemory      bool
}

// Option configures a cache store.
type Option = opts.Option[Config]

var (
	// TTL sets how long entries stay valid.
	TTL = opts.ForName[Config, time.Duration]("TTL")

	// SweepInterval sets how often the memory store evicts expired entries
	// in the background. Zero disables the sweeper.
	SweepInterval = opts.ForName[Config, time.Duration]("SweepInterval")

	// Dir sets the data directory for the persistent store.
	Dir = opts.ForName[Config, string]("Dir")

	// InMemory runs the persistent store without disk files, useful in tests.
	InMemory = opts.ForName[Config, bool]("InMemory")
)

func buildConfig(options []Option) (Config, error) {
	cfg := Config{TTL: DefaultTTL}
	if err := opts.Apply(&cfg, options); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

// MemoryStore is an in-process store on haxmap. Expired entries are dropped
// on read and, when a sweep interval is configured, by a background sweeper.
type MemoryStore struct {
	entries   *haxmap.Map[string, memoryEntry]
	ttl       time.Duration
	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// Memory creates an in-process store.
func Memory(options ...Option) (*MemoryStore, error) {
	cfg, err := buildConfig(options)
	if err != nil {
		return nil, err
	}

	s := &MemoryStore{
		entries: haxmap.New[string, memoryEntry](),
		ttl:     cfg.TTL,
		done:    make(chan struct{}),
		now:     time.Now,
	}
	if cfg.SweepInterval > 0 {
		go s.sweep(cfg.SweepInterval)
	}
	return s, nil
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := s.now()
			s.entries.ForEach(func(key string, me memoryEntry) bool {
				if now.After(me.expiresAt) {
					s.entries.Del(key)
				}
				return true
			})
		}
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, error) {
	me, ok := s.entries.Get(key)
	if !ok {
		return Entry{}, ErrMiss
	}
	if s.now().After(me.expiresAt) {
		s.entries.Del(key)
		return Entry{}, ErrMiss
	}
	return me.entry, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry Entry) error {
	s.entries.Set(key, memoryEntry{
		entry:     entry,
		expiresAt: s.now().Add(s.ttl),
	})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.entries.Del(key)
	return nil
}

// Len returns the number of entries currently held, including not yet swept
// expired ones.
func (s *MemoryStore) Len() int {
	return int(s.entries.Len())
}

// Close stops the background sweeper. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
