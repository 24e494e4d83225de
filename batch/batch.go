// Package batch runs a function over many items with bounded concurrency and
// per-item retries. Results come back in input order; an item that fails all
// its attempts carries the last error instead of aborting the whole batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/fogfish/opts"
)

// ErrExhausted wraps the last error of an item that failed every attempt.
var ErrExhausted = errors.New("batch: attempts exhausted")

const (
	DefaultConcurrency = 4
	DefaultMaxAttempts = 3
	DefaultBaseBackoff = 100 * time.Millisecond
	DefaultMaxBackoff  = 5 * time.Second
)

// Config holds the processor tunables.
type Config struct {
	Concurrency int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Option configures a batch run.
type Option = opts.Option[Config]

var (
	// Concurrency caps how many items are in flight at once.
	Concurrency = opts.ForName[Config, int]("Concurrency")

	// MaxAttempts sets how many times each item is tried.
	MaxAttempts = opts.ForName[Config, int]("MaxAttempts")

	// BaseBackoff sets the first retry delay. Later attempts back off
	// exponentially with jitter, capped at MaxBackoff.
	BaseBackoff = opts.ForName[Config, time.Duration]("BaseBackoff")

	// MaxBackoff caps the retry delay.
	MaxBackoff = opts.ForName[Config, time.Duration]("MaxBackoff")
)

// Result is the outcome for one input item.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Process applies fn to every item, at most Concurrency at a time, retrying
// failed items with exponential backoff and jitter. The returned slice has
// one Result per input, in input order. Processing stops early only when ctx
// is cancelled, in which case the context error is returned alongside the
// results gathered so far.
func Process[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), options ...Option) ([]Result[R], error) {
	cfg := Config{
		Concurrency: DefaultConcurrency,
		MaxAttempts: DefaultMaxAttempts,
		BaseBackoff: DefaultBaseBackoff,
		MaxBackoff:  DefaultMaxBackoff,
	}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}
	if cfg.Concurrency <= 0 {
		return nil, errors.New("batch: Concurrency must be positive")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("batch: MaxAttempts must be positive")
	}

	results := make([]Result[R], len(items))
	sem := make(chan struct{}, cfg.Concurrency)

	var wg sync.WaitGroup
	for i, item := range items {
		select {
		case <-ctx.Done():
			wg.Wait()
			markCancelled(results, i, len(items), ctx.Err())
			return results, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			value, err := attempt(ctx, item, fn, cfg)
			results[i] = Result[R]{Index: i, Value: value, Err: err}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func attempt[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error), cfg Config) (R, error) {
	var lastErr error
	for i := 1; i <= cfg.MaxAttempts; i++ {
		value, err := fn(ctx, item)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if i == cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			var zero R
			return zero, ctx.Err()
		case <-time.After(backoffFor(cfg, i)):
		}
	}
	var zero R
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, cfg.MaxAttempts, lastErr)
}

func backoffFor(cfg Config, attempt int) time.Duration {
	backoff := cfg.BaseBackoff * time.Duration(1<<uint(attempt-1))
	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}
	if cfg.BaseBackoff > 0 {
		backoff += rand.N(cfg.BaseBackoff)
	}
	return backoff
}

func markCancelled[R any](results []Result[R], from, to int, err error) {
	for i := from; i < to; i++ {
		results[i] = Result[R]{Index: i, Err: err}
	}
}
