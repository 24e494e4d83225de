// Package circuitbreaker guards calls to flaky dependencies. Each key keeps
// its own closed/open/half-open state: repeated failures open the circuit,
// callers are rejected with ErrOpen until the reset timeout passes, then a
// trial call decides whether the circuit closes again.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fogfish/opts"
)

// ErrOpen is returned when the circuit for a key is open.
var ErrOpen = errors.New("circuitbreaker: circuit open")

// State of a single circuit.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	// DefaultFailureThreshold opens the circuit after this many consecutive
	// failures.
	DefaultFailureThreshold = 5

	// DefaultResetTimeout is how long the circuit stays open before a trial.
	DefaultResetTimeout = 60 * time.Second
)

// Config holds the breaker tunables.
type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// Option configures a Breaker.
type Option = opts.Option[Config]

var (
	// FailureThreshold sets the consecutive failure count that opens a circuit.
	FailureThreshold = opts.ForName[Config, int]("FailureThreshold")

	// ResetTimeout sets how long an open circuit waits before the trial call.
	ResetTimeout = opts.ForName[Config, time.Duration]("ResetTimeout")
)

type keyState struct {
	consecutiveFailures int
	openUntil           time.Time
	halfOpen            bool
}

// Breaker maintains per-key circuit state. Safe for concurrent use.
type Breaker struct {
	mu        sync.Mutex
	states    map[string]*keyState
	threshold int
	reset     time.Duration
	now       func() time.Time
}

// New creates a breaker with all circuits closed.
func New(options ...Option) (*Breaker, error) {
	cfg := Config{
		FailureThreshold: DefaultFailureThreshold,
		ResetTimeout:     DefaultResetTimeout,
	}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}
	if cfg.FailureThreshold <= 0 {
		return nil, errors.New("circuitbreaker: FailureThreshold must be positive")
	}
	if cfg.ResetTimeout <= 0 {
		return nil, errors.New("circuitbreaker: ResetTimeout must be positive")
	}

	return &Breaker{
		states:    make(map[string]*keyState),
		threshold: cfg.FailureThreshold,
		reset:     cfg.ResetTimeout,
		now:       time.Now,
	}, nil
}

func (b *Breaker) state(key string) *keyState {
	s, ok := b.states[key]
	if !ok {
		s = &keyState{}
		b.states[key] = s
	}
	return s
}

// State reports the current state of the circuit for key.
func (b *Breaker) State(key string) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.states[key]
	switch {
	case !ok, s.openUntil.IsZero() && !s.halfOpen:
		return StateClosed
	case s.halfOpen:
		return StateHalfOpen
	case b.now().Before(s.openUntil):
		return StateOpen
	default:
		return StateHalfOpen
	}
}

// Allow reports whether a call for key may proceed. An open circuit whose
// reset timeout has passed transitions to half-open and lets the call through
// as a trial.
func (b *Breaker) Allow(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.state(key)
	if s.openUntil.IsZero() {
		return true
	}
	if b.now().Before(s.openUntil) {
		return false
	}

	// Half-open: the next outcome decides whether the circuit closes.
	s.openUntil = time.Time{}
	s.consecutiveFailures = 0
	s.halfOpen = true
	return true
}

// RecordSuccess closes the circuit for key.
func (b *Breaker) RecordSuccess(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.state(key)
	s.consecutiveFailures = 0
	s.openUntil = time.Time{}
	s.halfOpen = false
}

// RecordFailure counts a failure for key, opening the circuit at the
// threshold. A failed half-open trial reopens immediately.
func (b *Breaker) RecordFailure(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.state(key)
	if s.halfOpen {
		s.halfOpen = false
		s.consecutiveFailures = 0
		s.openUntil = b.now().Add(b.reset)
		return
	}

	s.consecutiveFailures++
	if s.consecutiveFailures >= b.threshold {
		s.consecutiveFailures = 0
		s.openUntil = b.now().Add(b.reset)
	}
}

// Do runs fn through the circuit for key. When the circuit is open it fails
// fast with ErrOpen without invoking fn; otherwise the outcome of fn is
// recorded.
func (b *Breaker) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	if !b.Allow(key) {
		return ErrOpen
	}
	if err := fn(ctx); err != nil {
		b.RecordFailure(key)
		return err
	}
	b.RecordSuccess(key)
	return nil
}
