// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resilience guards calls to the Gotenberg API.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/gotenberg-client/internal/metrics"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Outcome is how a call result affects the breaker.
type Outcome int

const (
	// OutcomeSuccess closes the circuit and resets the failure count.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure counts towards the threshold.
	OutcomeFailure
	// OutcomeIgnore leaves state and counters untouched. A half-open trial
	// call that ends this way frees the slot for the next caller.
	OutcomeIgnore
)

// Clock abstracts time operations for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// CircuitBreaker implements a state machine to prevent cascading failures.
// The classifier maps each result to an Outcome, so caller mistakes and
// cancellations neither open nor close the circuit.
type CircuitBreaker struct {
	mu           sync.Mutex
	name         string
	state        State
	failures     int
	threshold    int
	resetTimeout time.Duration
	openedAt     time.Time
	clock        Clock
	classify     func(error) Outcome
	onTransition func(from, to State)

	// Only one probe is admitted while half-open.
	probing bool
}

// Option configuration pattern
type Option func(*CircuitBreaker)

func WithClock(c Clock) Option {
	return func(cb *CircuitBreaker) { cb.clock = c }
}

// WithClassifier decides how each call result moves the breaker.
func WithClassifier(fn func(error) Outcome) Option {
	return func(cb *CircuitBreaker) {
		if fn != nil {
			cb.classify = fn
		}
	}
}

func defaultClassify(err error) Outcome {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// WithTransitionHook is invoked (outside the lock) on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(cb *CircuitBreaker) { cb.onTransition = fn }
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration, opts ...Option) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	cb := &CircuitBreaker{
		name:         name,
		state:        StateClosed,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		clock:        realClock{},
		classify:     defaultClassify,
	}

	for _, opt := range opts {
		opt(cb)
	}

	metrics.SetCircuitBreakerState(cb.name, string(cb.state))
	return cb
}

// Execute runs the given function respecting the breaker state.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()
	switch cb.classify(err) {
	case OutcomeFailure:
		cb.recordFailure()
	case OutcomeIgnore:
		cb.release()
	default:
		cb.recordSuccess()
	}
	return err
}

// release frees the half-open slot without judging the backend.
func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	cb.probing = false
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()

	switch cb.state {
	case StateClosed:
		cb.mu.Unlock()
		return true
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) < cb.resetTimeout {
			cb.mu.Unlock()
			return false
		}
		from := cb.transitionLocked(StateHalfOpen)
		cb.probing = true
		cb.mu.Unlock()
		cb.notify(from, StateHalfOpen)
		return true
	default: // StateHalfOpen
		if cb.probing {
			cb.mu.Unlock()
			return false
		}
		cb.probing = true
		cb.mu.Unlock()
		return true
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	cb.failures++
	cb.probing = false

	var from State
	changed := false
	switch {
	case cb.state == StateHalfOpen:
		metrics.RecordCircuitBreakerTrip(cb.name, "half_open_failure")
		from, changed = cb.transitionLocked(StateOpen), true
	case cb.state == StateClosed && cb.failures >= cb.threshold:
		metrics.RecordCircuitBreakerTrip(cb.name, "threshold_exceeded")
		from, changed = cb.transitionLocked(StateOpen), true
	}
	cb.mu.Unlock()

	if changed {
		cb.notify(from, StateOpen)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	cb.failures = 0
	cb.probing = false
	if cb.state == StateClosed {
		cb.mu.Unlock()
		return
	}
	from := cb.transitionLocked(StateClosed)
	cb.mu.Unlock()
	cb.notify(from, StateClosed)
}

// transitionLocked switches state and returns the previous one.
// Caller must hold lock.
func (cb *CircuitBreaker) transitionLocked(newState State) State {
	prev := cb.state
	cb.state = newState
	if newState == StateOpen {
		cb.openedAt = cb.clock.Now()
	}
	metrics.SetCircuitBreakerState(cb.name, string(newState))
	return prev
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.onTransition != nil && from != to {
		cb.onTransition(from, to)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
