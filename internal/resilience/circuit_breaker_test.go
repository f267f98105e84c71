// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

var errBoom = errors.New("boom")

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 3, 10*time.Second, WithClock(clock))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	}
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 5*time.Second, WithClock(clock))

	_ = cb.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	clock.now = clock.now.Add(6 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 5*time.Second, WithClock(clock))

	_ = cb.Execute(func() error { return errBoom })
	clock.now = clock.now.Add(6 * time.Second)
	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())

	// Timer restarted at the failed probe.
	clock.now = clock.now.Add(2 * time.Second)
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreaker_SingleProbeWhileHalfOpen(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, time.Second, WithClock(clock))
	_ = cb.Execute(func() error { return errBoom })
	clock.now = clock.now.Add(2 * time.Second)

	var inner error
	err := cb.Execute(func() error {
		inner = cb.Execute(func() error { return nil })
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrCircuitOpen)
	assert.Equal(t, StateClosed, cb.State())
}

func ignoreCaller(errCaller error) Option {
	return WithClassifier(func(err error) Outcome {
		switch {
		case err == nil:
			return OutcomeSuccess
		case errors.Is(err, errCaller):
			return OutcomeIgnore
		default:
			return OutcomeFailure
		}
	})
}

func TestCircuitBreaker_ClassifierIgnoresCallerErrors(t *testing.T) {
	errCaller := errors.New("bad request")
	cb := NewCircuitBreaker("test", 1, time.Minute, ignoreCaller(errCaller))

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errCaller }), errCaller)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IgnoredErrorKeepsFailureCount(t *testing.T) {
	errCaller := errors.New("bad request")
	cb := NewCircuitBreaker("test", 2, time.Minute, ignoreCaller(errCaller))

	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return errCaller })
	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_IgnoredHalfOpenCallStaysHalfOpen(t *testing.T) {
	errCaller := errors.New("canceled")
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, time.Second, WithClock(clock), ignoreCaller(errCaller))

	_ = cb.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, cb.State())
	clock.now = clock.now.Add(2 * time.Second)

	assert.ErrorIs(t, cb.Execute(func() error { return errCaller }), errCaller)
	assert.Equal(t, StateHalfOpen, cb.State())

	// The half-open slot is free again.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_TransitionHook(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	var seen []string
	cb := NewCircuitBreaker("test", 1, time.Second, WithClock(clock),
		WithTransitionHook(func(from, to State) { seen = append(seen, string(from)+">"+string(to)) }))

	_ = cb.Execute(func() error { return errBoom })
	clock.now = clock.now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return nil })

	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, seen)
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("defaults", 0, 0)
	assert.Equal(t, 5, cb.threshold)
	assert.Equal(t, 30*time.Second, cb.resetTimeout)
}
