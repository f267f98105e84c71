package gotenberg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/gotenberg-client/internal/resilience"
)

func TestSentinelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusRequestEntityTooLarge, ErrPayloadTooLarge},
		{http.StatusTooManyRequests, ErrTooManyRequests},
		{http.StatusServiceUnavailable, ErrUnavailable},
		{http.StatusGatewayTimeout, ErrTimeout},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
		{http.StatusTeapot, ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, sentinelForStatus(tt.status))
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Sentinel: ErrServer, Operation: "merge_pdfs", Status: 500, Body: "oops", Trace: "t1", Err: cause}

	assert.Equal(t, "merge_pdfs: gotenberg: internal error (5xx) (HTTP 500): oops: boom [trace t1]", err.Error())
	assert.ErrorIs(t, err, ErrServer)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), ErrServer)
}

func TestTransportError_ClassifiesTimeouts(t *testing.T) {
	assert.ErrorIs(t, transportError("op", "", context.DeadlineExceeded), ErrTimeout)
	assert.ErrorIs(t, transportError("op", "", errors.New("connection refused")), ErrTransport)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&Error{Sentinel: ErrTransport}))
	assert.True(t, IsRetryable(&Error{Sentinel: ErrTooManyRequests, Status: 429}))
	assert.True(t, IsRetryable(&Error{Sentinel: ErrUnavailable, Status: 503}))
	assert.False(t, IsRetryable(&Error{Sentinel: ErrUnavailable, Err: ErrCircuitOpen}))
	assert.False(t, IsRetryable(&Error{Sentinel: ErrTransport, Err: context.Canceled}))
	assert.False(t, IsRetryable(&Error{Sentinel: ErrServer, Status: 500}))
	assert.False(t, IsRetryable(&Error{Sentinel: ErrBadRequest, Status: 400}))
	assert.False(t, IsRetryable(nil))
}

func TestBreakerOutcome(t *testing.T) {
	assert.Equal(t, resilience.OutcomeSuccess, breakerOutcome(nil))
	assert.Equal(t, resilience.OutcomeFailure, breakerOutcome(&Error{Sentinel: ErrServer, Status: 500}))
	assert.Equal(t, resilience.OutcomeFailure, breakerOutcome(&Error{Sentinel: ErrTransport}))
	assert.Equal(t, resilience.OutcomeIgnore, breakerOutcome(&Error{Sentinel: ErrBadRequest, Status: 400}))
	assert.Equal(t, resilience.OutcomeIgnore, breakerOutcome(&Error{Sentinel: ErrTooManyRequests, Status: 429}))
	assert.Equal(t, resilience.OutcomeIgnore, breakerOutcome(context.Canceled))
	assert.Equal(t, resilience.OutcomeIgnore, breakerOutcome(&Error{Sentinel: ErrTransport, Err: context.Canceled}))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "success", kind(nil))
	assert.Equal(t, "circuit_open", kind(&Error{Sentinel: ErrUnavailable, Err: ErrCircuitOpen}))
	assert.Equal(t, "timeout", kind(&Error{Sentinel: ErrTimeout}))
	assert.Equal(t, "transport", kind(&Error{Sentinel: ErrTransport}))
	assert.Equal(t, "server_error", kind(&Error{Sentinel: ErrServer}))
	assert.Equal(t, "client_error", kind(&Error{Sentinel: ErrConflict}))
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	d1 := p.backoff(1)
	assert.GreaterOrEqual(t, d1, 80*time.Millisecond)
	assert.LessOrEqual(t, d1, 100*time.Millisecond)

	d2 := p.backoff(2)
	assert.GreaterOrEqual(t, d2, 160*time.Millisecond)
	assert.LessOrEqual(t, d2, 200*time.Millisecond)

	d4 := p.backoff(4)
	assert.LessOrEqual(t, d4, 300*time.Millisecond)
	assert.Zero(t, RetryPolicy{}.backoff(3))
}
