package gotenberg

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/ManuGH/gotenberg-client/internal/resilience"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrBadRequest      = errors.New("gotenberg: invalid request")
	ErrUnauthorized    = errors.New("gotenberg: unauthorized")
	ErrNotFound        = errors.New("gotenberg: route not found")
	ErrConflict        = errors.New("gotenberg: conflicting request")
	ErrPayloadTooLarge = errors.New("gotenberg: payload too large")
	ErrTooManyRequests = errors.New("gotenberg: too many requests")
	ErrUnavailable     = errors.New("gotenberg: service unavailable")
	ErrTimeout         = errors.New("gotenberg: request timed out")
	ErrServer          = errors.New("gotenberg: internal error (5xx)")
	ErrTransport       = errors.New("gotenberg: host unreachable or transport failure")
	ErrBadResponse     = errors.New("gotenberg: invalid response format")
	ErrNoInput         = errors.New("gotenberg: missing required input")

	// ErrCircuitOpen is returned without contacting Gotenberg while the breaker is open.
	ErrCircuitOpen = resilience.ErrCircuitOpen
)

// maxErrorBody bounds how much of an error response is kept on *Error.
const maxErrorBody = 4 << 10

// Error is a rich error type that wraps the sentinel errors with context.
type Error struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Trace     string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Trace != "" {
		msg = fmt.Sprintf("%s [trace %s]", msg, e.Trace)
	}
	return msg
}

// Unwrap exposes both the sentinel and the nested cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// sentinelForStatus maps a Gotenberg HTTP status to its sentinel.
func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrBadRequest
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusRequestEntityTooLarge:
		return ErrPayloadTooLarge
	case status == http.StatusTooManyRequests:
		return ErrTooManyRequests
	case status == http.StatusServiceUnavailable:
		return ErrUnavailable
	case status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status >= 500:
		return ErrServer
	default:
		return ErrBadRequest
	}
}

// transportError classifies an error returned by http.Client.Do.
func transportError(op, trace string, err error) *Error {
	sentinel := ErrTransport
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		sentinel = ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		sentinel = ErrTimeout
	}
	return &Error{Sentinel: sentinel, Operation: op, Trace: trace, Err: err}
}

// IsRetryable reports whether err is worth another attempt: transport
// failures, 429 and 503. Cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrTooManyRequests) ||
		errors.Is(err, ErrUnavailable) && !errors.Is(err, ErrCircuitOpen)
}

// breakerOutcome decides how err moves the circuit breaker. Caller
// mistakes (4xx) and cancellations say nothing about Gotenberg's health.
func breakerOutcome(err error) resilience.Outcome {
	if err == nil {
		return resilience.OutcomeSuccess
	}
	if errors.Is(err, context.Canceled) {
		return resilience.OutcomeIgnore
	}
	var gerr *Error
	if errors.As(err, &gerr) && gerr.Status > 0 && gerr.Status < 500 {
		return resilience.OutcomeIgnore
	}
	return resilience.OutcomeFailure
}

// kind returns a short label for metrics and span attributes.
func kind(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrServer):
		return "server_error"
	default:
		return "client_error"
	}
}
