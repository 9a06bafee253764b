package circuitbreaker

import "errors"

var (
	// ErrCircuitOpen is returned while the breaker rejects every call.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests is returned while half-open once the probe budget is spent.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)
