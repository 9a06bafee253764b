package circuitbreaker

import "time"

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name identifies the circuit breaker in logs.
	Name string

	// Enabled determines whether the circuit breaker is active.
	// When false, New returns nil and Execute passes through directly.
	Enabled bool

	// MaxRequests is the number of probe requests allowed while half-open.
	// Zero allows a single request.
	MaxRequests uint

	// Interval is the cyclic period of the closed state after which the
	// internal counts are cleared. Zero never clears them.
	Interval time.Duration

	// Timeout is the period of the open state before moving to half-open.
	// Zero defaults to 60 seconds.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that trips the
	// breaker from closed to open.
	FailureThreshold uint

	// IgnoredErrors are expected outcomes (e.g. not found) that count as
	// successes and never trip the breaker.
	IgnoredErrors []error
}
