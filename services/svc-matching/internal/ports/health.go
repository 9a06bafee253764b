package ports

import "context"

type DependencyStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthPinger is any dependency that can report liveness.
type HealthPinger interface {
	Ping(ctx context.Context) error
}
