package metrics

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	durationSuffix = ".duration_ms"
	successSuffix  = ".success"
	failureSuffix  = ".failure"
)

type (
	Client interface {
		Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue)
		Shutdown(ctx context.Context) error
	}

	// Descriptor defines metadata used when registering OTEL instruments.
	Descriptor struct {
		Description string
		Unit        string
	}
)

// known holds descriptors for keys that are not derived from a query name.
var known = map[string]Descriptor{
	"fleet_cache_lookups": {Description: "Fleet match cache lookups by status", Unit: "{lookup}"},
}

// DescriptorFor names the unit and description of key. Query keys follow
// queries.<name>.{duration_ms,success,failure}.
func DescriptorFor(key string) Descriptor {
	if descriptor, ok := known[key]; ok {
		return descriptor
	}

	switch {
	case strings.HasSuffix(key, durationSuffix):
		return Descriptor{Description: "Accumulated handling time of " + strings.TrimSuffix(key, durationSuffix), Unit: "ms"}
	case strings.HasSuffix(key, successSuffix):
		return Descriptor{Description: "Successful executions of " + strings.TrimSuffix(key, successSuffix), Unit: "1"}
	case strings.HasSuffix(key, failureSuffix):
		return Descriptor{Description: "Failed executions of " + strings.TrimSuffix(key, failureSuffix), Unit: "1"}
	default:
		return Descriptor{Unit: "1"}
	}
}

// RegisterInt64Counter creates an Int64 counter using the provided descriptor.
func RegisterInt64Counter(m metric.Meter, descriptor Descriptor, name string) (metric.Int64Counter, error) {
	counter, err := m.Int64Counter(
		name,
		metric.WithDescription(descriptor.Description),
		metric.WithUnit(descriptor.Unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", name, err)
	}

	return counter, nil
}
