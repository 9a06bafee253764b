package decorator_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/architeacher/logistics/pkg/decorator"
	"github.com/architeacher/logistics/pkg/logger"
)

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (c *countingMetrics) Inc(_ context.Context, key string, value any, _ ...attribute.KeyValue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counts == nil {
		c.counts = make(map[string]int64)
	}

	if v, ok := value.(int64); ok {
		c.counts[key] += v

		return
	}

	c.counts[key]++
}

func (c *countingMetrics) Shutdown(context.Context) error {
	return nil
}

func (c *countingMetrics) Count(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[key]
}

func TestApplyQueryDecorators(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		handlerErr  error
		wantCounter string
		wantStatus  codes.Code
		wantLog     string
	}{
		{
			name:        "success is counted and traced",
			wantCounter: "queries.fleetquery.success",
			wantStatus:  codes.Ok,
			wantLog:     "query executed",
		},
		{
			name:        "failure is counted and recorded on the span",
			handlerErr:  errors.New("predicate rejected"),
			wantCounter: "queries.fleetquery.failure",
			wantStatus:  codes.Error,
			wantLog:     "query failed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			recorder := tracetest.NewSpanRecorder()
			provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			metricsClient := &countingMetrics{}

			handler := decorator.ApplyQueryDecorators[fleetQuery, fleetResult](
				&stubFleetHandler{result: fleetResult{TransportIDs: []string{"a"}}, err: tc.handlerErr},
				logger.NewBufferedTestLogger(&buf),
				metricsClient,
				provider,
			)

			_, err := handler.Execute(context.Background(), fleetQuery{FilterKey: "k"})
			if tc.handlerErr != nil {
				require.ErrorIs(t, err, tc.handlerErr)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, int64(1), metricsClient.Count(tc.wantCounter))
			require.Contains(t, buf.String(), tc.wantLog)
			require.Contains(t, buf.String(), `"query":"fleetQuery"`)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			require.Equal(t, "query.fleetQuery", spans[0].Name())
			require.Equal(t, tc.wantStatus, spans[0].Status().Code)
		})
	}
}
