package metrics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/architeacher/logistics/pkg/metrics"
)

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) (int64, bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}

			return total, true
		}
	}

	return 0, false
}

func TestOTelClient_Inc(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		values    []any
		wantTotal int64
		wantFound bool
	}{
		{name: "int increments accumulate", values: []any{1, 2}, wantTotal: 3, wantFound: true},
		{name: "int64 durations are added", values: []any{int64(40)}, wantTotal: 40, wantFound: true},
		{name: "unsupported values are dropped", values: []any{"one"}, wantFound: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			reader := sdkmetric.NewManualReader()
			provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
			client := metrics.NewOTelClient(provider.Meter("svc-matching"), provider.Shutdown)

			for _, v := range tc.values {
				client.Inc(context.Background(), "queries.matchtransportsquery.success", v,
					attribute.String("service", "svc-matching"))
			}

			total, found := collectSum(t, reader, "queries.matchtransportsquery.success")
			require.Equal(t, tc.wantFound, found)
			require.Equal(t, tc.wantTotal, total)

			require.NoError(t, client.Shutdown(context.Background()))
		})
	}
}

func TestDescriptorFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		key      string
		wantUnit string
		wantDesc string
	}{
		{
			name:     "query duration",
			key:      "queries.listordersquery.duration_ms",
			wantUnit: "ms",
			wantDesc: "Accumulated handling time of queries.listordersquery",
		},
		{
			name:     "query failure",
			key:      "queries.matchordersquery.failure",
			wantUnit: "1",
			wantDesc: "Failed executions of queries.matchordersquery",
		},
		{
			name:     "cache lookups",
			key:      "fleet_cache_lookups",
			wantUnit: "{lookup}",
			wantDesc: "Fleet match cache lookups by status",
		},
		{
			name:     "unknown key",
			key:      "anything",
			wantUnit: "1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			descriptor := metrics.DescriptorFor(tc.key)

			require.Equal(t, tc.wantUnit, descriptor.Unit)
			require.Equal(t, tc.wantDesc, descriptor.Description)
		})
	}
}

func TestOTelClient_RegistersUnits(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	client := metrics.NewOTelClient(provider.Meter("svc-matching"), provider.Shutdown)

	client.Inc(context.Background(), "queries.listordersquery.duration_ms", int64(12))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	require.Equal(t, "ms", rm.ScopeMetrics[0].Metrics[0].Unit)

	require.NoError(t, client.Shutdown(context.Background()))
}
