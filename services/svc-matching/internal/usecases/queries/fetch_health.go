package queries

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/architeacher/logistics/pkg/decorator"
	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/pkg/metrics"
	"github.com/architeacher/logistics/services/svc-matching/internal/config"
	"github.com/architeacher/logistics/services/svc-matching/internal/ports"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

type (
	FetchHealthReportQuery struct{}

	HealthResult struct {
		Status       string                            `json:"status"`
		Version      string                            `json:"version"`
		Uptime       string                            `json:"uptime"`
		Dependencies map[string]ports.DependencyStatus `json:"dependencies"`
	}

	FetchHealthReportQueryHandler = decorator.QueryHandler[FetchHealthReportQuery, *HealthResult]

	fetchHealthReportQueryHandler struct {
		dependencies map[string]ports.HealthPinger
		startTime    time.Time
	}
)

// NewFetchHealthReportQueryHandler pings every named dependency. The report
// is unhealthy as soon as one of them fails.
func NewFetchHealthReportQueryHandler(
	dependencies map[string]ports.HealthPinger,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) FetchHealthReportQueryHandler {
	return decorator.ApplyQueryDecorators[FetchHealthReportQuery, *HealthResult](
		fetchHealthReportQueryHandler{
			dependencies: maps.Clone(dependencies),
			startTime:    time.Now(),
		},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h fetchHealthReportQueryHandler) Execute(ctx context.Context, _ FetchHealthReportQuery) (*HealthResult, error) {
	dependencies := make(map[string]ports.DependencyStatus, len(h.dependencies))
	overallStatus := HealthStatusHealthy

	for _, name := range slices.Sorted(maps.Keys(h.dependencies)) {
		start := time.Now()
		err := h.dependencies[name].Ping(ctx)
		latency := time.Since(start)

		status := ports.DependencyStatus{
			Healthy: err == nil,
			Latency: fmt.Sprintf("%dms", latency.Milliseconds()),
		}

		if err != nil {
			status.Message = err.Error()
			overallStatus = HealthStatusUnhealthy
		}

		dependencies[name] = status
	}

	return &HealthResult{
		Status:       overallStatus,
		Version:      config.ServiceVersion,
		Uptime:       time.Since(h.startTime).String(),
		Dependencies: dependencies,
	}, nil
}
