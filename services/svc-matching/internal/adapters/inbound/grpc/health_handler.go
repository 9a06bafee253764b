package grpc

import (
	"context"
	"time"

	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/usecases"
	"github.com/architeacher/logistics/services/svc-matching/internal/usecases/queries"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthHandler mirrors the health report into the standard gRPC health
// service, both for the server as a whole and for MatchingService.
type HealthHandler struct {
	app    *usecases.Application
	server *health.Server
	logger logger.Logger
}

func NewHealthHandler(app *usecases.Application, server *health.Server, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		app:    app,
		server: server,
		logger: log.Component("health"),
	}
}

func (h *HealthHandler) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	servingStatus := healthpb.HealthCheckResponse_SERVING

	report, err := h.app.Queries.FetchHealthReport.Execute(ctx, queries.FetchHealthReportQuery{})

	switch {
	case err != nil:
		h.logger.Warn().Err(err).Msg("failed to fetch health report")

		servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
	case report.Status != queries.HealthStatusHealthy:
		for name, dependency := range report.Dependencies {
			if !dependency.Healthy {
				h.logger.Warn().Str("dependency", name).Str("reason", dependency.Message).Msg("dependency unhealthy")
			}
		}

		servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.server.SetServingStatus("", servingStatus)
	h.server.SetServingStatus(MatchingServiceName, servingStatus)

	return servingStatus
}

// Run refreshes the serving status every interval until ctx is done.
func (h *HealthHandler) Run(ctx context.Context, interval time.Duration) {
	h.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}
