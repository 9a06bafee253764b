package runtime

import (
	"context"
	"fmt"

	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/pkg/metrics"
	inboundgrpc "github.com/architeacher/logistics/services/svc-matching/internal/adapters/inbound/grpc"
	"github.com/architeacher/logistics/services/svc-matching/internal/adapters/repos"
	"github.com/architeacher/logistics/services/svc-matching/internal/config"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/reference"
	"github.com/architeacher/logistics/services/svc-matching/internal/infrastructure"
	"github.com/architeacher/logistics/services/svc-matching/internal/ports"
	"github.com/architeacher/logistics/services/svc-matching/internal/usecases"
	"github.com/jackc/pgx/v5/pgxpool"
	otelTrace "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type (
	infrastructureDep struct {
		grpcServer     *grpc.Server
		healthServer   *health.Server
		tracerProvider otelTrace.TracerProvider
		metricsClient  metrics.Client
		logger         logger.Logger
		dbPool         *pgxpool.Pool
		cacheClient    *infrastructure.KeydbClient
	}

	repositories struct {
		secretsRepo ports.SecretsRepository
		transports  *repos.TransportsRepository
		orders      *repos.OrdersRepository
		matchCache  ports.MatchCache
	}

	servicesDep struct {
		codec    *reference.Codec
		matching ports.MatchingService
	}

	handlers struct {
		matching *inboundgrpc.MatchingHandler
		health   *inboundgrpc.HealthHandler
	}

	dependencies struct {
		config        *config.ServiceConfig
		secretVersion uint

		infra infrastructureDep

		repos repositories

		services servicesDep

		app *usecases.Application

		handlers handlers

		cleanupFuncs map[string]func(ctx context.Context) error
	}

	DependencyOption func(*dependencies) error
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*dependencies, error) {
	deps := &dependencies{
		cleanupFuncs: make(map[string]func(ctx context.Context) error),
	}

	allOpts := append(defaultOptions(ctx), opts...)

	for _, opt := range allOpts {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	return deps, nil
}

// healthDependencies lists what the health report pings. The cache only
// appears when it is enabled.
func (d *dependencies) healthDependencies() map[string]ports.HealthPinger {
	pingers := map[string]ports.HealthPinger{}

	if d.repos.transports != nil {
		pingers["postgres"] = d.repos.transports
	}

	if d.repos.matchCache != nil {
		pingers["keydb"] = d.repos.matchCache
	}

	return pingers
}
