package runtime

import (
	"context"
	"fmt"

	"github.com/architeacher/logistics/pkg/circuitbreaker"
	"github.com/architeacher/logistics/pkg/decorator"
	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/pkg/metrics"
	"github.com/architeacher/logistics/pkg/metrics/noop"
	"github.com/architeacher/logistics/services/svc-matching/internal/adapters/catalog"
	inboundgrpc "github.com/architeacher/logistics/services/svc-matching/internal/adapters/inbound/grpc"
	"github.com/architeacher/logistics/services/svc-matching/internal/adapters/repos"
	"github.com/architeacher/logistics/services/svc-matching/internal/config"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/reference"
	"github.com/architeacher/logistics/services/svc-matching/internal/infrastructure"
	infraPostgres "github.com/architeacher/logistics/services/svc-matching/internal/infrastructure/postgres"
	"github.com/architeacher/logistics/services/svc-matching/internal/services"
	"github.com/architeacher/logistics/services/svc-matching/internal/usecases"
	"github.com/architeacher/logistics/services/svc-matching/internal/usecases/queries"
	"github.com/hashicorp/vault/api"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const fleetCacheLookupsMetric = "fleet_cache_lookups"

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithSecretsRepository(),
		WithConfigLoader(ctx),
		WithLogger(),
		WithTracing(),
		WithMetrics(),
		WithReferenceCatalog(),
		WithDatabase(ctx),
		WithCache(),
		WithRepositories(),
		WithMatchingService(),
		WithApplication(),
		WithGRPCServer(),
	}
}

func WithConfig() DependencyOption {
	return func(d *dependencies) error {
		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

func WithSecretsRepository() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.SecretsStorage.Enabled {
			return nil
		}

		vaultConfig := api.DefaultConfig()
		vaultConfig.Address = d.config.SecretsStorage.Address
		vaultConfig.Timeout = d.config.SecretsStorage.Timeout
		vaultConfig.MaxRetries = int(d.config.SecretsStorage.MaxRetries)

		client, err := api.NewClient(vaultConfig)
		if err != nil {
			return fmt.Errorf("creating Vault client: %w", err)
		}

		if d.config.SecretsStorage.Namespace != "" {
			client.SetNamespace(d.config.SecretsStorage.Namespace)
		}

		d.repos.secretsRepo = repos.NewVaultRepository(client)

		return nil
	}
}

func WithConfigLoader(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.SecretsStorage.Enabled || d.repos.secretsRepo == nil {
			return nil
		}

		version, err := config.NewLoader(d.repos.secretsRepo).Load(ctx, d.config)
		if err != nil {
			return fmt.Errorf("loading secrets from Vault: %w", err)
		}

		d.secretVersion = version

		return nil
	}
}

func WithLogger() DependencyOption {
	return func(d *dependencies) error {
		d.infra.logger = logger.New(d.config.Logging.Level, d.config.Logging.Format)

		if d.secretVersion > 0 {
			d.infra.logger.Info().Uint("version", d.secretVersion).Msg("applied secrets from Vault")
		}

		return nil
	}
}

func WithTracing() DependencyOption {
	return func(d *dependencies) error {
		telemetry := d.config.Telemetry

		if !telemetry.Enabled || !telemetry.Traces.Enabled || telemetry.OTLPEndpoint == "" {
			d.infra.tracerProvider = infrastructure.NewNoopTracerProvider()

			return nil
		}

		tp, shutdown, err := infrastructure.NewTracerProvider(d.config.App, telemetry)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}

		d.infra.tracerProvider = tp
		d.cleanupFuncs["tracer"] = shutdown

		return nil
	}
}

func WithMetrics() DependencyOption {
	return func(d *dependencies) error {
		telemetry := d.config.Telemetry

		if !telemetry.Enabled || !telemetry.Metrics.Enabled {
			d.infra.metricsClient = noop.NewMetricsClient()

			return nil
		}

		provider, _, err := infrastructure.NewMeterProvider(d.config.App, telemetry)
		if err != nil {
			return fmt.Errorf("initializing meter provider: %w", err)
		}

		d.infra.metricsClient = metrics.NewOTelClient(provider.Meter(telemetry.ServiceName), provider.Shutdown)
		d.cleanupFuncs["metrics"] = d.infra.metricsClient.Shutdown

		return nil
	}
}

func WithReferenceCatalog() DependencyOption {
	return func(d *dependencies) error {
		cat, err := catalog.LoadFile(d.config.Matching.CatalogPath)
		if err != nil {
			return fmt.Errorf("loading reference catalog: %w", err)
		}

		d.services.codec = reference.NewCodec(cat, d.infra.logger)

		d.infra.logger.Info().
			Str("path", d.config.Matching.CatalogPath).
			Int("tables", len(cat.Tables())).
			Msg("reference catalog loaded")

		return nil
	}
}

func WithDatabase(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		pool, err := infraPostgres.NewPool(ctx, d.config.Database, d.config.Backoff, d.infra.logger)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		d.infra.dbPool = pool
		d.cleanupFuncs["database"] = func(context.Context) error {
			pool.Close()

			return nil
		}

		return nil
	}
}

func WithCache() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Cache.Enabled {
			return nil
		}

		client := infrastructure.NewKeyDBClient(d.config.Cache, d.infra.logger)

		d.infra.cacheClient = client
		d.repos.matchCache = repos.NewMatchCacheRepository(client, d.infra.logger)
		d.cleanupFuncs["cache"] = func(context.Context) error {
			return client.Close()
		}

		return nil
	}
}

func WithRepositories() DependencyOption {
	return func(d *dependencies) error {
		scanner := repos.NewPgxScanner()

		d.repos.transports = repos.NewTransportsRepository(
			d.infra.dbPool,
			scanner,
			repos.NewPredicateTranslator(repos.TransportColumns(), d.infra.logger),
			d.infra.logger,
		)

		d.repos.orders = repos.NewOrdersRepository(
			d.infra.dbPool,
			scanner,
			repos.NewPredicateTranslator(repos.OrderColumns(), d.infra.logger),
			d.infra.logger,
		)

		return nil
	}
}

func WithMatchingService() DependencyOption {
	return func(d *dependencies) error {
		breaker := d.config.CircuitBreaker

		cb := circuitbreaker.New[any](circuitbreaker.Config{
			Name:             "repository",
			Enabled:          breaker.Enabled,
			MaxRequests:      breaker.MaxRequests,
			Interval:         breaker.Interval,
			Timeout:          breaker.Timeout,
			FailureThreshold: breaker.FailureThreshold,
			IgnoredErrors: []error{
				model.ErrTransportNotFound,
				model.ErrOrderNotFound,
				model.ErrTrailerNotFound,
			},
		})

		d.services.matching = services.NewFilterPipeline(
			d.repos.transports,
			d.repos.orders,
			d.services.codec,
			d.infra.logger,
			services.WithCircuitBreaker(cb),
			services.WithOnlyActive(d.config.Matching.OnlyActive),
			services.WithDebugBuilders(d.config.Matching.Debug),
		)

		return nil
	}
}

func WithApplication() DependencyOption {
	return func(d *dependencies) error {
		var fleetCache decorator.Cache[queries.MatchTransportsQuery, []model.Transport]
		if d.repos.matchCache != nil {
			fleetCache = repos.NewMatchTransportsCacheAdapter(d.repos.matchCache)
		}

		log := d.infra.logger
		metricsClient := d.infra.metricsClient

		cacheConfig := decorator.CacheConfig{
			Enabled: fleetCache != nil,
			TTL:     d.config.Matching.CacheTTL,
			OnStatus: func(ctx context.Context, status decorator.CacheStatus) {
				metricsClient.Inc(ctx, fleetCacheLookupsMetric, 1, attribute.String("status", string(status)))
			},
			OnSetError: func(err error) {
				log.Warn().Err(err).Msg("failed to cache fleet match")
			},
		}

		d.app = usecases.NewApplication(
			d.services.matching,
			fleetCache,
			cacheConfig,
			d.healthDependencies(),
			d.infra.logger,
			d.infra.tracerProvider,
			d.infra.metricsClient,
		)

		return nil
	}
}

func WithGRPCServer() DependencyOption {
	return func(d *dependencies) error {
		server := grpc.NewServer(
			grpc.StatsHandler(otelgrpc.NewServerHandler(
				otelgrpc.WithTracerProvider(d.infra.tracerProvider),
			)),
			grpc.ChainUnaryInterceptor(
				inboundgrpc.ContextExtractorInterceptor(),
				inboundgrpc.AccessLogInterceptor(d.infra.logger, d.config.Logging.AccessLog),
			),
		)

		d.handlers.matching = inboundgrpc.NewMatchingHandler(d.app)
		inboundgrpc.RegisterMatchingServiceServer(server, d.handlers.matching)

		healthServer := health.NewServer()
		healthpb.RegisterHealthServer(server, healthServer)
		d.handlers.health = inboundgrpc.NewHealthHandler(d.app, healthServer, d.infra.logger)

		if d.config.GRPCServer.Reflection {
			reflection.Register(server)
		}

		d.infra.grpcServer = server
		d.infra.healthServer = healthServer

		return nil
	}
}
