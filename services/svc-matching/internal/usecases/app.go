package usecases

import (
	"github.com/architeacher/logistics/pkg/decorator"
	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/pkg/metrics"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/architeacher/logistics/services/svc-matching/internal/ports"
	"github.com/architeacher/logistics/services/svc-matching/internal/usecases/queries"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	Queries struct {
		MatchTransports   queries.MatchTransportsQueryHandler
		MatchOrders       queries.MatchOrdersQueryHandler
		ListOrders        queries.ListOrdersQueryHandler
		ExplainFilter     queries.ExplainFilterQueryHandler
		FetchHealthReport queries.FetchHealthReportQueryHandler
	}

	Application struct {
		Queries Queries
	}
)

func NewApplication(
	matchingSvc ports.MatchingService,
	fleetCache decorator.Cache[queries.MatchTransportsQuery, []model.Transport],
	cacheConfig decorator.CacheConfig,
	dependencies map[string]ports.HealthPinger,
	log logger.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient metrics.Client,
) *Application {
	return &Application{
		Queries: Queries{
			MatchTransports:   queries.NewMatchTransportsQueryHandler(matchingSvc, fleetCache, cacheConfig, log, metricsClient, tracerProvider),
			MatchOrders:       queries.NewMatchOrdersQueryHandler(matchingSvc, log, metricsClient, tracerProvider),
			ListOrders:        queries.NewListOrdersQueryHandler(matchingSvc, log, metricsClient, tracerProvider),
			ExplainFilter:     queries.NewExplainFilterQueryHandler(matchingSvc, log, metricsClient, tracerProvider),
			FetchHealthReport: queries.NewFetchHealthReportQueryHandler(dependencies, log, metricsClient, tracerProvider),
		},
	}
}
