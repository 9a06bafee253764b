package queries

import (
	"context"

	"github.com/architeacher/logistics/pkg/decorator"
	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/pkg/metrics"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/architeacher/logistics/services/svc-matching/internal/ports"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	MatchTransportsQuery struct {
		Filter model.FilterSpec
	}

	MatchTransportsQueryHandler = decorator.QueryHandler[MatchTransportsQuery, []model.Transport]

	matchTransportsQueryHandler struct {
		matchingService ports.MatchingService
	}
)

// NewMatchTransportsQueryHandler serves fleet matches through cache when
// one is given. A nil cache bypasses caching.
func NewMatchTransportsQueryHandler(
	svc ports.MatchingService,
	cache decorator.Cache[MatchTransportsQuery, []model.Transport],
	cacheConfig decorator.CacheConfig,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) MatchTransportsQueryHandler {
	var handler decorator.QueryHandler[MatchTransportsQuery, []model.Transport] = matchTransportsQueryHandler{
		matchingService: svc,
	}

	handler = decorator.NewQueryCachingDecorator(handler, cache, cacheConfig)

	return decorator.ApplyQueryDecorators(handler, log, metricsClient, tracerProvider)
}

func (h matchTransportsQueryHandler) Execute(ctx context.Context, query MatchTransportsQuery) ([]model.Transport, error) {
	return h.matchingService.MatchFleet(ctx, query.Filter)
}
