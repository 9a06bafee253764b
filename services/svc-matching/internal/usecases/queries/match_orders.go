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
	MatchOrdersQuery struct {
		TransportID model.TransportID
		Filter      model.FilterSpec
		Page        model.Page
	}

	MatchOrdersQueryHandler = decorator.QueryHandler[MatchOrdersQuery, *model.OrderList]

	matchOrdersQueryHandler struct {
		matchingService ports.MatchingService
	}
)

func NewMatchOrdersQueryHandler(
	svc ports.MatchingService,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) MatchOrdersQueryHandler {
	return decorator.ApplyQueryDecorators[MatchOrdersQuery, *model.OrderList](
		matchOrdersQueryHandler{matchingService: svc},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h matchOrdersQueryHandler) Execute(ctx context.Context, query MatchOrdersQuery) (*model.OrderList, error) {
	return h.matchingService.MatchOrdersForTransport(ctx, query.TransportID, query.Filter, query.Page)
}
