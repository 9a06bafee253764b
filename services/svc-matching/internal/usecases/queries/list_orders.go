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
	ListOrdersQuery struct {
		Filter  model.FilterSpec
		Page    model.Page
		Sorting []model.SortField
	}

	ListOrdersQueryHandler = decorator.QueryHandler[ListOrdersQuery, *model.OrderList]

	listOrdersQueryHandler struct {
		matchingService ports.MatchingService
	}
)

func NewListOrdersQueryHandler(
	svc ports.MatchingService,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ListOrdersQueryHandler {
	return decorator.ApplyQueryDecorators[ListOrdersQuery, *model.OrderList](
		listOrdersQueryHandler{matchingService: svc},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h listOrdersQueryHandler) Execute(ctx context.Context, query ListOrdersQuery) (*model.OrderList, error) {
	return h.matchingService.ListOrders(ctx, query.Filter, query.Page, query.Sorting...)
}
