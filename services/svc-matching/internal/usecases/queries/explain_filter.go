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
	// ExplainFilterQuery asks for the predicate a filter turns into without
	// touching the database.
	ExplainFilterQuery struct {
		Entity model.Entity
		Filter model.FilterSpec
	}

	ExplainFilterQueryHandler = decorator.QueryHandler[ExplainFilterQuery, model.Predicate]

	explainFilterQueryHandler struct {
		matchingService ports.MatchingService
	}
)

func NewExplainFilterQueryHandler(
	svc ports.MatchingService,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ExplainFilterQueryHandler {
	return decorator.ApplyQueryDecorators[ExplainFilterQuery, model.Predicate](
		explainFilterQueryHandler{matchingService: svc},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h explainFilterQueryHandler) Execute(_ context.Context, query ExplainFilterQuery) (model.Predicate, error) {
	return h.matchingService.Explain(query.Entity, query.Filter)
}
