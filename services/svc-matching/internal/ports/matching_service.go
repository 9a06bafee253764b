package ports

import (
	"context"

	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
)

// MatchingService runs filters through normalisation, persistence and
// capacity matching.
type MatchingService interface {
	MatchFleet(ctx context.Context, spec model.FilterSpec) ([]model.Transport, error)
	MatchOrdersForTransport(ctx context.Context, id model.TransportID, spec model.FilterSpec, page model.Page) (*model.OrderList, error)
	ListOrders(ctx context.Context, spec model.FilterSpec, page model.Page, sorting ...model.SortField) (*model.OrderList, error)
	// Explain returns the predicate the repositories would receive for spec.
	Explain(entity model.Entity, spec model.FilterSpec) (model.Predicate, error)
}
