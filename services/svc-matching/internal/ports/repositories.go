package ports

import (
	"context"

	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/google/uuid"
)

type (
	TransportFinder interface {
		// Find returns every transport satisfying predicate. A nil predicate
		// returns the whole collection.
		Find(ctx context.Context, predicate model.Predicate, sorting ...model.SortField) ([]model.Transport, error)
	}

	TransportFetcher interface {
		FetchByID(ctx context.Context, id model.TransportID) (*model.Transport, error)
		// FetchTrailerForDriver returns the driver's oldest active trailer.
		FetchTrailerForDriver(ctx context.Context, driverID uuid.UUID) (*model.Transport, error)
	}

	TransportsRepository interface {
		TransportFinder
		TransportFetcher
	}

	OrdersRepository interface {
		Find(ctx context.Context, predicate model.Predicate, page model.Page, sorting ...model.SortField) (*model.OrderList, error)
		FetchByID(ctx context.Context, id model.OrderID) (*model.Order, error)
	}
)
