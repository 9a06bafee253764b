package repos

import (
	"context"
	"time"

	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/architeacher/logistics/services/svc-matching/internal/ports"
	"github.com/architeacher/logistics/services/svc-matching/internal/usecases/queries"
)

// MatchTransportsCacheAdapter adapts MatchCache for MatchTransportsQuery.
type MatchTransportsCacheAdapter struct {
	cache ports.MatchCache
}

func NewMatchTransportsCacheAdapter(cache ports.MatchCache) *MatchTransportsCacheAdapter {
	return &MatchTransportsCacheAdapter{cache: cache}
}

func (a *MatchTransportsCacheAdapter) Get(ctx context.Context, query queries.MatchTransportsQuery) ([]model.Transport, bool, error) {
	result, err := a.cache.GetFleetMatch(ctx, query.Filter)
	if err != nil {
		return nil, false, err
	}

	return result.Data, result.Hit, nil
}

func (a *MatchTransportsCacheAdapter) Set(
	ctx context.Context,
	query queries.MatchTransportsQuery,
	fleet []model.Transport,
	ttl time.Duration,
) error {
	return a.cache.SetFleetMatch(ctx, query.Filter, fleet, ttl)
}
