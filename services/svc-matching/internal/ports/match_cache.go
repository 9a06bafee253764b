package ports

import (
	"context"
	"time"

	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
)

type (
	CacheResult[T any] struct {
		Data T
		Hit  bool
		Key  string
		TTL  time.Duration
	}

	// MatchCache stores fleet match results keyed by the normalised filter.
	MatchCache interface {
		GetFleetMatch(ctx context.Context, spec model.FilterSpec) (*CacheResult[[]model.Transport], error)
		SetFleetMatch(ctx context.Context, spec model.FilterSpec, fleet []model.Transport, ttl time.Duration) error
		// InvalidateFleetMatches drops every cached match and returns how many
		// entries were removed.
		InvalidateFleetMatches(ctx context.Context) (int64, error)
		Ping(ctx context.Context) error
	}
)
