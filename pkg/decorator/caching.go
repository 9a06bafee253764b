package decorator

import (
	"context"
	"time"
)

type (
	// CacheStatus reports how a cached query was served.
	CacheStatus string

	cacheStatusKey struct{}

	CacheConfig struct {
		Enabled bool
		TTL     time.Duration
		// SetTimeout bounds the background write of a fresh result.
		SetTimeout time.Duration
		// OnStatus, when set, observes every lookup outcome.
		OnStatus func(ctx context.Context, status CacheStatus)
		// OnSetError, when set, receives background write failures.
		OnSetError func(err error)
	}

	CacheGetter[Q Query, R Result] interface {
		Get(ctx context.Context, query Q) (R, bool, error)
	}

	CacheSetter[Q Query, R Result] interface {
		Set(ctx context.Context, query Q, result R, ttl time.Duration) error
	}

	Cache[Q Query, R Result] interface {
		CacheGetter[Q, R]
		CacheSetter[Q, R]
	}

	queryCachingDecorator[Q Query, R Result] struct {
		base   QueryHandler[Q, R]
		cache  Cache[Q, R]
		config CacheConfig
	}
)

const (
	CacheStatusHit    CacheStatus = "HIT"
	CacheStatusMiss   CacheStatus = "MISS"
	CacheStatusBypass CacheStatus = "BYPASS"
	CacheStatusError  CacheStatus = "ERROR"

	defaultSetTimeout = 2 * time.Second
)

func WithCacheStatus(ctx context.Context, status CacheStatus) context.Context {
	return context.WithValue(ctx, cacheStatusKey{}, status)
}

func GetCacheStatus(ctx context.Context) CacheStatus {
	if status, ok := ctx.Value(cacheStatusKey{}).(CacheStatus); ok {
		return status
	}

	return CacheStatusBypass
}

func NewQueryCachingDecorator[Q Query, R Result](
	base QueryHandler[Q, R],
	cache Cache[Q, R],
	config CacheConfig,
) QueryHandler[Q, R] {
	if config.SetTimeout <= 0 {
		config.SetTimeout = defaultSetTimeout
	}

	return queryCachingDecorator[Q, R]{
		base:   base,
		cache:  cache,
		config: config,
	}
}

func (d queryCachingDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	var zero R

	if !d.config.Enabled || d.cache == nil {
		return d.base.Execute(d.observe(ctx, CacheStatusBypass), query)
	}

	cached, hit, err := d.cache.Get(ctx, query)

	switch {
	case err != nil:
		ctx = d.observe(ctx, CacheStatusError)
	case hit:
		d.observe(ctx, CacheStatusHit)

		return cached, nil
	default:
		ctx = d.observe(ctx, CacheStatusMiss)
	}

	result, err := d.base.Execute(ctx, query)
	if err != nil {
		return zero, err
	}

	go d.store(context.WithoutCancel(ctx), query, result)

	return result, nil
}

func (d queryCachingDecorator[Q, R]) store(ctx context.Context, query Q, result R) {
	ctx, cancel := context.WithTimeout(ctx, d.config.SetTimeout)
	defer cancel()

	if err := d.cache.Set(ctx, query, result, d.config.TTL); err != nil && d.config.OnSetError != nil {
		d.config.OnSetError(err)
	}
}

func (d queryCachingDecorator[Q, R]) observe(ctx context.Context, status CacheStatus) context.Context {
	if d.config.OnStatus != nil {
		d.config.OnStatus(ctx, status)
	}

	return WithCacheStatus(ctx, status)
}
