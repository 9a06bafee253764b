package repos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/architeacher/logistics/services/svc-matching/internal/infrastructure"
	"github.com/architeacher/logistics/services/svc-matching/internal/ports"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	matchCacheVersion = "v1"
	fleetMatchPrefix  = "matching:fleet:" + matchCacheVersion + ":"
)

type (
	cachedTransport struct {
		ID            string           `msgpack:"id"`
		CompanyID     string           `msgpack:"company_id"`
		DriverID      string           `msgpack:"driver_id,omitempty"`
		Name          string           `msgpack:"name"`
		Status        string           `msgpack:"status"`
		Brand         string           `msgpack:"brand,omitempty"`
		Model         string           `msgpack:"model,omitempty"`
		TransportType string           `msgpack:"transport_type,omitempty"`
		LoadingTypes  []string         `msgpack:"loading_types,omitempty"`
		RiskClasses   []string         `msgpack:"risk_classes,omitempty"`
		Fixtures      []string         `msgpack:"fixtures,omitempty"`
		Capacity      model.Capacity   `msgpack:"capacity"`
		IsTrailer     bool             `msgpack:"is_trailer"`
		Dedicated     bool             `msgpack:"dedicated"`
		Trailer       *cachedTransport `msgpack:"trailer,omitempty"`
		CreatedAt     time.Time        `msgpack:"created_at"`
		UpdatedAt     time.Time        `msgpack:"updated_at"`
	}

	cachedFleetMatch struct {
		Transports []cachedTransport `msgpack:"transports"`
		CachedAt   time.Time         `msgpack:"cached_at"`
	}

	// MatchCacheRepository keeps fleet match results in KeyDB, msgpack
	// encoded and keyed by a hash of the normalised filter.
	MatchCacheRepository struct {
		client *infrastructure.KeydbClient
		logger logger.Logger
	}
)

func NewMatchCacheRepository(client *infrastructure.KeydbClient, log logger.Logger) *MatchCacheRepository {
	return &MatchCacheRepository{
		client: client,
		logger: log,
	}
}

func (r *MatchCacheRepository) GetFleetMatch(ctx context.Context, spec model.FilterSpec) (*ports.CacheResult[[]model.Transport], error) {
	key, err := FleetMatchKey(spec)
	if err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &ports.CacheResult[[]model.Transport]{Hit: false, Key: key}, nil
		}

		return nil, fmt.Errorf("getting cached fleet match: %w", err)
	}

	var cached cachedFleetMatch
	if err := msgpack.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("unmarshalling cached fleet match: %w", err)
	}

	transports := make([]model.Transport, 0, len(cached.Transports))

	for index := range cached.Transports {
		transport, err := toDomainTransport(cached.Transports[index])
		if err != nil {
			return nil, fmt.Errorf("converting cached transport at index %d: %w", index, err)
		}

		transports = append(transports, *transport)
	}

	return &ports.CacheResult[[]model.Transport]{
		Data: transports,
		Hit:  true,
		Key:  key,
		TTL:  r.client.TTL(ctx, key),
	}, nil
}

func (r *MatchCacheRepository) SetFleetMatch(
	ctx context.Context,
	spec model.FilterSpec,
	fleet []model.Transport,
	ttl time.Duration,
) error {
	key, err := FleetMatchKey(spec)
	if err != nil {
		return err
	}

	cached := cachedFleetMatch{
		Transports: make([]cachedTransport, 0, len(fleet)),
		CachedAt:   time.Now().UTC(),
	}

	for index := range fleet {
		cached.Transports = append(cached.Transports, toCachedTransport(&fleet[index]))
	}

	data, err := msgpack.Marshal(&cached)
	if err != nil {
		return fmt.Errorf("marshalling fleet match: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("setting cached fleet match: %w", err)
	}

	return nil
}

func (r *MatchCacheRepository) InvalidateFleetMatches(ctx context.Context) (int64, error) {
	var deleted int64

	err := r.client.Scan(ctx, fleetMatchPrefix+"*", func(keys []string) error {
		if err := r.client.Delete(ctx, keys...); err != nil {
			r.logger.Warn().Err(err).Int("keys", len(keys)).Msg("failed to delete keys during purge")

			return nil
		}

		deleted += int64(len(keys))

		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating fleet matches: %w", err)
	}

	return deleted, nil
}

func (r *MatchCacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// FleetMatchKey derives the cache key from the msgpack form of spec with
// sorted map keys, so equal filters share one entry.
func FleetMatchKey(spec model.FilterSpec) (string, error) {
	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)

	if err := enc.Encode(map[string]any(spec)); err != nil {
		return "", fmt.Errorf("encoding filter for cache key: %w", err)
	}

	return fmt.Sprintf("%s%016x", fleetMatchPrefix, xxhash.Sum64(buf.Bytes())), nil
}

func toCachedTransport(t *model.Transport) cachedTransport {
	cached := cachedTransport{
		ID:            t.ID.String(),
		CompanyID:     t.CompanyID.String(),
		Name:          t.Name,
		Status:        string(t.Status),
		Brand:         t.Brand,
		Model:         t.Model,
		TransportType: t.TransportType,
		LoadingTypes:  t.LoadingTypes,
		RiskClasses:   t.RiskClasses,
		Fixtures:      t.Fixtures,
		Capacity:      t.Capacity,
		IsTrailer:     t.IsTrailer,
		Dedicated:     t.Dedicated,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}

	if t.HasDriver() {
		cached.DriverID = t.DriverID.String()
	}

	if t.Trailer != nil {
		trailer := toCachedTransport(t.Trailer)
		cached.Trailer = &trailer
	}

	return cached
}

func toDomainTransport(cached cachedTransport) (*model.Transport, error) {
	id, err := model.ParseTransportID(cached.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing transport ID: %w", err)
	}

	companyID, err := uuid.Parse(cached.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("parsing company ID: %w", err)
	}

	var driverID uuid.UUID
	if cached.DriverID != "" {
		if driverID, err = uuid.Parse(cached.DriverID); err != nil {
			return nil, fmt.Errorf("parsing driver ID: %w", err)
		}
	}

	transport := &model.Transport{
		ID:            id,
		CompanyID:     companyID,
		DriverID:      driverID,
		Name:          cached.Name,
		Status:        model.TransportStatus(cached.Status),
		Brand:         cached.Brand,
		Model:         cached.Model,
		TransportType: cached.TransportType,
		LoadingTypes:  cached.LoadingTypes,
		RiskClasses:   cached.RiskClasses,
		Fixtures:      cached.Fixtures,
		Capacity:      cached.Capacity,
		IsTrailer:     cached.IsTrailer,
		Dedicated:     cached.Dedicated,
		CreatedAt:     cached.CreatedAt,
		UpdatedAt:     cached.UpdatedAt,
	}

	if cached.Trailer != nil {
		if transport.Trailer, err = toDomainTransport(*cached.Trailer); err != nil {
			return nil, fmt.Errorf("converting trailer: %w", err)
		}
	}

	return transport, nil
}
