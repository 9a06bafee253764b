package repos

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const transportsTable = "transports"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var transportSelectColumns = []string{
	"id", "company_id", "driver_id", "name", "status", "brand", "model", "transport_type",
	"loading_types", "risk_classes", "fixtures",
	"weight", "volume", "length", "width", "height", "pallets", "weight_extra", "volume_extra",
	"is_trailer", "dedicated", "created_at", "updated_at",
}

type (
	// PoolOps is the slice of pgxpool.Pool the repositories use.
	PoolOps interface {
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		Ping(ctx context.Context) error
	}

	TransportsRepository struct {
		pool       PoolOps
		scanner    Scanner
		logger     logger.Logger
		translator *PredicateTranslator
	}

	transportRow struct {
		ID            string    `db:"id"`
		CompanyID     string    `db:"company_id"`
		DriverID      *string   `db:"driver_id"`
		Name          string    `db:"name"`
		Status        string    `db:"status"`
		Brand         *string   `db:"brand"`
		Model         *string   `db:"model"`
		TransportType *string   `db:"transport_type"`
		LoadingTypes  []string  `db:"loading_types"`
		RiskClasses   []string  `db:"risk_classes"`
		Fixtures      []string  `db:"fixtures"`
		Weight        float64   `db:"weight"`
		Volume        float64   `db:"volume"`
		Length        float64   `db:"length"`
		Width         float64   `db:"width"`
		Height        float64   `db:"height"`
		Pallets       int       `db:"pallets"`
		WeightExtra   float64   `db:"weight_extra"`
		VolumeExtra   float64   `db:"volume_extra"`
		IsTrailer     bool      `db:"is_trailer"`
		Dedicated     bool      `db:"dedicated"`
		CreatedAt     time.Time `db:"created_at"`
		UpdatedAt     time.Time `db:"updated_at"`
	}
)

func NewTransportsRepository(
	pool PoolOps,
	scanner Scanner,
	translator *PredicateTranslator,
	log logger.Logger,
) *TransportsRepository {
	return &TransportsRepository{
		pool:       pool,
		scanner:    scanner,
		translator: translator,
		logger:     log,
	}
}

func (r *TransportsRepository) Find(
	ctx context.Context,
	predicate model.Predicate,
	sorting ...model.SortField,
) ([]model.Transport, error) {
	builder := psql.Select(transportSelectColumns...).From(transportsTable)
	builder = r.translator.ApplyConditions(builder, predicate)
	builder = r.translator.ApplySorting(builder, sorting)

	return r.queryTransports(ctx, builder)
}

func (r *TransportsRepository) FetchByID(ctx context.Context, id model.TransportID) (*model.Transport, error) {
	return r.findOne(
		ctx,
		psql.Select(transportSelectColumns...).
			From(transportsTable).
			Where(sq.Eq{"id": id.String()}).
			Limit(1),
		model.ErrTransportNotFound,
	)
}

// FetchTrailerForDriver returns the oldest active trailer assigned to driverID.
func (r *TransportsRepository) FetchTrailerForDriver(ctx context.Context, driverID uuid.UUID) (*model.Transport, error) {
	return r.findOne(
		ctx,
		psql.Select(transportSelectColumns...).
			From(transportsTable).
			Where(sq.Eq{"is_trailer": true}).
			Where(sq.Eq{"status": string(model.TransportStatusActive)}).
			Where(sq.Eq{"driver_id": driverID.String()}).
			OrderBy("created_at ASC").
			Limit(1),
		model.ErrTrailerNotFound,
	)
}

func (r *TransportsRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *TransportsRepository) findOne(
	ctx context.Context,
	builder sq.SelectBuilder,
	notFound error,
) (*model.Transport, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var row transportRow
	if err := r.scanner.ScanOne(&row, rows); err != nil {
		if r.scanner.IsNotFound(err) {
			return nil, notFound
		}

		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return convertRowToTransport(row)
}

func (r *TransportsRepository) queryTransports(ctx context.Context, builder sq.SelectBuilder) ([]model.Transport, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	r.logger.Debug().Str("sql", query).Int("args", len(args)).Msg("querying transports")

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	return collect(r.scanner, rows, convertRowToTransport)
}

func convertRowToTransport(row transportRow) (*model.Transport, error) {
	id, err := model.ParseTransportID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transport ID: %w", err)
	}

	companyID, err := uuid.Parse(row.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse company ID: %w", err)
	}

	var driverID uuid.UUID
	if row.DriverID != nil {
		if driverID, err = uuid.Parse(*row.DriverID); err != nil {
			return nil, fmt.Errorf("failed to parse driver ID: %w", err)
		}
	}

	return &model.Transport{
		ID:            id,
		CompanyID:     companyID,
		DriverID:      driverID,
		Name:          row.Name,
		Status:        model.TransportStatus(row.Status),
		Brand:         text(row.Brand),
		Model:         text(row.Model),
		TransportType: text(row.TransportType),
		LoadingTypes:  row.LoadingTypes,
		RiskClasses:   row.RiskClasses,
		Fixtures:      row.Fixtures,
		Capacity: model.Capacity{
			Weight:      row.Weight,
			Volume:      row.Volume,
			Length:      row.Length,
			Width:       row.Width,
			Height:      row.Height,
			Pallets:     row.Pallets,
			WeightExtra: row.WeightExtra,
			VolumeExtra: row.VolumeExtra,
		},
		IsTrailer: row.IsTrailer,
		Dedicated: row.Dedicated,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func text(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
