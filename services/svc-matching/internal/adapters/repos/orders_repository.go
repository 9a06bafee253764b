package repos

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/google/uuid"
)

const ordersTable = "orders"

var orderSelectColumns = []string{
	"id", "company_id", "name", "status", "stage", "payload", "payment_type", "destination_type",
	"transport_type", "loading_types", "risk_class", "fixtures",
	"weight", "volume", "length", "width", "height", "pallets",
	"dedicated", "created_at", "updated_at",
}

type (
	OrdersRepository struct {
		pool       PoolOps
		scanner    Scanner
		logger     logger.Logger
		translator *PredicateTranslator
	}

	orderRow struct {
		ID              string    `db:"id"`
		CompanyID       string    `db:"company_id"`
		Name            string    `db:"name"`
		Status          string    `db:"status"`
		Stage           *string   `db:"stage"`
		Payload         *string   `db:"payload"`
		PaymentType     *string   `db:"payment_type"`
		DestinationType *string   `db:"destination_type"`
		TransportType   *string   `db:"transport_type"`
		LoadingTypes    []string  `db:"loading_types"`
		RiskClass       *string   `db:"risk_class"`
		Fixtures        []string  `db:"fixtures"`
		Weight          float64   `db:"weight"`
		Volume          float64   `db:"volume"`
		Length          float64   `db:"length"`
		Width           float64   `db:"width"`
		Height          float64   `db:"height"`
		Pallets         int       `db:"pallets"`
		Dedicated       bool      `db:"dedicated"`
		CreatedAt       time.Time `db:"created_at"`
		UpdatedAt       time.Time `db:"updated_at"`
	}

	orderRowWithCount struct {
		orderRow
		TotalCount uint `db:"total_count"`
	}
)

func NewOrdersRepository(
	pool PoolOps,
	scanner Scanner,
	translator *PredicateTranslator,
	log logger.Logger,
) *OrdersRepository {
	return &OrdersRepository{
		pool:       pool,
		scanner:    scanner,
		translator: translator,
		logger:     log,
	}
}

func (r *OrdersRepository) Find(
	ctx context.Context,
	predicate model.Predicate,
	page model.Page,
	sorting ...model.SortField,
) (*model.OrderList, error) {
	columns := append(append([]string(nil), orderSelectColumns...), "COUNT(*) OVER() as total_count")

	builder := psql.Select(columns...).From(ordersTable)
	builder = r.translator.ApplyConditions(builder, predicate)
	builder = r.translator.ApplySorting(builder, sorting)
	builder = r.translator.ApplyPagination(builder, page)

	orders, total, err := r.queryOrdersWithCount(ctx, builder)
	if err != nil {
		return nil, err
	}

	return &model.OrderList{
		Orders: orders,
		Page:   page,
		Total:  total,
	}, nil
}

func (r *OrdersRepository) FetchByID(ctx context.Context, id model.OrderID) (*model.Order, error) {
	query, args, err := psql.Select(orderSelectColumns...).
		From(ordersTable).
		Where(sq.Eq{"id": id.String()}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var row orderRow
	if err := r.scanner.ScanOne(&row, rows); err != nil {
		if r.scanner.IsNotFound(err) {
			return nil, model.ErrOrderNotFound
		}

		return nil, fmt.Errorf("order with ID %s: %w", id.String(), err)
	}

	return convertRowToOrder(row)
}

func (r *OrdersRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *OrdersRepository) queryOrdersWithCount(ctx context.Context, builder sq.SelectBuilder) ([]model.Order, uint, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	// Every row carries the same window count.
	var total uint

	orders, err := collect(r.scanner, rows, func(row orderRowWithCount) (*model.Order, error) {
		total = row.TotalCount

		return convertRowToOrder(row.orderRow)
	})
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func convertRowToOrder(row orderRow) (*model.Order, error) {
	id, err := model.ParseOrderID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order ID: %w", err)
	}

	companyID, err := uuid.Parse(row.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse company ID: %w", err)
	}

	return &model.Order{
		ID:              id,
		CompanyID:       companyID,
		Name:            row.Name,
		Status:          row.Status,
		Stage:           text(row.Stage),
		Payload:         text(row.Payload),
		PaymentType:     text(row.PaymentType),
		DestinationType: text(row.DestinationType),
		TransportType:   text(row.TransportType),
		LoadingTypes:    row.LoadingTypes,
		RiskClass:       text(row.RiskClass),
		Fixtures:        row.Fixtures,
		Cargo: model.Cargo{
			Weight:  row.Weight,
			Volume:  row.Volume,
			Length:  row.Length,
			Width:   row.Width,
			Height:  row.Height,
			Pallets: row.Pallets,
		},
		Dedicated: row.Dedicated,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
