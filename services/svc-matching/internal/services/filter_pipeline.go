package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/architeacher/logistics/pkg/circuitbreaker"
	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/reference"
	"github.com/architeacher/logistics/services/svc-matching/internal/ports"
)

type (
	PipelineOption func(*FilterPipeline)

	// FilterPipeline normalises raw filters, hands the persisted part to the
	// repositories and runs the capacity matcher over what comes back.
	FilterPipeline struct {
		transports ports.TransportsRepository
		orders     ports.OrdersRepository
		codec      *reference.Codec
		cb         *circuitbreaker.CircuitBreaker[any]
		log        logger.Logger
		logger     logger.Logger
		onlyActive bool
		debug      bool
	}
)

var (
	transportTables = map[string]reference.TableKey{
		"brand":         reference.TableTransportBrand,
		"model":         reference.TableTransportModel,
		"transportType": reference.TableTransportType,
		"riskClass":     reference.TableRiskClass,
		"riskClasses":   reference.TableRiskClass,
		"loadingTypes":  reference.TableLoadingTypes,
		"fixtures":      reference.TableFixtures,
		"dedicated":     reference.TableDedicatedMachine,
	}

	orderTables = map[string]reference.TableKey{
		"status":          reference.TableOrderStatus,
		"stage":           reference.TableOrderStage,
		"payload":         reference.TableTransportPayload,
		"paymentType":     reference.TablePaymentTypes,
		"destinationType": reference.TableDestinationType,
		"transportType":   reference.TableTransportType,
		"riskClass":       reference.TableRiskClass,
		"loadingTypes":    reference.TableLoadingTypes,
		"fixtures":        reference.TableFixtures,
		"dedicated":       reference.TableDedicatedMachine,
	}

	// Keys compared by equality regardless of strict mode.
	transportExactKeys = []string{"id", "companyId", "driverId", "status", "isTrailer", "dedicated", "createdAt", "updatedAt"}
	orderExactKeys     = []string{"id", "companyId", "status", "stage", "dedicated", "createdAt", "updatedAt"}

	booleanKeys = []string{"dedicated", "isTrailer"}
)

// WithCircuitBreaker routes every repository call through cb.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker[any]) PipelineOption {
	return func(p *FilterPipeline) {
		p.cb = cb
	}
}

// WithOnlyActive drops inactive transports before matching.
func WithOnlyActive(onlyActive bool) PipelineOption {
	return func(p *FilterPipeline) {
		p.onlyActive = onlyActive
	}
}

// WithDebugBuilders makes predicate builders log every recorded term.
func WithDebugBuilders(debug bool) PipelineOption {
	return func(p *FilterPipeline) {
		p.debug = debug
	}
}

func NewFilterPipeline(
	transports ports.TransportsRepository,
	orders ports.OrdersRepository,
	codec *reference.Codec,
	log logger.Logger,
	opts ...PipelineOption,
) *FilterPipeline {
	pipeline := &FilterPipeline{
		transports: transports,
		orders:     orders,
		codec:      codec,
		log:        log,
		logger:     log.Component("filter-pipeline"),
	}

	for _, opt := range opts {
		opt(pipeline)
	}

	return pipeline
}

// NormalizeTransportFilter returns a copy of spec with external reference
// codes replaced by domain values.
func (p *FilterPipeline) NormalizeTransportFilter(spec model.FilterSpec) model.FilterSpec {
	return p.normalize(spec, transportTables)
}

func (p *FilterPipeline) NormalizeOrderFilter(spec model.FilterSpec) model.FilterSpec {
	return p.normalize(spec, orderTables)
}

// TransportPredicate builds the persisted part of a fleet filter. Capacity
// and membership keys are left to the matcher.
func (p *FilterPipeline) TransportPredicate(spec model.FilterSpec) model.Predicate {
	held := append(model.EnvelopeKeys(), model.MembershipKeys...)

	builder := p.builder(spec.Without(held...), model.TransportAttributes, transportExactKeys)

	return query(builder)
}

// OrderPredicate builds an order filter. A scalar capacity value selects
// orders whose cargo fits into it.
func (p *FilterPipeline) OrderPredicate(spec model.FilterSpec) model.Predicate {
	builder := p.builder(spec.Without(model.EnvelopeKeys()...), model.OrderAttributes, orderExactKeys)

	for _, key := range model.EnvelopeKeys() {
		if !spec.Has(key) {
			continue
		}

		if r, ok := spec[key].(model.Range); ok {
			builder.Between(key, r.Min, r.Max)

			continue
		}

		builder.LteOrNull(key, spec[key])
	}

	return query(builder)
}

func (p *FilterPipeline) MatchFleet(ctx context.Context, spec model.FilterSpec) ([]model.Transport, error) {
	normalized := p.NormalizeTransportFilter(spec)
	predicate := p.fleetPredicate(normalized)

	result, err := circuitbreaker.Execute(p.cb, func() (any, error) {
		return p.transports.Find(ctx, predicate, model.SortField{Field: "createdAt", Direction: model.SortAsc})
	})
	if err != nil {
		return nil, fmt.Errorf("finding transports: %w", err)
	}

	candidates := result.([]model.Transport)
	fleet := model.FilterFleet(candidates, model.TransportFilterFromSpec(normalized), p.onlyActive)

	p.logger.Debug().
		Int("candidates", len(candidates)).
		Int("matched", len(fleet)).
		Msg("fleet matched")

	return fleet, nil
}

// MatchOrdersForTransport lists the orders the transport can carry, alone or
// with its driver's active trailer. Candidates are read unpaged because the
// in-memory checks decide membership, so page and Total describe the matched
// orders only.
func (p *FilterPipeline) MatchOrdersForTransport(
	ctx context.Context,
	id model.TransportID,
	spec model.FilterSpec,
	page model.Page,
) (*model.OrderList, error) {
	transport, err := p.fetchTransport(ctx, id)
	if err != nil {
		return nil, err
	}

	if transport.IsTrailer {
		return nil, fmt.Errorf("matching orders for %s: %w", id, model.ErrTransportIsTrailer)
	}

	if p.onlyActive && !transport.IsActive() {
		return &model.OrderList{Orders: []model.Order{}, Page: page}, nil
	}

	trailer, err := p.fetchTrailer(ctx, *transport)
	if err != nil {
		return nil, err
	}

	var trailerCapacity *model.Capacity
	if trailer != nil {
		trailerCapacity = &trailer.Capacity
	}

	predicate := p.OrderPredicate(p.NormalizeOrderFilter(spec))
	predicate = must(predicate, p.reachPredicate(transport.Capacity, trailerCapacity))

	candidates, err := p.findOrders(ctx, predicate, model.Page{})
	if err != nil {
		return nil, err
	}

	matched := make([]model.Order, 0, len(candidates.Orders))

	for _, order := range candidates.Orders {
		if !order.AcceptsTransport(*transport) {
			continue
		}

		if _, ok := model.MatchTransport(*transport, trailer, model.EnvelopeFromOrder(order)); !ok {
			continue
		}

		matched = append(matched, order)
	}

	p.logger.Debug().
		Str("transport_id", id.String()).
		Bool("with_trailer", trailer != nil).
		Int("candidates", len(candidates.Orders)).
		Int("matched", len(matched)).
		Msg("orders matched")

	return model.PageOrders(matched, page), nil
}

func (p *FilterPipeline) ListOrders(
	ctx context.Context,
	spec model.FilterSpec,
	page model.Page,
	sorting ...model.SortField,
) (*model.OrderList, error) {
	return p.findOrders(ctx, p.OrderPredicate(p.NormalizeOrderFilter(spec)), page, sorting...)
}

// Explain normalises spec and returns the predicate MatchFleet or ListOrders
// would send to the repository.
func (p *FilterPipeline) Explain(entity model.Entity, spec model.FilterSpec) (model.Predicate, error) {
	switch entity {
	case model.EntityTransports:
		return p.fleetPredicate(p.NormalizeTransportFilter(spec)), nil
	case model.EntityOrders:
		return p.OrderPredicate(p.NormalizeOrderFilter(spec)), nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownEntity, entity)
	}
}

func (p *FilterPipeline) fleetPredicate(normalized model.FilterSpec) model.Predicate {
	predicate := p.TransportPredicate(normalized)
	if predicate == nil {
		return nil
	}

	// Trailers are paired in memory, so active ones must survive the tractor
	// filter.
	return predicate.Should(activeTrailers())
}

func activeTrailers() model.Predicate {
	return model.All(
		model.NewTerm(model.KindEq, "isTrailer", true),
		model.NewTerm(model.KindEq, "status", string(model.TransportStatusActive)),
	)
}

func (p *FilterPipeline) normalize(spec model.FilterSpec, tables map[string]reference.TableKey) model.FilterSpec {
	normalized := spec.Clone()

	for key, table := range tables {
		if !normalized.Has(key) {
			continue
		}

		if !p.codec.CheckAndConvert(normalized, key, table) {
			p.codec.CheckAndConvertArray(normalized, key, table)
		}
	}

	// The dedicated machine table yields "true"/"false".
	for _, key := range booleanKeys {
		if text, ok := normalized[key].(string); ok {
			if flag, err := strconv.ParseBool(text); err == nil {
				normalized[key] = flag
			}
		}
	}

	return normalized
}

func (p *FilterPipeline) builder(spec model.FilterSpec, attributes, exactKeys []string) *model.Builder {
	logging := model.WithLogger(p.log)
	if p.debug {
		logging = model.WithDebug(p.log)
	}

	builder := model.NewBuilder(model.ConjunctionAnd, model.WithAttributes(attributes...), logging)

	if search, ok := spec.Search(); ok {
		builder.ILikeOrNull("name", search)
	}

	method := model.MethodILike
	if spec.Strict() {
		method = model.MethodEq
	}

	if exact := spec.Only(exactKeys...); len(exact.Keys()) > 0 {
		builder.FromFilter(exact, model.MethodEq)
	}

	if rest := spec.Without(exactKeys...); len(rest.Keys()) > 0 {
		builder.FromFilter(rest, method)
	}

	return builder
}

// reachPredicate keeps orders no larger than the best the transport offers
// alone or with its trailer. Unknown dimensions stay open.
func (p *FilterPipeline) reachPredicate(own model.Capacity, trailer *model.Capacity) model.Predicate {
	reach := own.Effective(nil)

	if trailer != nil {
		combined := own.Effective(trailer)

		reach.Weight = max(reach.Weight, combined.Weight)
		reach.Volume = max(reach.Volume, combined.Volume)
		reach.Length = max(reach.Length, combined.Length)
		reach.Width = max(reach.Width, combined.Width)
		reach.Height = max(reach.Height, combined.Height)
		reach.Pallets = max(reach.Pallets, combined.Pallets)
	}

	builder := model.NewBuilder(model.ConjunctionAnd, model.WithLogger(p.log))

	limits := []struct {
		key   string
		value float64
	}{
		{"weight", reach.Weight},
		{"volume", reach.Volume},
		{"length", reach.Length},
		{"width", reach.Width},
		{"height", reach.Height},
		{"pallets", float64(reach.Pallets)},
	}

	for _, limit := range limits {
		if limit.value > 0 {
			builder.LteOrNull(limit.key, limit.value)
		}
	}

	return query(builder)
}

func (p *FilterPipeline) fetchTransport(ctx context.Context, id model.TransportID) (*model.Transport, error) {
	result, err := circuitbreaker.Execute(p.cb, func() (any, error) {
		return p.transports.FetchByID(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching transport %s: %w", id, err)
	}

	return result.(*model.Transport), nil
}

// fetchTrailer returns nil without error when the driver has no active trailer.
func (p *FilterPipeline) fetchTrailer(ctx context.Context, transport model.Transport) (*model.Transport, error) {
	if !transport.HasDriver() {
		return nil, nil
	}

	result, err := circuitbreaker.Execute(p.cb, func() (any, error) {
		return p.transports.FetchTrailerForDriver(ctx, transport.DriverID)
	})
	if errors.Is(err, model.ErrTrailerNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("fetching trailer for driver %s: %w", transport.DriverID, err)
	}

	return result.(*model.Transport), nil
}

func (p *FilterPipeline) findOrders(
	ctx context.Context,
	predicate model.Predicate,
	page model.Page,
	sorting ...model.SortField,
) (*model.OrderList, error) {
	result, err := circuitbreaker.Execute(p.cb, func() (any, error) {
		return p.orders.Find(ctx, predicate, page, sorting...)
	})
	if err != nil {
		return nil, fmt.Errorf("finding orders: %w", err)
	}

	return result.(*model.OrderList), nil
}

// query returns nil for a builder without terms so repositories skip the
// WHERE clause.
func query(builder *model.Builder) model.Predicate {
	if len(builder.Keys()) == 0 {
		return nil
	}

	return builder.Query()
}

func must(base, extra model.Predicate) model.Predicate {
	switch {
	case base == nil:
		return extra
	case extra == nil:
		return base
	default:
		return base.Must(extra)
	}
}
