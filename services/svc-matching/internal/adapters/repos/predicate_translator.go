package repos

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
)

type (
	// Column maps a filter attribute onto its SQL column.
	Column struct {
		Name  string
		Array bool
	}

	Columns map[string]Column

	PredicateTranslator struct {
		logger       logger.Logger
		columns      Columns
		fallbackSort string
	}
)

var transportColumns = Columns{
	"id":            {Name: "id"},
	"companyId":     {Name: "company_id"},
	"driverId":      {Name: "driver_id"},
	"name":          {Name: "name"},
	"status":        {Name: "status"},
	"brand":         {Name: "brand"},
	"model":         {Name: "model"},
	"transportType": {Name: "transport_type"},
	"loadingTypes":  {Name: "loading_types", Array: true},
	"riskClasses":   {Name: "risk_classes", Array: true},
	"fixtures":      {Name: "fixtures", Array: true},
	"isTrailer":     {Name: "is_trailer"},
	"dedicated":     {Name: "dedicated"},
	"weight":        {Name: "weight"},
	"volume":        {Name: "volume"},
	"length":        {Name: "length"},
	"width":         {Name: "width"},
	"height":        {Name: "height"},
	"pallets":       {Name: "pallets"},
	"createdAt":     {Name: "created_at"},
	"updatedAt":     {Name: "updated_at"},
}

var orderColumns = Columns{
	"id":              {Name: "id"},
	"companyId":       {Name: "company_id"},
	"name":            {Name: "name"},
	"status":          {Name: "status"},
	"stage":           {Name: "stage"},
	"payload":         {Name: "payload"},
	"paymentType":     {Name: "payment_type"},
	"destinationType": {Name: "destination_type"},
	"transportType":   {Name: "transport_type"},
	"loadingTypes":    {Name: "loading_types", Array: true},
	"riskClass":       {Name: "risk_class"},
	"fixtures":        {Name: "fixtures", Array: true},
	"weight":          {Name: "weight"},
	"volume":          {Name: "volume"},
	"length":          {Name: "length"},
	"width":           {Name: "width"},
	"height":          {Name: "height"},
	"pallets":         {Name: "pallets"},
	"dedicated":       {Name: "dedicated"},
	"createdAt":       {Name: "created_at"},
	"updatedAt":       {Name: "updated_at"},
}

func TransportColumns() Columns { return transportColumns }

func OrderColumns() Columns { return orderColumns }

func NewPredicateTranslator(columns Columns, log logger.Logger) *PredicateTranslator {
	return &PredicateTranslator{
		logger:       log.Component("predicate-translator"),
		columns:      columns,
		fallbackSort: "created_at",
	}
}

// ApplyConditions adds the predicate as a WHERE clause. A nil predicate, or
// one without any translatable term, leaves the builder untouched.
func (t *PredicateTranslator) ApplyConditions(builder sq.SelectBuilder, predicate model.Predicate) sq.SelectBuilder {
	if condition := t.Translate(predicate); condition != nil {
		builder = builder.Where(condition)
	}

	return builder
}

func (t *PredicateTranslator) ApplySorting(builder sq.SelectBuilder, sorting []model.SortField) sq.SelectBuilder {
	if len(sorting) == 0 {
		return builder.OrderBy(t.fallbackSort + " DESC")
	}

	for _, s := range sorting {
		builder = builder.OrderBy(fmt.Sprintf("%s %s", t.sortColumn(s.Field), s.Direction))
	}

	return builder
}

func (t *PredicateTranslator) ApplyPagination(builder sq.SelectBuilder, page model.Page) sq.SelectBuilder {
	if page.Size == 0 {
		return builder
	}

	return builder.Limit(uint64(page.Size)).Offset(uint64(page.Offset()))
}

func (t *PredicateTranslator) Translate(predicate model.Predicate) sq.Sqlizer {
	if predicate == nil {
		return nil
	}

	if predicate.IsComposite() {
		return t.translateComposite(predicate)
	}

	column, ok := t.columns[predicate.Field()]
	if !ok {
		t.logger.Warn().
			Str("attribute", predicate.Field()).
			Str("kind", string(predicate.Operator())).
			Msg("attribute has no column, skipping term")

		return nil
	}

	condition, err := t.translateTerm(column, predicate)
	if err != nil {
		t.logger.Warn().Err(err).Str("attribute", predicate.Field()).Msg("skipping term")

		return nil
	}

	return condition
}

func (t *PredicateTranslator) translateComposite(predicate model.Predicate) sq.Sqlizer {
	children := make([]sq.Sqlizer, 0, len(predicate.Children()))

	for _, child := range predicate.Children() {
		if condition := t.Translate(child); condition != nil {
			children = append(children, condition)
		}
	}

	if len(children) == 0 {
		return nil
	}

	switch predicate.Operator() {
	case model.KindAny:
		return sq.Or(children)
	case model.KindNot:
		return sq.Expr("NOT (?)", children[0])
	default:
		return sq.And(children)
	}
}

func (t *PredicateTranslator) translateTerm(column Column, term model.Predicate) (sq.Sqlizer, error) {
	col := column.Name
	value := term.Value()

	var condition sq.Sqlizer

	switch term.Operator() {
	case model.KindEq, model.KindNullOrEq, model.KindNotNullAndEq:
		if column.Array {
			condition = sq.Expr(col+" @> ?", []string{fmt.Sprint(value)})
		} else {
			condition = sq.Eq{col: value}
		}

	case model.KindNotEq:
		if column.Array {
			return sq.Expr("NOT ("+col+" @> ?)", []string{fmt.Sprint(value)}), nil
		}

		return sq.NotEq{col: value}, nil

	case model.KindNotNull:
		return sq.NotEq{col: nil}, nil

	case model.KindIn:
		values, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a set", model.ErrUnsupportedOperator, term.Operator())
		}

		if column.Array {
			return sq.Expr(col+" && ?", stringify(values)), nil
		}

		return sq.Eq{col: values}, nil

	case model.KindArrayContains:
		values, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a set", model.ErrUnsupportedOperator, term.Operator())
		}

		return sq.Expr(col+" @> ?", stringify(values)), nil

	case model.KindLike, model.KindLikeOrNull:
		condition = like(column, value, term.Folded())

	case model.KindAnyOf:
		patterns, ok := value.([]string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects patterns", model.ErrUnsupportedOperator, term.Operator())
		}

		return anyOf(column, patterns, term.Folded()), nil

	case model.KindBetween:
		bounds, ok := value.(model.Bounds)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects bounds", model.ErrUnsupportedOperator, term.Operator())
		}

		return sq.And{sq.GtOrEq{col: bounds.Min}, sq.LtOrEq{col: bounds.Max}}, nil

	case model.KindLt:
		return sq.Lt{col: value}, nil
	case model.KindLte, model.KindLteOrNull:
		condition = sq.LtOrEq{col: value}
	case model.KindGt:
		return sq.Gt{col: value}, nil
	case model.KindGte, model.KindGteOrNull:
		condition = sq.GtOrEq{col: value}

	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedOperator, term.Operator())
	}

	switch {
	case term.Operator().NullTolerant():
		return sq.Or{sq.Eq{col: nil}, condition}, nil
	case term.Operator() == model.KindNotNullAndEq:
		return sq.And{sq.NotEq{col: nil}, condition}, nil
	default:
		return condition, nil
	}
}

func (t *PredicateTranslator) sortColumn(field string) string {
	if column, ok := t.columns[field]; ok && !column.Array {
		return column.Name
	}

	t.logger.Warn().
		Str("field", field).
		Str("fallback", t.fallbackSort).
		Msg("unknown sort field requested, falling back to default")

	return t.fallbackSort
}

func like(column Column, pattern any, fold bool) sq.Sqlizer {
	if column.Array {
		return anyOf(column, []string{fmt.Sprint(pattern)}, fold)
	}

	if fold {
		return sq.ILike{column.Name: pattern}
	}

	return sq.Like{column.Name: pattern}
}

// anyOf matches when the column, or any element of an array column, fits at
// least one pattern.
func anyOf(column Column, patterns []string, fold bool) sq.Sqlizer {
	operator := "LIKE"
	if fold {
		operator = "ILIKE"
	}

	if column.Array {
		return sq.Expr(
			fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS elem WHERE elem %s ANY(?))", column.Name, operator),
			patterns,
		)
	}

	conditions := make(sq.Or, 0, len(patterns))
	for _, pattern := range patterns {
		if fold {
			conditions = append(conditions, sq.ILike{column.Name: pattern})
		} else {
			conditions = append(conditions, sq.Like{column.Name: pattern})
		}
	}

	return conditions
}

func stringify(values []any) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, fmt.Sprint(value))
	}

	return out
}
