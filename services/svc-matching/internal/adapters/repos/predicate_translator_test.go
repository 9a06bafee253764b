package repos_test

import (
	"bytes"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/adapters/repos"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/stretchr/testify/require"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func float(v float64) *float64 { return &v }

func TestPredicateTranslator_Terms(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		predicate func(b *model.Builder) *model.Builder
		wantSQL   string
		wantArgs  []any
	}{
		{
			name:      "equality",
			predicate: func(b *model.Builder) *model.Builder { return b.Eq("brand", "Volvo") },
			wantSQL:   "brand = $1",
			wantArgs:  []any{"Volvo"},
		},
		{
			name:      "inequality",
			predicate: func(b *model.Builder) *model.Builder { return b.NotEq("status", "repair") },
			wantSQL:   "status <> $1",
			wantArgs:  []any{"repair"},
		},
		{
			name:      "null or equal keeps rows without a value",
			predicate: func(b *model.Builder) *model.Builder { return b.NullOrEq("transportType", "tent") },
			wantSQL:   "(transport_type IS NULL OR transport_type = $1)",
			wantArgs:  []any{"tent"},
		},
		{
			name:      "not null and equal",
			predicate: func(b *model.Builder) *model.Builder { return b.NotNullAndEq("driverId", "d-1") },
			wantSQL:   "(driver_id IS NOT NULL AND driver_id = $1)",
			wantArgs:  []any{"d-1"},
		},
		{
			name:      "case folded pattern tolerates null",
			predicate: func(b *model.Builder) *model.Builder { return b.ILike("name", "scania") },
			wantSQL:   "(name IS NULL OR name ILIKE $1)",
			wantArgs:  []any{"%scania%"},
		},
		{
			name:      "plain pattern",
			predicate: func(b *model.Builder) *model.Builder { return b.Like("model", "R4") },
			wantSQL:   "model LIKE $1",
			wantArgs:  []any{"%R4%"},
		},
		{
			name: "between",
			predicate: func(b *model.Builder) *model.Builder {
				return b.Between("weight", float(10), float(20))
			},
			wantSQL:  "(weight >= $1 AND weight <= $2)",
			wantArgs: []any{10.0, 20.0},
		},
		{
			name:      "upper bound tolerating null",
			predicate: func(b *model.Builder) *model.Builder { return b.LteOrNull("height", 3.5) },
			wantSQL:   "(height IS NULL OR height <= $1)",
			wantArgs:  []any{3.5},
		},
		{
			name:      "strict lower bound",
			predicate: func(b *model.Builder) *model.Builder { return b.Gt("pallets", 4) },
			wantSQL:   "pallets > $1",
			wantArgs:  []any{4},
		},
		{
			name: "identifier set on scalar column",
			predicate: func(b *model.Builder) *model.Builder {
				return b.InArray("companyId", []any{"0192f0c4-7a8b-7c3d-8e9f-0a1b2c3d4e5f"}, false)
			},
			wantSQL:  "company_id IN ($1)",
			wantArgs: []any{"0192f0c4-7a8b-7c3d-8e9f-0a1b2c3d4e5f"},
		},
		{
			name: "identifier set on array column overlaps",
			predicate: func(b *model.Builder) *model.Builder {
				return b.In("fixtures", []any{"belts", "chains"})
			},
			wantSQL:  "fixtures && $1",
			wantArgs: []any{[]string{"belts", "chains"}},
		},
		{
			name: "containment",
			predicate: func(b *model.Builder) *model.Builder {
				return b.ArrayContains("loadingTypes", []any{"rear", "side"})
			},
			wantSQL:  "loading_types @> $1",
			wantArgs: []any{[]string{"rear", "side"}},
		},
		{
			name: "text set on array column matches any element",
			predicate: func(b *model.Builder) *model.Builder {
				return b.InArray("riskClasses", []any{"flammable"}, true)
			},
			wantSQL:  "EXISTS (SELECT 1 FROM unnest(risk_classes) AS elem WHERE elem ILIKE ANY($1))",
			wantArgs: []any{[]string{"%flammable%"}},
		},
		{
			name: "text set on scalar column",
			predicate: func(b *model.Builder) *model.Builder {
				return b.InArray("brand", []any{"Volvo", "MAN"}, false)
			},
			wantSQL:  "(brand LIKE $1 OR brand LIKE $2)",
			wantArgs: []any{"%Volvo%", "%MAN%"},
		},
		{
			name:      "conditional not null",
			predicate: func(b *model.Builder) *model.Builder { return b.NotNull("driverId", true) },
			wantSQL:   "driver_id IS NOT NULL",
			wantArgs:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			translator := repos.NewPredicateTranslator(repos.TransportColumns(), logger.NewTestLogger())
			predicate := tc.predicate(model.NewBuilder(model.ConjunctionAnd)).Query()

			builder := translator.ApplyConditions(psql.Select("*").From("transports"), predicate)

			sql, args, err := builder.ToSql()

			require.NoError(t, err)
			require.Contains(t, sql, tc.wantSQL)

			if tc.wantArgs == nil {
				require.Empty(t, args)

				return
			}

			require.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestPredicateTranslator_Composites(t *testing.T) {
	t.Parallel()

	translator := repos.NewPredicateTranslator(repos.TransportColumns(), logger.NewTestLogger())

	query := model.NewBuilder(model.ConjunctionAnd).
		Eq("status", "active").
		Eq("brand", "Volvo").
		Query()

	predicate := query.Should(model.NewTerm(model.KindEq, "isTrailer", true))

	sql, args, err := translator.ApplyConditions(psql.Select("*").From("transports"), predicate).ToSql()

	require.NoError(t, err)
	require.Contains(t, sql, "WHERE ((status = $1 AND brand = $2) OR is_trailer = $3)")
	require.Equal(t, []any{"active", "Volvo", true}, args)

	negated := model.NewTerm(model.KindEq, "status", "repair").MustNot()

	sql, args, err = translator.ApplyConditions(psql.Select("*").From("transports"), negated).ToSql()

	require.NoError(t, err)
	require.Contains(t, sql, "WHERE NOT (status = $1)")
	require.Equal(t, []any{"repair"}, args)
}

func TestPredicateTranslator_PassThrough(t *testing.T) {
	t.Parallel()

	translator := repos.NewPredicateTranslator(repos.TransportColumns(), logger.NewTestLogger())

	cases := []struct {
		name      string
		predicate model.Predicate
	}{
		{name: "nil predicate", predicate: nil},
		{name: "empty builder", predicate: model.NewBuilder(model.ConjunctionNone).Query()},
		{name: "empty conjunction", predicate: model.NewBuilder(model.ConjunctionAnd).Query()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sql, args, err := translator.ApplyConditions(psql.Select("*").From("transports"), tc.predicate).ToSql()

			require.NoError(t, err)
			require.NotContains(t, sql, "WHERE")
			require.Empty(t, args)
		})
	}
}

func TestPredicateTranslator_SkipsUnmappedAttributes(t *testing.T) {
	t.Parallel()

	logBuffer := &bytes.Buffer{}
	translator := repos.NewPredicateTranslator(repos.OrderColumns(), logger.NewBufferedTestLogger(logBuffer))

	predicate := model.All(
		model.NewTerm(model.KindEq, "stage", "loading"),
		model.NewTerm(model.KindEq, "driverId", "d-1"),
	)

	sql, args, err := translator.ApplyConditions(psql.Select("*").From("orders"), predicate).ToSql()

	require.NoError(t, err)
	require.Contains(t, sql, "WHERE (stage = $1)")
	require.Equal(t, []any{"loading"}, args)
	require.Contains(t, logBuffer.String(), "attribute has no column, skipping term")
	require.Contains(t, logBuffer.String(), `"attribute":"driverId"`)
}

func TestPredicateTranslator_UnsupportedOperand(t *testing.T) {
	t.Parallel()

	logBuffer := &bytes.Buffer{}
	translator := repos.NewPredicateTranslator(repos.TransportColumns(), logger.NewBufferedTestLogger(logBuffer))

	predicate := model.NewTerm(model.KindBetween, "weight", "heavy")

	sql, _, err := translator.ApplyConditions(psql.Select("*").From("transports"), predicate).ToSql()

	require.NoError(t, err)
	require.NotContains(t, sql, "WHERE")
	require.Contains(t, logBuffer.String(), "skipping term")
}

func TestPredicateTranslator_Sorting(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		sorting []model.SortField
		wantSQL string
		wantLog string
	}{
		{
			name:    "defaults to newest first",
			wantSQL: "ORDER BY created_at DESC",
		},
		{
			name:    "maps attributes to columns",
			sorting: model.ParseSort("-weight", "name"),
			wantSQL: "ORDER BY weight DESC, name ASC",
		},
		{
			name:    "unknown field falls back",
			sorting: model.ParseSort("mileage"),
			wantSQL: "ORDER BY created_at ASC",
			wantLog: "unknown sort field requested, falling back to default",
		},
		{
			name:    "array columns are not sortable",
			sorting: model.ParseSort("-fixtures"),
			wantSQL: "ORDER BY created_at DESC",
			wantLog: `"field":"fixtures"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logBuffer := &bytes.Buffer{}
			translator := repos.NewPredicateTranslator(repos.TransportColumns(), logger.NewBufferedTestLogger(logBuffer))

			sql, _, err := translator.ApplySorting(psql.Select("*").From("transports"), tc.sorting).ToSql()

			require.NoError(t, err)
			require.Contains(t, sql, tc.wantSQL)

			if tc.wantLog != "" {
				require.Contains(t, logBuffer.String(), tc.wantLog)
			}
		})
	}
}

func TestPredicateTranslator_Pagination(t *testing.T) {
	t.Parallel()

	translator := repos.NewPredicateTranslator(repos.OrderColumns(), logger.NewTestLogger())

	sql, _, err := translator.ApplyPagination(psql.Select("*").From("orders"), model.NewPage(3, 25)).ToSql()

	require.NoError(t, err)
	require.Contains(t, sql, "LIMIT 25 OFFSET 50")
}
