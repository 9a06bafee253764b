package model_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
)

func TestBuilder_AbsentValuesAreNoOps(t *testing.T) {
	t.Parallel()

	var nilName *string

	cases := []struct {
		name  string
		apply func(b *model.Builder)
	}{
		{name: "eq nil", apply: func(b *model.Builder) { b.Eq("name", nil) }},
		{name: "eq typed nil pointer", apply: func(b *model.Builder) { b.Eq("name", nilName) }},
		{name: "neq", apply: func(b *model.Builder) { b.NotEq("name", nil) }},
		{name: "like", apply: func(b *model.Builder) { b.Like("name", nil) }},
		{name: "ilike", apply: func(b *model.Builder) { b.ILike("name", nil) }},
		{name: "like or null", apply: func(b *model.Builder) { b.LikeOrNull("name", nil) }},
		{name: "ilike or null", apply: func(b *model.Builder) { b.ILikeOrNull("name", nil) }},
		{name: "null or eq", apply: func(b *model.Builder) { b.NullOrEq("name", nil) }},
		{name: "not null and eq", apply: func(b *model.Builder) { b.NotNullAndEq("name", nil) }},
		{name: "not null without condition", apply: func(b *model.Builder) { b.NotNull("name", false) }},
		{name: "between without bounds", apply: func(b *model.Builder) { b.Between("weight", nil, nil) }},
		{name: "lt", apply: func(b *model.Builder) { b.Lt("weight", nil) }},
		{name: "lte", apply: func(b *model.Builder) { b.Lte("weight", nil) }},
		{name: "gt", apply: func(b *model.Builder) { b.Gt("weight", nil) }},
		{name: "gte", apply: func(b *model.Builder) { b.Gte("weight", nil) }},
		{name: "lte or null", apply: func(b *model.Builder) { b.LteOrNull("weight", nil) }},
		{name: "gte or null", apply: func(b *model.Builder) { b.GteOrNull("weight", nil) }},
		{name: "in nil slice", apply: func(b *model.Builder) { b.In("status", nil) }},
		{name: "in empty slice", apply: func(b *model.Builder) { b.In("status", []any{}) }},
		{name: "in all nil", apply: func(b *model.Builder) { b.In("status", []any{nil, nil}) }},
		{name: "array contains", apply: func(b *model.Builder) { b.ArrayContains("fixtures", []any{nil}) }},
		{name: "any of", apply: func(b *model.Builder) { b.AnyOf("name", nil) }},
		{name: "in array", apply: func(b *model.Builder) { b.InArray("id", []any{}, false) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := model.NewBuilder(model.ConjunctionAnd).Eq("brand", "Volvo")
			before := b.Terms()

			tc.apply(b)

			require.Empty(t, cmp.Diff(before, b.Terms()))
		})
	}
}

func TestBuilder_FirstWriteWins(t *testing.T) {
	t.Parallel()

	b := model.NewBuilder(model.ConjunctionAnd).
		Eq("brand", "Volvo").
		Eq("brand", "Scania").
		Like("brand", "MAN")

	terms := b.Terms()
	require.Len(t, terms, 1)
	require.Equal(t, model.Term{Kind: model.KindEq, Attribute: "brand", Operand: "Volvo"}, terms["brand"])
}

func TestBuilder_EmptyFilterIsPassThrough(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		spec model.FilterSpec
	}{
		{name: "nil filter", spec: nil},
		{name: "empty filter", spec: model.FilterSpec{}},
		{name: "absent values only", spec: model.FilterSpec{"name": nil}},
		{name: "reserved keys only", spec: model.FilterSpec{"search": "x"}},
		{name: "reserved and absent", spec: model.FilterSpec{"search": "x", "strict": true, "brand": nil}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := model.NewBuilder(model.ConjunctionAnd).FromFilter(tc.spec, model.MethodEq)

			require.True(t, b.IsPassThrough())
			require.Equal(t, model.ConjunctionNone, b.Conjunction())
			require.Nil(t, b.Query())
		})
	}
}

func TestBuilder_InArray(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		values     []any
		ignoreCase bool
		want       model.Term
	}{
		{
			name: "uuids become exact membership",
			values: []any{
				"3fa85f64-5717-4562-b3fc-2c963f66afa6",
				"9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
			},
			want: model.Term{
				Kind:      model.KindIn,
				Attribute: "field",
				Operand: []any{
					"3fa85f64-5717-4562-b3fc-2c963f66afa6",
					"9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
				},
			},
		},
		{
			name:   "text becomes pattern alternatives",
			values: []any{"Ivan", "Boris"},
			want: model.Term{
				Kind:      model.KindAnyOf,
				Attribute: "field",
				Operand:   []string{"%Ivan%", "%Boris%"},
			},
		},
		{
			name:       "mixed sets fall back to folded patterns",
			values:     []any{"3fa85f64-5717-4562-b3fc-2c963f66afa6", "Boris", nil},
			ignoreCase: true,
			want: model.Term{
				Kind:      model.KindAnyOf,
				Attribute: "field",
				Operand:   []string{"%3fa85f64-5717-4562-b3fc-2c963f66afa6%", "%Boris%"},
				Fold:      true,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := model.NewBuilder(model.ConjunctionAnd).InArray("field", tc.values, tc.ignoreCase)

			require.Empty(t, cmp.Diff(tc.want, b.Terms()["field"]))
		})
	}
}

func TestBuilder_TermKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		apply func(b *model.Builder) *model.Builder
		want  model.Term
	}{
		{
			name:  "ilike is folded and null tolerant",
			apply: func(b *model.Builder) *model.Builder { return b.ILike("name", "iv") },
			want:  model.Term{Kind: model.KindLikeOrNull, Attribute: "name", Operand: "%iv%", Fold: true},
		},
		{
			name:  "like or null keeps case",
			apply: func(b *model.Builder) *model.Builder { return b.LikeOrNull("name", "Iv") },
			want:  model.Term{Kind: model.KindLikeOrNull, Attribute: "name", Operand: "%Iv%"},
		},
		{
			name:  "like escapes wildcards",
			apply: func(b *model.Builder) *model.Builder { return b.Like("name", `50%_off\`) },
			want:  model.Term{Kind: model.KindLike, Attribute: "name", Operand: `%50\%\_off\\%`},
		},
		{
			name:  "like coerces numbers",
			apply: func(b *model.Builder) *model.Builder { return b.Like("plate", 42) },
			want:  model.Term{Kind: model.KindLike, Attribute: "plate", Operand: "%42%"},
		},
		{
			name:  "not null",
			apply: func(b *model.Builder) *model.Builder { return b.NotNull("driverId", true) },
			want:  model.Term{Kind: model.KindNotNull, Attribute: "driverId"},
		},
		{
			name:  "pointer operands are dereferenced",
			apply: func(b *model.Builder) *model.Builder { return b.LteOrNull("weight", model.Float(12)) },
			want:  model.Term{Kind: model.KindLteOrNull, Attribute: "weight", Operand: 12.0},
		},
		{
			name:  "between fills the missing maximum",
			apply: func(b *model.Builder) *model.Builder { return b.Between("weight", model.Float(3), nil) },
			want: model.Term{
				Kind:      model.KindBetween,
				Attribute: "weight",
				Operand:   model.Bounds{Min: 3, Max: math.MaxFloat64},
			},
		},
		{
			name: "between uses explicit builder bounds",
			apply: func(b *model.Builder) *model.Builder {
				return model.NewBuilder(model.ConjunctionAnd, model.WithBounds(model.CapacityBounds())).
					Between("weight", nil, model.Float(12))
			},
			want: model.Term{
				Kind:      model.KindBetween,
				Attribute: "weight",
				Operand:   model.Bounds{Min: 0, Max: 12},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := tc.apply(model.NewBuilder(model.ConjunctionAnd))

			require.Empty(t, cmp.Diff(tc.want, b.Terms()[tc.want.Attribute]))
		})
	}
}

func TestBuilder_FromFilter(t *testing.T) {
	t.Parallel()

	spec := model.FilterSpec{
		"status":      "active",
		"search":      "ignored",
		"strict":      true,
		"brand":       nil,
		"weight":      model.Range{Max: model.Float(12)},
		"fixtures":    []string{"straps", "chains"},
		"companyId":   []any{"3fa85f64-5717-4562-b3fc-2c963f66afa6"},
		"transportId": (*string)(nil),
	}

	b := model.NewBuilder(model.ConjunctionAnd, model.WithBounds(model.CapacityBounds())).
		FromFilter(spec, model.MethodEq)

	want := model.All(
		model.Term{Kind: model.KindIn, Attribute: "companyId", Operand: []any{"3fa85f64-5717-4562-b3fc-2c963f66afa6"}},
		model.Term{Kind: model.KindAnyOf, Attribute: "fixtures", Operand: []string{"%straps%", "%chains%"}},
		model.Term{Kind: model.KindEq, Attribute: "status", Operand: "active"},
		model.Term{Kind: model.KindBetween, Attribute: "weight", Operand: model.Bounds{Min: 0, Max: 12}},
	)

	require.Empty(t, cmp.Diff(want, b.Query()))
	require.Equal(t, []string{"companyId", "fixtures", "status", "weight"}, b.Keys())
	require.False(t, b.IsPassThrough())
}

func TestBuilder_FromFilterMethods(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		method model.Method
		want   model.Term
		absent bool
	}{
		{name: "default method is equality", method: "", want: model.Term{Kind: model.KindEq, Attribute: "name", Operand: "Ivan"}},
		{name: "ilike", method: model.MethodILike, want: model.Term{Kind: model.KindLikeOrNull, Attribute: "name", Operand: "%Ivan%", Fold: true}},
		{name: "null or eq", method: model.MethodNullOrEq, want: model.Term{Kind: model.KindNullOrEq, Attribute: "name", Operand: "Ivan"}},
		{name: "unknown method skips the entry", method: "regex", absent: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := model.NewBuilder(model.ConjunctionAnd).FromFilter(model.FilterSpec{"name": "Ivan"}, tc.method)

			term, ok := b.Terms()["name"]
			if tc.absent {
				require.False(t, ok)

				return
			}

			require.Empty(t, cmp.Diff(tc.want, term))
		})
	}
}

func TestBuilder_FailedTermsAreLoggedAndSkipped(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		apply   func(b *model.Builder)
		wantLog string
	}{
		{
			name:    "undeclared attribute",
			apply:   func(b *model.Builder) { b.Eq("colour", "red") },
			wantLog: model.ErrUnknownAttribute.Error(),
		},
		{
			name:    "non scalar pattern",
			apply:   func(b *model.Builder) { b.Like("name", map[string]int{"a": 1}) },
			wantLog: model.ErrNonScalarOperand.Error(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			b := model.NewBuilder(
				model.ConjunctionAnd,
				model.WithLogger(logger.NewBufferedTestLogger(&buf)),
				model.WithAttributes("name", "status"),
			)

			tc.apply(b)
			b.Eq("status", "active")

			require.Len(t, b.Terms(), 1)
			require.Contains(t, buf.String(), tc.wantLog)
			require.Contains(t, buf.String(), `"level":"warn"`)
		})
	}
}

func TestBuilder_DebugLogsRecordedTerms(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	model.NewBuilder(model.ConjunctionOr, model.WithDebug(logger.NewBufferedTestLogger(&buf))).
		Eq("status", "active")

	require.Contains(t, buf.String(), "term recorded")
	require.Contains(t, buf.String(), `"attribute":"status"`)
}

func TestBuilder_Query(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		conjunction model.Conjunction
		wantKind    model.Kind
		wantNil     bool
		populate    bool
	}{
		{name: "and root", conjunction: model.ConjunctionAnd, wantKind: model.KindAll, populate: true},
		{name: "or root", conjunction: model.ConjunctionOr, wantKind: model.KindAny, populate: true},
		{name: "no conjunction with terms is an implicit and", conjunction: model.ConjunctionNone, wantKind: model.KindAll, populate: true},
		{name: "no conjunction without terms", conjunction: model.ConjunctionNone, wantNil: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := model.NewBuilder(tc.conjunction)
			if tc.populate {
				b.Eq("status", "active").Gte("pallets", 3)
			}

			first := b.Query()
			second := b.Query()

			if tc.wantNil {
				require.Nil(t, first)
				require.True(t, b.IsPassThrough())

				return
			}

			require.Equal(t, tc.wantKind, first.Operator())
			require.Len(t, first.Children(), 2)
			require.Empty(t, cmp.Diff(first, second))
		})
	}
}
