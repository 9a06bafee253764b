package wire_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/architeacher/logistics/services/svc-matching/internal/adapters/wire"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
)

func TestPredicate_RoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("0191b6a4-7d2e-7c3a-9b52-6f1d8e0a4c11")

	cases := []struct {
		name string
		in   model.Predicate
		want model.Predicate
	}{
		{
			name: "nil stays nil",
		},
		{
			name: "scalar equality",
			in:   model.NewTerm(model.KindEq, "brand", "Volvo"),
			want: model.NewTerm(model.KindEq, "brand", "Volvo"),
		},
		{
			name: "numbers come back as float64",
			in:   model.NewTerm(model.KindLteOrNull, "weight", 20),
			want: model.NewTerm(model.KindLteOrNull, "weight", float64(20)),
		},
		{
			name: "bounds",
			in:   model.NewTerm(model.KindBetween, "volume", model.Bounds{Min: 1.5, Max: 80}),
			want: model.NewTerm(model.KindBetween, "volume", model.Bounds{Min: 1.5, Max: 80}),
		},
		{
			name: "folded patterns",
			in:   model.Term{Kind: model.KindAnyOf, Attribute: "fixtures", Operand: []string{"%straps%", "%chains%"}, Fold: true},
			want: model.Term{Kind: model.KindAnyOf, Attribute: "fixtures", Operand: []string{"%straps%", "%chains%"}, Fold: true},
		},
		{
			name: "identifier sets",
			in:   model.NewTerm(model.KindIn, "driverId", []any{id.String(), id}),
			want: model.NewTerm(model.KindIn, "driverId", []any{id.String(), id.String()}),
		},
		{
			name: "not null carries no operand",
			in:   model.NewTerm(model.KindNotNull, "driverId", nil),
			want: model.NewTerm(model.KindNotNull, "driverId", nil),
		},
		{
			name: "nested composites",
			in: model.Any(
				model.All(
					model.NewTerm(model.KindEq, "status", "active"),
					model.Not(model.NewTerm(model.KindEq, "dedicated", true)),
				),
				model.NewTerm(model.KindEq, "isTrailer", true),
			),
			want: model.Any(
				model.All(
					model.NewTerm(model.KindEq, "status", "active"),
					model.Not(model.NewTerm(model.KindEq, "dedicated", true)),
				),
				model.NewTerm(model.KindEq, "isTrailer", true),
			),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			encoded, err := wire.EncodePredicate(tc.in)
			require.NoError(t, err)

			decoded, err := wire.DecodePredicate(encoded)
			require.NoError(t, err)

			if tc.want == nil {
				require.Nil(t, decoded)

				return
			}

			require.Empty(t, cmp.Diff(tc.want, decoded))
		})
	}
}

func TestDecodePredicate_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   map[string]any
	}{
		{
			name: "unknown operator",
			in:   map[string]any{"op": "regex", "field": "name", "value": ".*"},
		},
		{
			name: "term without field",
			in:   map[string]any{"op": "eq", "value": 1},
		},
		{
			name: "between without bounds",
			in:   map[string]any{"op": "between", "field": "weight", "value": 5},
		},
		{
			name: "between with one side",
			in:   map[string]any{"op": "between", "field": "weight", "value": map[string]any{"min": 5}},
		},
		{
			name: "in without list",
			in:   map[string]any{"op": "in", "field": "brand", "value": "Volvo"},
		},
		{
			name: "not with two nodes",
			in: map[string]any{"op": "not", "nodes": []any{
				map[string]any{"op": "eq", "field": "a", "value": 1},
				map[string]any{"op": "eq", "field": "b", "value": 2},
			}},
		},
		{
			name: "empty node",
			in:   map[string]any{"op": "all", "nodes": []any{map[string]any{}}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := structpb.NewStruct(tc.in)
			require.NoError(t, err)

			_, err = wire.DecodePredicate(s)
			require.ErrorIs(t, err, wire.ErrMalformedPredicate)
		})
	}
}

func TestPredicateJSON(t *testing.T) {
	t.Parallel()

	data, err := wire.PredicateJSON(model.All(
		model.Term{Kind: model.KindLikeOrNull, Attribute: "name", Operand: "%reefer%", Fold: true},
	))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Equal(t, "all", decoded["op"])

	nodes, ok := decoded["nodes"].([]any)
	require.True(t, ok)
	require.Len(t, nodes, 1)
	require.Equal(t, map[string]any{
		"op":    "like_or_null",
		"field": "name",
		"value": "%reefer%",
		"fold":  true,
	}, nodes[0])

	empty, err := wire.PredicateJSON(nil)
	require.NoError(t, err)
	require.JSONEq(t, "null", string(empty))
}
