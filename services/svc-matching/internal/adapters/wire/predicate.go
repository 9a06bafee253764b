// Package wire converts filters, predicates and matching results to and from
// protobuf Struct values so they can cross process boundaries without
// generated message types.
package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
)

const (
	fieldOp    = "op"
	fieldField = "field"
	fieldValue = "value"
	fieldFold  = "fold"
	fieldNodes = "nodes"
	fieldMin   = "min"
	fieldMax   = "max"
)

var ErrMalformedPredicate = errors.New("malformed predicate")

var leafKinds = map[model.Kind]struct{}{
	model.KindEq:            {},
	model.KindNotEq:         {},
	model.KindIn:            {},
	model.KindLike:          {},
	model.KindLikeOrNull:    {},
	model.KindNullOrEq:      {},
	model.KindNotNullAndEq:  {},
	model.KindNotNull:       {},
	model.KindBetween:       {},
	model.KindLt:            {},
	model.KindLte:           {},
	model.KindGt:            {},
	model.KindGte:           {},
	model.KindLteOrNull:     {},
	model.KindGteOrNull:     {},
	model.KindArrayContains: {},
	model.KindAnyOf:         {},
}

// EncodePredicate renders p as a Struct. Leaves become
// {op, field, value, fold} and composites {op, nodes}. A nil predicate
// encodes to nil.
func EncodePredicate(p model.Predicate) (*structpb.Struct, error) {
	if p == nil {
		return nil, nil
	}

	if p.IsComposite() {
		nodes := make([]*structpb.Value, 0, len(p.Children()))

		for _, child := range p.Children() {
			encoded, err := EncodePredicate(child)
			if err != nil {
				return nil, err
			}

			nodes = append(nodes, structpb.NewStructValue(encoded))
		}

		return &structpb.Struct{Fields: map[string]*structpb.Value{
			fieldOp:    structpb.NewStringValue(string(p.Operator())),
			fieldNodes: structpb.NewListValue(&structpb.ListValue{Values: nodes}),
		}}, nil
	}

	value, err := encodeOperand(p.Value())
	if err != nil {
		return nil, fmt.Errorf("encoding %s term on %q: %w", p.Operator(), p.Field(), err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldOp:    structpb.NewStringValue(string(p.Operator())),
		fieldField: structpb.NewStringValue(p.Field()),
		fieldValue: value,
		fieldFold:  structpb.NewBoolValue(p.Folded()),
	}}, nil
}

// DecodePredicate is the inverse of EncodePredicate. Numbers come back as
// float64, any_of patterns as []string and set operands as []any.
func DecodePredicate(s *structpb.Struct) (model.Predicate, error) {
	if s == nil || len(s.GetFields()) == 0 {
		return nil, nil
	}

	op := model.Kind(s.GetFields()[fieldOp].GetStringValue())

	if op.IsComposite() {
		return decodeComposite(op, s.GetFields()[fieldNodes].GetListValue())
	}

	if _, ok := leafKinds[op]; !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrMalformedPredicate, model.ErrUnsupportedOperator, op)
	}

	field := s.GetFields()[fieldField].GetStringValue()
	if field == "" {
		return nil, fmt.Errorf("%w: %s term without field", ErrMalformedPredicate, op)
	}

	operand, err := decodeOperand(op, s.GetFields()[fieldValue])
	if err != nil {
		return nil, fmt.Errorf("%w: %s term on %q: %w", ErrMalformedPredicate, op, field, err)
	}

	return model.Term{
		Kind:      op,
		Attribute: field,
		Operand:   operand,
		Fold:      s.GetFields()[fieldFold].GetBoolValue(),
	}, nil
}

// PredicateJSON renders p in the protobuf JSON mapping.
func PredicateJSON(p model.Predicate) ([]byte, error) {
	encoded, err := EncodePredicate(p)
	if err != nil {
		return nil, err
	}

	if encoded == nil {
		return []byte("null"), nil
	}

	return protojson.Marshal(encoded)
}

func decodeComposite(op model.Kind, list *structpb.ListValue) (model.Predicate, error) {
	nodes := make([]model.Predicate, 0, len(list.GetValues()))

	for i, value := range list.GetValues() {
		node, err := DecodePredicate(value.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}

		if node == nil {
			return nil, fmt.Errorf("%w: node %d of %s is empty", ErrMalformedPredicate, i, op)
		}

		nodes = append(nodes, node)
	}

	switch op {
	case model.KindNot:
		if len(nodes) != 1 {
			return nil, fmt.Errorf("%w: not takes one node, got %d", ErrMalformedPredicate, len(nodes))
		}

		return model.Not(nodes[0]), nil
	case model.KindAny:
		return model.Any(nodes...), nil
	default:
		return model.All(nodes...), nil
	}
}

func encodeOperand(operand any) (*structpb.Value, error) {
	switch v := operand.(type) {
	case nil:
		return structpb.NewNullValue(), nil
	case model.Bounds:
		return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			fieldMin: structpb.NewNumberValue(v.Min),
			fieldMax: structpb.NewNumberValue(v.Max),
		}}), nil
	case []string:
		values := make([]any, len(v))
		for i, s := range v {
			values[i] = s
		}

		return structpb.NewValue(values)
	case []any:
		values := make([]*structpb.Value, 0, len(v))

		for _, element := range v {
			encoded, err := encodeOperand(element)
			if err != nil {
				return nil, err
			}

			values = append(values, encoded)
		}

		return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
	case fmt.Stringer:
		return structpb.NewStringValue(v.String()), nil
	default:
		return structpb.NewValue(v)
	}
}

func decodeOperand(op model.Kind, value *structpb.Value) (any, error) {
	switch op {
	case model.KindNotNull:
		return nil, nil
	case model.KindBetween:
		bounds := value.GetStructValue()
		if bounds == nil {
			return nil, errors.New("between needs {min, max}")
		}

		minimum, hasMin := bounds.GetFields()[fieldMin]
		maximum, hasMax := bounds.GetFields()[fieldMax]

		if !hasMin || !hasMax {
			return nil, errors.New("between needs both min and max")
		}

		return model.Bounds{Min: minimum.GetNumberValue(), Max: maximum.GetNumberValue()}, nil
	case model.KindAnyOf:
		list := value.GetListValue()
		if list == nil {
			return nil, errors.New("any_of needs a list of patterns")
		}

		patterns := make([]string, 0, len(list.GetValues()))
		for _, element := range list.GetValues() {
			patterns = append(patterns, element.GetStringValue())
		}

		return patterns, nil
	case model.KindIn, model.KindArrayContains:
		list := value.GetListValue()
		if list == nil {
			return nil, fmt.Errorf("%s needs a list", op)
		}

		return list.AsSlice(), nil
	default:
		if value == nil {
			return nil, nil
		}

		return value.AsInterface(), nil
	}
}
