package grpc

import (
	"errors"
	"fmt"
	"math"

	"github.com/architeacher/logistics/services/svc-matching/internal/adapters/wire"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	fieldFilter      = "filter"
	fieldTransportID = "transportId"
	fieldEntity      = "entity"
	fieldPage        = "page"
	fieldSize        = "size"
	fieldSort        = "sort"
	fieldPredicate   = "predicate"
)

var errBadRequest = errors.New("bad request")

func toDomainFilter(req *structpb.Struct) (model.FilterSpec, error) {
	value, ok := req.GetFields()[fieldFilter]
	if !ok {
		return model.FilterSpec{}, nil
	}

	switch value.GetKind().(type) {
	case *structpb.Value_NullValue:
		return model.FilterSpec{}, nil
	case *structpb.Value_StructValue:
		return wire.DecodeFilter(value.GetStructValue()), nil
	default:
		return nil, fmt.Errorf("%w: filter must be an object", errBadRequest)
	}
}

func toDomainPage(req *structpb.Struct) (model.Page, error) {
	number, err := toUint(req, fieldPage)
	if err != nil {
		return model.Page{}, err
	}

	size, err := toUint(req, fieldSize)
	if err != nil {
		return model.Page{}, err
	}

	return model.NewPage(number, size), nil
}

func toDomainSorting(req *structpb.Struct) ([]model.SortField, error) {
	value, ok := req.GetFields()[fieldSort]
	if !ok {
		return nil, nil
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		return model.ParseSort(kind.StringValue), nil
	case *structpb.Value_ListValue:
		fields := make([]string, 0, len(kind.ListValue.GetValues()))

		for _, element := range kind.ListValue.GetValues() {
			field, isString := element.GetKind().(*structpb.Value_StringValue)
			if !isString {
				return nil, fmt.Errorf("%w: sort entries must be strings", errBadRequest)
			}

			fields = append(fields, field.StringValue)
		}

		return model.ParseSort(fields...), nil
	default:
		return nil, fmt.Errorf("%w: sort must be a string or a list of strings", errBadRequest)
	}
}

func toUint(req *structpb.Struct, field string) (uint, error) {
	value, ok := req.GetFields()[field]
	if !ok {
		return 0, nil
	}

	number, isNumber := value.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, field)
	}

	n := number.NumberValue
	if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, field)
	}

	return uint(n), nil
}

func toProtoExplanation(entity model.Entity, predicate model.Predicate) (*structpb.Struct, error) {
	encoded, err := wire.EncodePredicate(predicate)
	if err != nil {
		return nil, err
	}

	value := structpb.NewNullValue()
	if encoded != nil {
		value = structpb.NewStructValue(encoded)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldEntity:    structpb.NewStringValue(string(entity)),
		fieldPredicate: value,
	}}, nil
}
