package wire

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
)

// DecodeFilter turns a Struct into a FilterSpec. Objects holding only min
// and max become a Range and null values are dropped.
func DecodeFilter(s *structpb.Struct) model.FilterSpec {
	spec := make(model.FilterSpec, len(s.GetFields()))

	for key, value := range s.GetFields() {
		switch kind := value.GetKind().(type) {
		case nil, *structpb.Value_NullValue:
			continue
		case *structpb.Value_StructValue:
			if r, ok := toRange(kind.StructValue); ok {
				spec[key] = r

				continue
			}
		}

		spec[key] = value.AsInterface()
	}

	return spec
}

func EncodeFleet(transports []model.Transport) (*structpb.Struct, error) {
	items := make([]any, 0, len(transports))
	for _, t := range transports {
		items = append(items, transportMap(t))
	}

	return structpb.NewStruct(map[string]any{
		"transports": items,
		"count":      len(transports),
	})
}

func EncodeOrderList(list *model.OrderList) (*structpb.Struct, error) {
	items := make([]any, 0, len(list.Orders))
	for _, o := range list.Orders {
		items = append(items, orderMap(o))
	}

	return structpb.NewStruct(map[string]any{
		"orders":     items,
		"page":       list.Page.Number,
		"size":       list.Page.Size,
		"total":      list.Total,
		"totalPages": list.TotalPages(),
	})
}

func toRange(s *structpb.Struct) (model.Range, bool) {
	var r model.Range

	if len(s.GetFields()) == 0 {
		return r, false
	}

	for key, value := range s.GetFields() {
		var target **float64

		switch key {
		case fieldMin:
			target = &r.Min
		case fieldMax:
			target = &r.Max
		default:
			return model.Range{}, false
		}

		switch kind := value.GetKind().(type) {
		case *structpb.Value_NumberValue:
			*target = model.Float(kind.NumberValue)
		case *structpb.Value_NullValue:
		default:
			return model.Range{}, false
		}
	}

	return r, !r.IsEmpty()
}

func transportMap(t model.Transport) map[string]any {
	m := map[string]any{
		"id":            t.ID.String(),
		"companyId":     t.CompanyID.String(),
		"driverId":      t.DriverID.String(),
		"name":          t.Name,
		"status":        string(t.Status),
		"brand":         t.Brand,
		"model":         t.Model,
		"transportType": t.TransportType,
		"loadingTypes":  list(t.LoadingTypes),
		"riskClasses":   list(t.RiskClasses),
		"fixtures":      list(t.Fixtures),
		"weight":        t.Capacity.Weight,
		"volume":        t.Capacity.Volume,
		"length":        t.Capacity.Length,
		"width":         t.Capacity.Width,
		"height":        t.Capacity.Height,
		"pallets":       t.Capacity.Pallets,
		"weightExtra":   t.Capacity.WeightExtra,
		"volumeExtra":   t.Capacity.VolumeExtra,
		"isTrailer":     t.IsTrailer,
		"dedicated":     t.Dedicated,
		"createdAt":     timestamp(t.CreatedAt),
		"updatedAt":     timestamp(t.UpdatedAt),
	}

	if t.Trailer != nil {
		m["trailer"] = transportMap(*t.Trailer)
	}

	return m
}

func orderMap(o model.Order) map[string]any {
	return map[string]any{
		"id":              o.ID.String(),
		"companyId":       o.CompanyID.String(),
		"name":            o.Name,
		"status":          o.Status,
		"stage":           o.Stage,
		"payload":         o.Payload,
		"paymentType":     o.PaymentType,
		"destinationType": o.DestinationType,
		"transportType":   o.TransportType,
		"loadingTypes":    list(o.LoadingTypes),
		"riskClass":       o.RiskClass,
		"fixtures":        list(o.Fixtures),
		"weight":          o.Cargo.Weight,
		"volume":          o.Cargo.Volume,
		"length":          o.Cargo.Length,
		"width":           o.Cargo.Width,
		"height":          o.Cargo.Height,
		"pallets":         o.Cargo.Pallets,
		"dedicated":       o.Dedicated,
		"createdAt":       timestamp(o.CreatedAt),
		"updatedAt":       timestamp(o.UpdatedAt),
	}
}

func list(values []string) []any {
	result := make([]any, len(values))
	for i, v := range values {
		result[i] = v
	}

	return result
}

func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}

	return t.UTC().Format(time.RFC3339)
}
