package model

import (
	"time"

	"github.com/google/uuid"
)

type OrderID struct {
	uuid.UUID
}

func NewOrderID() OrderID {
	return OrderID{UUID: uuid.Must(uuid.NewV7())}
}

func ParseOrderID(s string) (OrderID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OrderID{}, ErrInvalidOrderID
	}

	return OrderID{UUID: id}, nil
}

func (o OrderID) String() string {
	return o.UUID.String()
}

// Cargo is the physical size of an order's freight.
type Cargo struct {
	Weight  float64
	Volume  float64
	Length  float64
	Width   float64
	Height  float64
	Pallets int
}

type Order struct {
	ID              OrderID
	CompanyID       uuid.UUID
	Name            string
	Status          string
	Stage           string
	Payload         string
	PaymentType     string
	DestinationType string
	TransportType   string
	LoadingTypes    []string
	RiskClass       string
	Fixtures        []string
	Cargo           Cargo
	Dedicated       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var OrderAttributes = []string{
	"id", "companyId", "name", "status", "stage", "payload", "paymentType",
	"destinationType", "transportType", "loadingTypes", "riskClass", "fixtures",
	"weight", "volume", "length", "width", "height", "pallets", "dedicated",
	"createdAt", "updatedAt",
}

var envelopeKeys = []string{"weight", "volume", "length", "width", "height", "pallets"}

// EnvelopeKeys are the filter keys consumed by EnvelopeFromFilter.
func EnvelopeKeys() []string {
	return append([]string(nil), envelopeKeys...)
}

// EnvelopeFromOrder requires a transport to hold at least the order's cargo.
// Zero cargo values leave the matching bound open.
func EnvelopeFromOrder(order Order) Envelope {
	envelope := NewEnvelope()

	envelope.Weight.Min = order.Cargo.Weight
	envelope.Volume.Min = order.Cargo.Volume
	envelope.Length.Min = order.Cargo.Length
	envelope.Width.Min = order.Cargo.Width
	envelope.Height.Min = order.Cargo.Height
	envelope.MinPallets = order.Cargo.Pallets

	return envelope
}

// EnvelopeFromFilter reads capacity requirements from a filter. A scalar is
// taken as the lower bound, a Range as explicit bounds.
func EnvelopeFromFilter(spec FilterSpec) Envelope {
	envelope := NewEnvelope()

	targets := map[string]*Bounds{
		"weight": &envelope.Weight,
		"volume": &envelope.Volume,
		"length": &envelope.Length,
		"width":  &envelope.Width,
		"height": &envelope.Height,
	}

	for key, target := range targets {
		if !spec.Has(key) {
			continue
		}

		switch v := deref(spec[key]).(type) {
		case Range:
			*target = target.Resolve(v)
		case Bounds:
			*target = v
		default:
			if number, ok := toFloat(v); ok {
				target.Min = number
			}
		}
	}

	if spec.Has("pallets") {
		switch v := deref(spec["pallets"]).(type) {
		case Range:
			if v.Min != nil {
				envelope.MinPallets = int(*v.Min)
			}
		default:
			if number, ok := toFloat(v); ok {
				envelope.MinPallets = int(number)
			}
		}
	}

	return envelope
}

// AcceptsTransport reports whether t overlaps every membership constraint
// the order sets.
func (o Order) AcceptsTransport(t Transport) bool {
	if o.TransportType != "" && t.TransportType != "" && o.TransportType != t.TransportType {
		return false
	}

	if len(o.LoadingTypes) > 0 && !overlaps(o.LoadingTypes, t.LoadingTypes) {
		return false
	}

	if o.RiskClass != "" && !overlaps([]string{o.RiskClass}, t.RiskClasses) {
		return false
	}

	if len(o.Fixtures) > 0 && !overlaps(o.Fixtures, t.Fixtures) {
		return false
	}

	return true
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	default:
		return 0, false
	}
}

type OrderList struct {
	Orders []Order
	Page   Page
	Total  uint
}

// PageOrders cuts page out of orders, which hold the whole result. A zero
// page size keeps everything.
func PageOrders(orders []Order, page Page) *OrderList {
	list := &OrderList{Orders: []Order{}, Page: page, Total: uint(len(orders))}

	if page.Size == 0 {
		list.Orders = orders

		return list
	}

	start := page.Offset()
	if start >= uint(len(orders)) {
		return list
	}

	end := min(start+page.Size, uint(len(orders)))
	list.Orders = orders[start:end]

	return list
}

func (l OrderList) TotalPages() uint {
	if l.Page.Size == 0 {
		return 0
	}

	pages := l.Total / l.Page.Size
	if l.Total%l.Page.Size != 0 {
		pages++
	}

	return pages
}
