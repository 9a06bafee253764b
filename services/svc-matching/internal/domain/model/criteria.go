package model

import "strings"

type (
	SortDirection string

	// Entity names a filterable collection.
	Entity string
)

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"

	DefaultPageSize uint = 20
	MaxPageSize     uint = 500

	EntityTransports Entity = "transports"
	EntityOrders     Entity = "orders"
)

type (
	SortField struct {
		Field     string
		Direction SortDirection
	}

	Page struct {
		Number uint
		Size   uint
	}
)

// ParseSort reads "field" as ascending and "-field" as descending.
func ParseSort(fields ...string) []SortField {
	sorting := make([]SortField, 0, len(fields))

	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" || field == "-" {
			continue
		}

		if strings.HasPrefix(field, "-") {
			sorting = append(sorting, SortField{Field: field[1:], Direction: SortDesc})

			continue
		}

		sorting = append(sorting, SortField{Field: field, Direction: SortAsc})
	}

	return sorting
}

func NewPage(number, size uint) Page {
	if number == 0 {
		number = 1
	}

	if size == 0 {
		size = DefaultPageSize
	}

	if size > MaxPageSize {
		size = MaxPageSize
	}

	return Page{Number: number, Size: size}
}

func (p Page) Offset() uint {
	if p.Number == 0 {
		return 0
	}

	return (p.Number - 1) * p.Size
}
