package model

import "errors"

var (
	ErrTransportNotFound   = errors.New("transport not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrTrailerNotFound     = errors.New("trailer not found")
	ErrTransportIsTrailer  = errors.New("transport is a trailer")
	ErrInvalidTransportID  = errors.New("invalid transport ID")
	ErrInvalidOrderID      = errors.New("invalid order ID")
	ErrDatabaseConnection  = errors.New("database connection error")
	ErrDatabaseQuery       = errors.New("database query error")
	ErrCatalogLoad         = errors.New("reference catalog load error")
	ErrUnknownAttribute    = errors.New("unknown filter attribute")
	ErrUnknownMethod       = errors.New("unknown filter method")
	ErrUnknownEntity       = errors.New("unknown filter entity")
	ErrNonScalarOperand    = errors.New("operand is not a scalar")
	ErrUnsupportedOperator = errors.New("unsupported predicate operator")
)
