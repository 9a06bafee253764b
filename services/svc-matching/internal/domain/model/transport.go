package model

import (
	"time"

	"github.com/google/uuid"
)

type TransportStatus string

const (
	TransportStatusActive   TransportStatus = "active"
	TransportStatusInactive TransportStatus = "inactive"
	TransportStatusRepair   TransportStatus = "repair"
)

type TransportID struct {
	uuid.UUID
}

func NewTransportID() TransportID {
	return TransportID{UUID: uuid.Must(uuid.NewV7())}
}

func ParseTransportID(s string) (TransportID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TransportID{}, ErrInvalidTransportID
	}

	return TransportID{UUID: id}, nil
}

func (t TransportID) String() string {
	return t.UUID.String()
}

func (t TransportID) IsZero() bool {
	return t.UUID == uuid.Nil
}

type Transport struct {
	ID            TransportID
	CompanyID     uuid.UUID
	DriverID      uuid.UUID
	Name          string
	Status        TransportStatus
	Brand         string
	Model         string
	TransportType string
	LoadingTypes  []string
	RiskClasses   []string
	Fixtures      []string
	Capacity      Capacity
	IsTrailer     bool
	Dedicated     bool
	// Trailer is attached by FilterFleet when the pair matched together.
	Trailer   *Transport
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Transport) IsActive() bool {
	return t.Status == TransportStatusActive
}

func (t Transport) HasDriver() bool {
	return t.DriverID != uuid.Nil
}

// TransportAttributes are the persisted transport columns a filter may address.
var TransportAttributes = []string{
	"id", "companyId", "driverId", "name", "status", "brand", "model",
	"transportType", "loadingTypes", "riskClasses", "fixtures", "isTrailer",
	"dedicated", "weight", "volume", "length", "width", "height", "pallets",
	"createdAt", "updatedAt",
}
