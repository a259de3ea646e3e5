package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusReserved ReservationStatus = "RESERVED"
	ReservationStatusActive   ReservationStatus = "ACTIVE"
	ReservationStatusReleased ReservationStatus = "RELEASED"
)

// HoldingStatuses are the reservation statuses that consume stock.
var HoldingStatuses = []ReservationStatus{ReservationStatusReserved, ReservationStatusActive}

var reservationTransitions = transitions[ReservationStatus]{
	ReservationStatusReserved: {ReservationStatusActive, ReservationStatusReleased},
	ReservationStatusActive:   {ReservationStatusReleased},
}

type Reservation struct {
	ID        string            `json:"id"`
	ProductID string            `json:"product_id"`
	OrderID   string            `json:"order_id"`
	Quantity  int               `json:"quantity"`
	Interval  Interval          `json:"interval"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (r *Reservation) IsHolding() bool {
	return r.Status == ReservationStatusReserved || r.Status == ReservationStatusActive
}

func (r *Reservation) TransitionTo(to ReservationStatus) error {
	return reservationTransitions.check("reservation", r.ID, r.Status, to)
}

// Availability is the result of an availability check.
type Availability struct {
	ProductID         string `json:"product_id"`
	IsAvailable       bool   `json:"is_available"`
	AvailableQuantity int    `json:"available_quantity"`
	ReservedQuantity  int    `json:"reserved_quantity"`
	TotalQuantity     int    `json:"total_quantity"`
	RequestedQuantity int    `json:"requested_quantity"`
}
