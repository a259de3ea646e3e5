package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

var orderTransitions = transitions[OrderStatus]{
	OrderStatusConfirmed: {OrderStatusCancelled, OrderStatusCompleted},
}

type OrderLine struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Interval  Interval        `json:"interval"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type RentalOrder struct {
	ID              string          `json:"id"`
	QuotationID     string          `json:"quotation_id"`
	CustomerID      string          `json:"customer_id"`
	VendorID        string          `json:"vendor_id"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryAddress string          `json:"delivery_address"`
	Lines           []OrderLine     `json:"lines"`
	Reservations    []Reservation   `json:"reservations,omitempty"`
	PickedUpAt      *time.Time      `json:"picked_up_at,omitempty"`
	ReturnedAt      *time.Time      `json:"returned_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (o *RentalOrder) TransitionTo(to OrderStatus) error {
	if err := orderTransitions.check("order", o.ID, o.Status, to); err != nil {
		return err
	}
	o.Status = to
	return nil
}

// LatestEnd is the expected return time: the end of the last line's interval.
func (o *RentalOrder) LatestEnd() time.Time {
	var end time.Time
	for _, l := range o.Lines {
		if l.Interval.End.After(end) {
			end = l.Interval.End
		}
	}
	return end
}

// Subtotal sums the frozen line subtotals.
func (o *RentalOrder) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal)
	}
	return Round2(total)
}

// ProductIDs lists the distinct products on the order in line order.
func (o *RentalOrder) ProductIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range o.Lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}
