package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             string           `json:"id"`
	VendorID       string           `json:"vendor_id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	QuantityOnHand int              `json:"quantity_on_hand"`
	PricePerHour   *decimal.Decimal `json:"price_per_hour,omitempty"`
	PricePerDay    *decimal.Decimal `json:"price_per_day,omitempty"`
	PricePerWeek   *decimal.Decimal `json:"price_per_week,omitempty"`
	IsPublished    bool             `json:"is_published"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// RateCard is the subset of a product the pricing engine reads.
type RateCard struct {
	PerHour *decimal.Decimal `json:"per_hour,omitempty"`
	PerDay  *decimal.Decimal `json:"per_day,omitempty"`
	PerWeek *decimal.Decimal `json:"per_week,omitempty"`
}

func (p *Product) RateCard() RateCard {
	return RateCard{PerHour: p.PricePerHour, PerDay: p.PricePerDay, PerWeek: p.PricePerWeek}
}

// Validate checks the fields a vendor controls.
func (p *Product) Validate() error {
	if p.Name == "" {
		return InvalidInput("product name is required")
	}
	if p.QuantityOnHand < 0 {
		return InvalidInput("quantity on hand cannot be negative")
	}
	if p.PricePerHour == nil && p.PricePerDay == nil && p.PricePerWeek == nil {
		return InvalidInput("at least one of hourly, daily or weekly price is required")
	}
	for _, price := range []*decimal.Decimal{p.PricePerHour, p.PricePerDay, p.PricePerWeek} {
		if price != nil && !price.IsPositive() {
			return InvalidInput("prices must be positive")
		}
	}
	return nil
}
