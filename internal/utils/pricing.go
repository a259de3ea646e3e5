package utils

import (
	"fmt"
	"time"

	"rentdesk-backend/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// PricingType is the tier a rental was priced under.
type PricingType string

const (
	PricingWeekly PricingType = "WEEKLY"
	PricingDaily  PricingType = "DAILY"
	PricingHourly PricingType = "HOURLY"
)

// DefaultLateFeeRate is the share of the daily rate charged per late day.
var DefaultLateFeeRate = decimal.RequireFromString("0.10")

// ErrNoApplicableRate is returned when the rate card has no tier that covers
// the requested duration.
var ErrNoApplicableRate = &domain.Error{Kind: domain.KindInvalidInput, Message: "no rate configured for the requested duration"}

// RentalCostBreakdown provides detailed cost breakdown
type RentalCostBreakdown struct {
	Amount      decimal.Decimal `json:"amount"`
	PricingType PricingType     `json:"pricing_type"`
	Hours       decimal.Decimal `json:"hours"`
	Days        decimal.Decimal `json:"days"`
	Weeks       decimal.Decimal `json:"weeks"`
	// Billed units for the selected tier.
	FullWeeks     int64 `json:"full_weeks"`
	RemainingDays int64 `json:"remaining_days"`
	BilledDays    int64 `json:"billed_days"`
	BilledHours   int64 `json:"billed_hours"`
}

// GSTBreakdown splits the tax into its two display halves. Only Tax is stored.
type GSTBreakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	CGST     decimal.Decimal `json:"cgst"`
	SGST     decimal.Decimal `json:"sgst"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func ceilDiv(d, unit time.Duration) int64 {
	return int64((d + unit - 1) / unit)
}

func ratio(d, unit time.Duration) decimal.Decimal {
	return domain.Round2(decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(int64(unit))))
}

// CalculateRentalCost prices one unit of a product over iv. Tiers are tried
// weekly, then daily, then hourly; the first eligible tier wins.
func CalculateRentalCost(card domain.RateCard, iv domain.Interval) (RentalCostBreakdown, error) {
	if err := iv.Validate(); err != nil {
		return RentalCostBreakdown{}, err
	}
	d := iv.Duration()
	b := RentalCostBreakdown{
		Amount: decimal.Zero,
		Hours:  ratio(d, time.Hour),
		Days:   ratio(d, Day),
		Weeks:  ratio(d, Week),
	}

	switch {
	case d >= Week && card.PerWeek != nil:
		b.PricingType = PricingWeekly
		b.FullWeeks = int64(d / Week)
		b.RemainingDays = ceilDiv(d%Week, Day)
		amount := card.PerWeek.Mul(decimal.NewFromInt(b.FullWeeks))
		if card.PerDay != nil {
			amount = amount.Add(card.PerDay.Mul(decimal.NewFromInt(b.RemainingDays)))
		}
		b.Amount = domain.Round2(amount)
	case d >= Day && card.PerDay != nil:
		b.PricingType = PricingDaily
		b.BilledDays = ceilDiv(d, Day)
		b.Amount = domain.Round2(card.PerDay.Mul(decimal.NewFromInt(b.BilledDays)))
	case card.PerHour != nil:
		b.PricingType = PricingHourly
		b.BilledHours = ceilDiv(d, time.Hour)
		b.Amount = domain.Round2(card.PerHour.Mul(decimal.NewFromInt(b.BilledHours)))
	default:
		return b, ErrNoApplicableRate
	}
	return b, nil
}

// CalculateGST applies the 18% rate to subtotal.
func CalculateGST(subtotal decimal.Decimal) GSTBreakdown {
	subtotal = domain.Round2(subtotal)
	tax := domain.Tax(subtotal)
	cgst := domain.Round2(tax.Div(decimal.NewFromInt(2)))
	return GSTBreakdown{
		Subtotal: subtotal,
		CGST:     cgst,
		SGST:     tax.Sub(cgst),
		Tax:      tax,
		Total:    domain.Round2(subtotal.Add(tax)),
	}
}

// EffectiveDailyRate is the rate late fees are based on. Products without a
// daily price fall back to 24 hours or a seventh of a week.
func EffectiveDailyRate(card domain.RateCard) decimal.Decimal {
	switch {
	case card.PerDay != nil:
		return *card.PerDay
	case card.PerHour != nil:
		return domain.Round2(card.PerHour.Mul(decimal.NewFromInt(24)))
	case card.PerWeek != nil:
		return domain.Round2(card.PerWeek.Div(decimal.NewFromInt(7)))
	}
	return decimal.Zero
}

// CalculateLateFee charges rate * dailyRate for every started day past the
// expected return. On-time returns cost nothing.
func CalculateLateFee(expectedReturn, actualReturn time.Time, dailyRate, rate decimal.Decimal) decimal.Decimal {
	if !actualReturn.After(expectedReturn) {
		return decimal.Zero
	}
	daysLate := ceilDiv(actualReturn.Sub(expectedReturn), Day)
	return domain.Round2(dailyRate.Mul(decimal.NewFromInt(daysLate)).Mul(rate))
}

// FormatInvoiceNumber renders INV-YYYY-NNNN.
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%04d-%04d", year, seq)
}
