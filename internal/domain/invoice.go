package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	// InvoiceStatusOverdue is never stored; see DisplayStatus.
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

var invoiceTransitions = transitions[InvoiceStatus]{
	InvoiceStatusDraft:   {InvoiceStatusSent},
	InvoiceStatusSent:    {InvoiceStatusPartial, InvoiceStatusPaid},
	InvoiceStatusPartial: {InvoiceStatusPartial, InvoiceStatusPaid},
	InvoiceStatusPaid:    {InvoiceStatusPartial},
}

type PaymentStatus string

const PaymentStatusCompleted PaymentStatus = "COMPLETED"

type Payment struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	Status        PaymentStatus   `json:"status"`
	PaidAt        time.Time       `json:"paid_at"`
}

type Invoice struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	CustomerID      string          `json:"customer_id"`
	VendorID        string          `json:"vendor_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	Status          InvoiceStatus   `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	LateFee         decimal.Decimal `json:"late_fee"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	SentAt          *time.Time      `json:"sent_at,omitempty"`
	DueAt           *time.Time      `json:"due_at,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ComputeTotals derives tax and total from subtotal, deposit and late fee.
func (inv *Invoice) ComputeTotals() {
	inv.Subtotal = Round2(inv.Subtotal)
	inv.TaxAmount = Tax(inv.Subtotal)
	inv.TotalAmount = Round2(inv.Subtotal.Add(inv.TaxAmount).Add(inv.SecurityDeposit).Add(inv.LateFee))
}

func (inv *Invoice) Balance() decimal.Decimal {
	return Round2(inv.TotalAmount.Sub(inv.AmountPaid))
}

// DisplayStatus reports OVERDUE for unpaid, sent invoices past their due date.
func (inv *Invoice) DisplayStatus(now time.Time) InvoiceStatus {
	if (inv.Status == InvoiceStatusSent || inv.Status == InvoiceStatusPartial) &&
		inv.DueAt != nil && now.After(*inv.DueAt) {
		return InvoiceStatusOverdue
	}
	return inv.Status
}

func (inv *Invoice) Send(now time.Time, terms time.Duration) error {
	if err := invoiceTransitions.check("invoice", inv.ID, inv.Status, InvoiceStatusSent); err != nil {
		return err
	}
	due := now.Add(terms)
	inv.Status = InvoiceStatusSent
	inv.SentAt = &now
	inv.DueAt = &due
	return nil
}

// CheckPayment validates amount against the current balance. AmountPaid must
// already reflect the payment ledger. A PAID invoice has a zero balance, so
// any further payment is an InvalidAmount.
func (inv *Invoice) CheckPayment(amount decimal.Decimal) error {
	if inv.Status == InvoiceStatusDraft {
		return InvalidState("invoice", inv.ID, "invoice must be sent before it can be paid")
	}
	if !amount.IsPositive() {
		return InvalidAmount("invoice", inv.ID, "payment amount must be positive")
	}
	if amount.GreaterThan(inv.Balance()) {
		return InvalidAmount("invoice", inv.ID, "payment of "+amount.StringFixed(2)+" exceeds balance "+inv.Balance().StringFixed(2))
	}
	return nil
}

// SettlePayments sets AmountPaid to the ledger sum and recomputes the status.
func (inv *Invoice) SettlePayments(totalPaid decimal.Decimal) error {
	inv.AmountPaid = Round2(totalPaid)
	return inv.settle()
}

func (inv *Invoice) settle() error {
	if inv.Status == InvoiceStatusDraft {
		return nil
	}
	next := InvoiceStatusSent
	switch {
	case !inv.AmountPaid.LessThan(inv.TotalAmount):
		next = InvoiceStatusPaid
	case inv.AmountPaid.IsPositive():
		next = InvoiceStatusPartial
	}
	if next == inv.Status {
		return nil
	}
	if err := invoiceTransitions.check("invoice", inv.ID, inv.Status, next); err != nil {
		return err
	}
	inv.Status = next
	return nil
}

// AddLateFee raises the total; a PAID invoice drops back to PARTIAL.
func (inv *Invoice) AddLateFee(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return InvalidAmount("invoice", inv.ID, "late fee must be positive")
	}
	inv.LateFee = Round2(inv.LateFee.Add(amount))
	inv.TotalAmount = Round2(inv.TotalAmount.Add(amount))
	return inv.settle()
}
