package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "DRAFT"
	QuotationStatusSent      QuotationStatus = "SENT"
	QuotationStatusConfirmed QuotationStatus = "CONFIRMED"
	QuotationStatusRejected  QuotationStatus = "REJECTED"
	QuotationStatusCancelled QuotationStatus = "CANCELLED"
)

var quotationTransitions = transitions[QuotationStatus]{
	QuotationStatusDraft: {QuotationStatusSent},
	QuotationStatusSent:  {QuotationStatusConfirmed, QuotationStatusRejected, QuotationStatusCancelled},
}

// LineApprovalStatus tracks each vendor's decision on its own lines, so a
// multi-vendor quotation can tell partial approval from full approval.
type LineApprovalStatus string

const (
	LineApprovalPending  LineApprovalStatus = "PENDING"
	LineApprovalApproved LineApprovalStatus = "APPROVED"
	LineApprovalRejected LineApprovalStatus = "REJECTED"
)

type ApprovalProgress string

const (
	ApprovalProgressNone    ApprovalProgress = "NONE"
	ApprovalProgressPartial ApprovalProgress = "PARTIAL"
	ApprovalProgressFull    ApprovalProgress = "FULL"
)

type QuotationLine struct {
	ID              string             `json:"id"`
	QuotationID     string             `json:"quotation_id"`
	ProductID       string             `json:"product_id"`
	VendorID        string             `json:"vendor_id"`
	Quantity        int                `json:"quantity"`
	Interval        Interval           `json:"interval"`
	UnitPrice       decimal.Decimal    `json:"unit_price"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	PricingType     string             `json:"pricing_type"`
	ApprovalStatus  LineApprovalStatus `json:"approval_status"`
	OrderID         *string            `json:"order_id,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// SetQuantity changes the quantity and re-derives the subtotal from the frozen
// unit price.
func (l *QuotationLine) SetQuantity(qty int) error {
	if qty <= 0 {
		return InvalidInput("quantity must be positive")
	}
	l.Quantity = qty
	l.Subtotal = Round2(l.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
	return nil
}

type Quotation struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	Status          QuotationStatus `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryAddress string          `json:"delivery_address"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	Lines           []QuotationLine `json:"lines"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (q *Quotation) EnsureDraft() error {
	if q.Status != QuotationStatusDraft {
		return InvalidState("quotation", q.ID, "only DRAFT quotations can be modified")
	}
	return nil
}

func (q *Quotation) Line(lineID string) (*QuotationLine, error) {
	for i := range q.Lines {
		if q.Lines[i].ID == lineID {
			return &q.Lines[i], nil
		}
	}
	return nil, NotFound("quotation line", lineID)
}

func (q *Quotation) RemoveLine(lineID string) error {
	for i := range q.Lines {
		if q.Lines[i].ID == lineID {
			q.Lines = append(q.Lines[:i], q.Lines[i+1:]...)
			return nil
		}
	}
	return NotFound("quotation line", lineID)
}

// Recalculate derives the pre-tax total from the lines. Only meaningful while
// DRAFT; a submitted quotation keeps its GST-inclusive total.
func (q *Quotation) Recalculate() {
	subtotal := decimal.Zero
	for _, l := range q.Lines {
		subtotal = subtotal.Add(l.Subtotal)
	}
	q.Subtotal = Round2(subtotal)
	q.TaxAmount = decimal.Zero
	q.TotalAmount = q.Subtotal
}

// Submit freezes the quotation with GST baked into the total.
func (q *Quotation) Submit(deliveryAddress string, now time.Time) error {
	if err := q.EnsureDraft(); err != nil {
		return err
	}
	if len(q.Lines) == 0 {
		return EmptyCart(q.ID)
	}
	if err := quotationTransitions.check("quotation", q.ID, q.Status, QuotationStatusSent); err != nil {
		return err
	}
	q.Recalculate()
	q.TaxAmount = Tax(q.Subtotal)
	q.TotalAmount = Round2(q.Subtotal.Add(q.TaxAmount))
	q.DeliveryAddress = deliveryAddress
	q.Status = QuotationStatusSent
	q.SubmittedAt = &now
	return nil
}

func (q *Quotation) Cancel() error {
	if err := quotationTransitions.check("quotation", q.ID, q.Status, QuotationStatusCancelled); err != nil {
		return err
	}
	q.Status = QuotationStatusCancelled
	return nil
}

func (q *Quotation) HasVendor(vendorID string) bool {
	for _, l := range q.Lines {
		if l.VendorID == vendorID {
			return true
		}
	}
	return false
}

// VendorIDs lists the distinct vendors in line order.
func (q *Quotation) VendorIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range q.Lines {
		if !seen[l.VendorID] {
			seen[l.VendorID] = true
			ids = append(ids, l.VendorID)
		}
	}
	return ids
}

// PendingLinesFor returns pointers to the vendor's lines still awaiting a decision.
func (q *Quotation) PendingLinesFor(vendorID string) []*QuotationLine {
	var lines []*QuotationLine
	for i := range q.Lines {
		if q.Lines[i].VendorID == vendorID && q.Lines[i].ApprovalStatus == LineApprovalPending {
			lines = append(lines, &q.Lines[i])
		}
	}
	return lines
}

// CheckApprovable validates that vendorID may convert its lines into an order.
// The first approval needs SENT; later vendors of a multi-vendor quotation may
// still approve their own pending lines after the quotation became CONFIRMED.
func (q *Quotation) CheckApprovable(vendorID string) error {
	if !q.HasVendor(vendorID) {
		return Forbidden("quotation", q.ID, "vendor has no lines on this quotation")
	}
	if q.Status != QuotationStatusSent && q.Status != QuotationStatusConfirmed {
		return InvalidState("quotation", q.ID, "only SENT quotations can be approved")
	}
	if len(q.PendingLinesFor(vendorID)) == 0 {
		return AlreadyExists("quotation", q.ID, "vendor already decided on this quotation")
	}
	return nil
}

// MarkApproved links the vendor's pending lines to orderID and confirms the
// quotation if this is the first approval.
func (q *Quotation) MarkApproved(vendorID, orderID string) error {
	if err := q.CheckApprovable(vendorID); err != nil {
		return err
	}
	for _, l := range q.PendingLinesFor(vendorID) {
		id := orderID
		l.ApprovalStatus = LineApprovalApproved
		l.OrderID = &id
	}
	if q.Status == QuotationStatusSent {
		q.Status = QuotationStatusConfirmed
	}
	return nil
}

// Reject declines vendorID's pending lines. While no vendor has approved, the
// whole quotation moves to REJECTED. Once CONFIRMED, only the vendor's own
// lines are declined and the quotation keeps its status.
func (q *Quotation) Reject(vendorID, reason string) error {
	if !q.HasVendor(vendorID) {
		return Forbidden("quotation", q.ID, "vendor has no lines on this quotation")
	}
	pending := q.PendingLinesFor(vendorID)
	if q.Status == QuotationStatusConfirmed {
		if len(pending) == 0 {
			return AlreadyExists("quotation", q.ID, "vendor already decided on this quotation")
		}
		for _, l := range pending {
			l.ApprovalStatus = LineApprovalRejected
			l.RejectionReason = reason
		}
		return nil
	}
	if err := quotationTransitions.check("quotation", q.ID, q.Status, QuotationStatusRejected); err != nil {
		return err
	}
	for _, l := range pending {
		l.ApprovalStatus = LineApprovalRejected
		l.RejectionReason = reason
	}
	q.Status = QuotationStatusRejected
	q.RejectionReason = reason
	return nil
}

// ApprovalProgress distinguishes partially from fully approved quotations,
// which Status alone does not.
func (q *Quotation) ApprovalProgress() ApprovalProgress {
	approved := 0
	for _, l := range q.Lines {
		if l.ApprovalStatus == LineApprovalApproved {
			approved++
		}
	}
	switch {
	case approved == 0:
		return ApprovalProgressNone
	case approved == len(q.Lines):
		return ApprovalProgressFull
	default:
		return ApprovalProgressPartial
	}
}
