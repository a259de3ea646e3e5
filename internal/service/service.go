package service

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/utils"

	"github.com/shopspring/decimal"
)

type AvailabilityService interface {
	CheckAvailability(ctx context.Context, productID string, iv domain.Interval, qty int) (*domain.Availability, error)
	QuoteRental(ctx context.Context, productID string, iv domain.Interval, qty int) (*RentalQuote, error)
	ListReservations(ctx context.Context, productID string) ([]domain.Reservation, error)
}

type ProductService interface {
	CreateProduct(ctx context.Context, actor domain.Actor, p *domain.Product) error
	UpdateProduct(ctx context.Context, actor domain.Actor, productID string, upd ProductUpdate) (*domain.Product, error)
	SetPublished(ctx context.Context, actor domain.Actor, productID string, published bool) (*domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListMyProducts(ctx context.Context, actor domain.Actor) ([]domain.Product, error)
}

type QuotationService interface {
	CreateQuotation(ctx context.Context, actor domain.Actor) (*domain.Quotation, error)
	AddLine(ctx context.Context, actor domain.Actor, quotationID, productID string, qty int, iv domain.Interval) (*domain.Quotation, error)
	UpdateLineQuantity(ctx context.Context, actor domain.Actor, quotationID, lineID string, qty int) (*domain.Quotation, error)
	RemoveLine(ctx context.Context, actor domain.Actor, quotationID, lineID string) (*domain.Quotation, error)
	Submit(ctx context.Context, actor domain.Actor, quotationID, deliveryAddress string) (*domain.Quotation, error)
	Cancel(ctx context.Context, actor domain.Actor, quotationID string) (*domain.Quotation, error)
	Reject(ctx context.Context, actor domain.Actor, quotationID, vendorID, reason string) (*domain.Quotation, error)
	DeleteQuotation(ctx context.Context, actor domain.Actor, quotationID string) error
	GetQuotation(ctx context.Context, actor domain.Actor, quotationID string) (*domain.Quotation, error)
	ListQuotations(ctx context.Context, actor domain.Actor) ([]domain.Quotation, error)
	ListPendingForVendor(ctx context.Context, actor domain.Actor) ([]domain.Quotation, error)
}

type OrderService interface {
	// Approve turns the vendor's pending lines into a confirmed order with
	// reservations and a DRAFT invoice. An empty vendorID means the caller.
	Approve(ctx context.Context, actor domain.Actor, quotationID, vendorID, deliveryAddress string, securityDeposit decimal.Decimal) (*domain.RentalOrder, *domain.Invoice, error)
	CancelOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error)
	MarkPickedUp(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error)
	CompleteOrder(ctx context.Context, actor domain.Actor, orderID string, returnedAt time.Time) (*domain.RentalOrder, *domain.Invoice, error)
	GetOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error)
	ListOrders(ctx context.Context, actor domain.Actor) ([]domain.RentalOrder, error)
}

type InvoiceService interface {
	SendInvoice(ctx context.Context, actor domain.Actor, invoiceID string) (*domain.Invoice, error)
	RecordPayment(ctx context.Context, actor domain.Actor, invoiceID string, req PaymentRequest) (*domain.Invoice, *domain.Payment, error)
	AddLateFee(ctx context.Context, actor domain.Actor, invoiceID string, amount decimal.Decimal) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, actor domain.Actor, invoiceID string) (*domain.Invoice, error)
	GetInvoiceByOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, actor domain.Actor) ([]domain.Invoice, error)
	ListPayments(ctx context.Context, actor domain.Actor, invoiceID string) ([]domain.Payment, error)
	// ListOverdue returns open invoices whose due date has passed.
	ListOverdue(ctx context.Context) ([]domain.Invoice, error)
}

// RentalQuote is the availability and price of one product for one interval.
type RentalQuote struct {
	Availability *domain.Availability      `json:"availability"`
	Pricing      utils.RentalCostBreakdown `json:"pricing"`
	UnitPrice    decimal.Decimal           `json:"unit_price"`
	GST          utils.GSTBreakdown        `json:"gst"`
}

// ProductUpdate carries the vendor-editable fields. Nil fields are left alone.
type ProductUpdate struct {
	Name           *string
	Description    *string
	QuantityOnHand *int
	PricePerHour   *decimal.Decimal
	PricePerDay    *decimal.Decimal
	PricePerWeek   *decimal.Decimal
}

type PaymentRequest struct {
	Amount        decimal.Decimal
	PaymentMethod string
	TransactionID *string
}

// BillingPolicy holds the configurable invoice terms.
type BillingPolicy struct {
	PaymentTerms time.Duration
	LateFeeRate  decimal.Decimal
}

func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		PaymentTerms: 7 * utils.Day,
		LateFeeRate:  utils.DefaultLateFeeRate,
	}
}

type clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

func decimalInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
