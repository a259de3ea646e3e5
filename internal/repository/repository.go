package repository

import (
	"context"
	"errors"

	"rentdesk-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrStaleVersion reports an optimistic-lock conflict on an invoice update.
var ErrStaleVersion = errors.New("stale invoice version")

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDForUpdate locks the product row until the enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	ListByVendor(ctx context.Context, vendorID string) ([]domain.Product, error)
	ListPublished(ctx context.Context) ([]domain.Product, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	FindOverlapping(ctx context.Context, productID string, iv domain.Interval, statuses []domain.ReservationStatus) ([]domain.Reservation, error)
	// ListActiveByProduct returns holding reservations ordered by start.
	ListActiveByProduct(ctx context.Context, productID string) ([]domain.Reservation, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) error
}

type QuotationRepository interface {
	Create(ctx context.Context, q *domain.Quotation) error
	// GetByID loads the quotation with its lines.
	GetByID(ctx context.Context, id string) (*domain.Quotation, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Quotation, error)
	Update(ctx context.Context, q *domain.Quotation) error
	Delete(ctx context.Context, id string) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Quotation, error)
	// ListPendingForVendor returns submitted quotations where the vendor still
	// has undecided lines.
	ListPendingForVendor(ctx context.Context, vendorID string) ([]domain.Quotation, error)

	CreateLine(ctx context.Context, l *domain.QuotationLine) error
	UpdateLine(ctx context.Context, l *domain.QuotationLine) error
	DeleteLine(ctx context.Context, lineID string) error
}

type OrderRepository interface {
	// Create inserts the order and its lines. A second order for the same
	// quotation and vendor fails with AlreadyExists.
	Create(ctx context.Context, o *domain.RentalOrder) error
	GetByID(ctx context.Context, id string) (*domain.RentalOrder, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.RentalOrder, error)
	GetByQuotationAndVendor(ctx context.Context, quotationID, vendorID string) (*domain.RentalOrder, error)
	Update(ctx context.Context, o *domain.RentalOrder) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.RentalOrder, error)
	ListByVendor(ctx context.Context, vendorID string) ([]domain.RentalOrder, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Invoice, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Invoice, error)
	// Update writes the invoice if its stored version still equals inv.Version,
	// then bumps inv.Version.
	Update(ctx context.Context, inv *domain.Invoice) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Invoice, error)
	ListByVendor(ctx context.Context, vendorID string) ([]domain.Invoice, error)
	ListAll(ctx context.Context) ([]domain.Invoice, error)
	// ListOpen returns SENT and PARTIAL invoices.
	ListOpen(ctx context.Context) ([]domain.Invoice, error)

	// NextSequence atomically allocates the next invoice number for year.
	NextSequence(ctx context.Context, year int) (int64, error)

	AppendPayment(ctx context.Context, p *domain.Payment) error
	SumPayments(ctx context.Context, invoiceID string) (decimal.Decimal, error)
	// ListPayments returns payments newest first.
	ListPayments(ctx context.Context, invoiceID string) ([]domain.Payment, error)
}

// Repositories groups the repositories that share one connection or transaction.
type Repositories struct {
	Products     ProductRepository
	Reservations ReservationRepository
	Quotations   QuotationRepository
	Orders       OrderRepository
	Invoices     InvoiceRepository
}

type Store interface {
	Repos() Repositories
	// WithTx runs fn in a single transaction. fn's error rolls everything back.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
