package http

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAvailabilityService
type MockAvailabilityService struct {
	mock.Mock
}

func (m *MockAvailabilityService) CheckAvailability(ctx context.Context, productID string, iv domain.Interval, qty int) (*domain.Availability, error) {
	args := m.Called(ctx, productID, iv, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}
func (m *MockAvailabilityService) QuoteRental(ctx context.Context, productID string, iv domain.Interval, qty int) (*service.RentalQuote, error) {
	args := m.Called(ctx, productID, iv, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RentalQuote), args.Error(1)
}
func (m *MockAvailabilityService) ListReservations(ctx context.Context, productID string) ([]domain.Reservation, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

// MockProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(ctx context.Context, actor domain.Actor, p *domain.Product) error {
	args := m.Called(ctx, actor, p)
	return args.Error(0)
}
func (m *MockProductService) UpdateProduct(ctx context.Context, actor domain.Actor, productID string, upd service.ProductUpdate) (*domain.Product, error) {
	args := m.Called(ctx, actor, productID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}
func (m *MockProductService) SetPublished(ctx context.Context, actor domain.Actor, productID string, published bool) (*domain.Product, error) {
	args := m.Called(ctx, actor, productID, published)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}
func (m *MockProductService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}
func (m *MockProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}
func (m *MockProductService) ListMyProducts(ctx context.Context, actor domain.Actor) ([]domain.Product, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.Product), args.Error(1)
}

// MockQuotationService
type MockQuotationService struct {
	mock.Mock
}

func (m *MockQuotationService) quotation(args mock.Arguments) (*domain.Quotation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quotation), args.Error(1)
}
func (m *MockQuotationService) CreateQuotation(ctx context.Context, actor domain.Actor) (*domain.Quotation, error) {
	return m.quotation(m.Called(ctx, actor))
}
func (m *MockQuotationService) AddLine(ctx context.Context, actor domain.Actor, quotationID, productID string, qty int, iv domain.Interval) (*domain.Quotation, error) {
	return m.quotation(m.Called(ctx, actor, quotationID, productID, qty, iv))
}
func (m *MockQuotationService) UpdateLineQuantity(ctx context.Context, actor domain.Actor, quotationID, lineID string, qty int) (*domain.Quotation, error) {
	return m.quotation(m.Called(ctx, actor, quotationID, lineID, qty))
}
func (m *MockQuotationService) RemoveLine(ctx context.Context, actor domain.Actor, quotationID, lineID string) (*domain.Quotation, error) {
	return m.quotation(m.Called(ctx, actor, quotationID, lineID))
}
func (m *MockQuotationService) Submit(ctx context.Context, actor domain.Actor, quotationID, deliveryAddress string) (*domain.Quotation, error) {
	return m.quotation(m.Called(ctx, actor, quotationID, deliveryAddress))
}
func (m *MockQuotationService) Cancel(ctx context.Context, actor domain.Actor, quotationID string) (*domain.Quotation, error) {
	return m.quotation(m.Called(ctx, actor, quotationID))
}
func (m *MockQuotationService) Reject(ctx context.Context, actor domain.Actor, quotationID, vendorID, reason string) (*domain.Quotation, error) {
	return m.quotation(m.Called(ctx, actor, quotationID, vendorID, reason))
}
func (m *MockQuotationService) DeleteQuotation(ctx context.Context, actor domain.Actor, quotationID string) error {
	args := m.Called(ctx, actor, quotationID)
	return args.Error(0)
}
func (m *MockQuotationService) GetQuotation(ctx context.Context, actor domain.Actor, quotationID string) (*domain.Quotation, error) {
	return m.quotation(m.Called(ctx, actor, quotationID))
}
func (m *MockQuotationService) ListQuotations(ctx context.Context, actor domain.Actor) ([]domain.Quotation, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.Quotation), args.Error(1)
}
func (m *MockQuotationService) ListPendingForVendor(ctx context.Context, actor domain.Actor) ([]domain.Quotation, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.Quotation), args.Error(1)
}

// MockOrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*domain.RentalOrder, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalOrder), args.Error(1)
}
func (m *MockOrderService) orderAndInvoice(args mock.Arguments) (*domain.RentalOrder, *domain.Invoice, error) {
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var inv *domain.Invoice
	if args.Get(1) != nil {
		inv = args.Get(1).(*domain.Invoice)
	}
	return args.Get(0).(*domain.RentalOrder), inv, args.Error(2)
}
func (m *MockOrderService) Approve(ctx context.Context, actor domain.Actor, quotationID, vendorID, deliveryAddress string, securityDeposit decimal.Decimal) (*domain.RentalOrder, *domain.Invoice, error) {
	return m.orderAndInvoice(m.Called(ctx, actor, quotationID, vendorID, deliveryAddress, securityDeposit))
}
func (m *MockOrderService) CancelOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error) {
	return m.order(m.Called(ctx, actor, orderID))
}
func (m *MockOrderService) MarkPickedUp(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error) {
	return m.order(m.Called(ctx, actor, orderID))
}
func (m *MockOrderService) CompleteOrder(ctx context.Context, actor domain.Actor, orderID string, returnedAt time.Time) (*domain.RentalOrder, *domain.Invoice, error) {
	return m.orderAndInvoice(m.Called(ctx, actor, orderID, returnedAt))
}
func (m *MockOrderService) GetOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error) {
	return m.order(m.Called(ctx, actor, orderID))
}
func (m *MockOrderService) ListOrders(ctx context.Context, actor domain.Actor) ([]domain.RentalOrder, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.RentalOrder), args.Error(1)
}

// MockInvoiceService
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) invoice(args mock.Arguments) (*domain.Invoice, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) SendInvoice(ctx context.Context, actor domain.Actor, invoiceID string) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, actor, invoiceID))
}
func (m *MockInvoiceService) RecordPayment(ctx context.Context, actor domain.Actor, invoiceID string, req service.PaymentRequest) (*domain.Invoice, *domain.Payment, error) {
	args := m.Called(ctx, actor, invoiceID, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Invoice), args.Get(1).(*domain.Payment), args.Error(2)
}
func (m *MockInvoiceService) AddLateFee(ctx context.Context, actor domain.Actor, invoiceID string, amount decimal.Decimal) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, actor, invoiceID, amount))
}
func (m *MockInvoiceService) GetInvoice(ctx context.Context, actor domain.Actor, invoiceID string) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, actor, invoiceID))
}
func (m *MockInvoiceService) GetInvoiceByOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Invoice, error) {
	return m.invoice(m.Called(ctx, actor, orderID))
}
func (m *MockInvoiceService) ListInvoices(ctx context.Context, actor domain.Actor) ([]domain.Invoice, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) ListPayments(ctx context.Context, actor domain.Actor, invoiceID string) ([]domain.Payment, error) {
	args := m.Called(ctx, actor, invoiceID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockInvoiceService) ListOverdue(ctx context.Context) ([]domain.Invoice, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Invoice), args.Error(1)
}
